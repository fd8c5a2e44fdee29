package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"interview-eval-go/internal/domain/acoustic"
	"interview-eval-go/internal/domain/eventbus"
	"interview-eval-go/internal/domain/media"
	"interview-eval-go/internal/domain/pipeline"
	"interview-eval-go/internal/domain/providers/openaiclient"
	"interview-eval-go/internal/domain/rubric"
	"interview-eval-go/internal/domain/runlock"
	"interview-eval-go/internal/domain/score"
	"interview-eval-go/internal/domain/transcript"
	platformconfig "interview-eval-go/internal/platform/config"
	platformerrors "interview-eval-go/internal/platform/errors"
	platformlogging "interview-eval-go/internal/platform/logging"
	platformstorage "interview-eval-go/internal/platform/storage"
	httptransport "interview-eval-go/internal/transport/http"
	httpanalysis "interview-eval-go/internal/transport/http/analysis"
	httphealth "interview-eval-go/internal/transport/http/health"
	"interview-eval-go/internal/util/retry"
)

// tempSweepMaxAge bounds how old an orphaned temp asset may be before
// the startup sweep reclaims it.
const tempSweepMaxAge = time.Hour

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config       *platformconfig.Config
	logger       *platformlogging.Logger
	rubrics      *rubric.Library
	fetcher      media.Fetcher
	relational   *platformstorage.RelationalStore
	document     platformstorage.DocumentStore
	locker       runlock.Locker
	gateway      *platformstorage.Gateway
	orchestrator *pipeline.Orchestrator
}

// Run drives the whole service lifecycle: configuration, dependency
// initialisation, HTTP serving and graceful shutdown.
func Run(ctx context.Context) error {
	state := &appState{}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}
	if state.orchestrator == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"pipeline orchestrator not initialised",
		)
	}

	logBootstrapGraph(steps, logger)

	defer func() {
		if state.document != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if closeErr := state.document.Close(closeCtx); closeErr != nil {
				logger.WarnTag("BOOT", "document store close failed: %v", closeErr)
			}
		}
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.InfoTag("BOOT", "service stopped cleanly")
	logger.Close()
	return nil
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	if logger == nil {
		return
	}
	logger.InfoTag("BOOT", "initialisation overview")
	for _, step := range steps {
		logger.InfoTag("BOOT", "  %s", step.Title)
	}
	logger.InfoTag("BOOT", "starting services")
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "media:sweep-temp",
			Title:     "Reclaim orphaned temp assets",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   sweepTempStep,
		},
		{
			ID:        "rubric:load-library",
			Title:     "Load rubric library",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindConfig,
			Execute:   loadRubricsStep,
		},
		{
			ID:        "media:init-fetcher",
			Title:     "Initialise object store fetcher",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initFetcherStep,
		},
		{
			ID:        "storage:init-relational",
			Title:     "Initialise relational store",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindStorageRequired,
			Execute:   initRelationalStep,
		},
		{
			ID:        "storage:init-document",
			Title:     "Initialise document store",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStorageOptional,
			Execute:   initDocumentStep,
		},
		{
			ID:        "runlock:init",
			Title:     "Initialise run lock",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initRunLockStep,
		},
		{
			ID:    "pipeline:init-orchestrator",
			Title: "Initialise evaluation pipeline",
			DependsOn: []string{
				"logging:init-provider",
				"rubric:load-library",
				"media:init-fetcher",
				"storage:init-relational",
				"storage:init-document",
				"runlock:init",
			},
			Kind:    platformerrors.KindBootstrap,
			Execute: initPipelineStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	config, err := platformconfig.NewLoader().WithDotEnv(true).Load()
	if err != nil {
		return err
	}
	state.config = config
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state == nil || state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}

	state.logger = logger
	if err := eventbus.SetupEventHandlers(logger); err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to register event handlers", err)
	}
	logger.InfoTag("BOOT", "logging ready [%s]", state.config.Log.Level)
	return nil
}

func sweepTempStep(_ context.Context, state *appState) error {
	removed, err := media.SweepTempDir(state.config.Pipeline.TempDir, tempSweepMaxAge)
	if err != nil {
		state.logger.WarnTag("BOOT", "temp sweep failed: %v", err)
		return nil
	}
	if removed > 0 {
		state.logger.InfoTag("BOOT", "reclaimed %d orphaned temp assets", removed)
	}
	return nil
}

func loadRubricsStep(_ context.Context, state *appState) error {
	library, err := rubric.LoadDir(state.config.Pipeline.RubricDir)
	if err != nil {
		return err
	}
	state.rubrics = library
	return nil
}

func initFetcherStep(_ context.Context, state *appState) error {
	fetcher, err := media.NewObjectFetcher(state.config.ObjectStore, state.config.Pipeline.TempDir, state.logger)
	if err != nil {
		return err
	}
	state.fetcher = fetcher
	return nil
}

func initRelationalStep(_ context.Context, state *appState) error {
	store, err := platformstorage.OpenRelational(state.config.Relational)
	if err != nil {
		return err
	}
	state.relational = store
	return nil
}

// initDocumentStep is best-effort: the service runs degraded when the
// document store is unreachable.
func initDocumentStep(ctx context.Context, state *appState) error {
	if !state.config.Document.Enabled {
		state.logger.InfoTag("BOOT", "document store disabled")
		return nil
	}

	store, err := platformstorage.OpenDocumentStore(ctx, state.config.Document)
	if err != nil {
		state.logger.WarnTag("BOOT", "document store unavailable, persisting degraded: %v", err)
		return nil
	}
	state.document = store
	return nil
}

func initRunLockStep(_ context.Context, state *appState) error {
	locker, err := runlock.New(state.config.Redis)
	if err != nil {
		return err
	}
	state.locker = locker
	return nil
}

func initPipelineStep(_ context.Context, state *appState) error {
	client, err := openaiclient.New(state.config.OpenAI)
	if err != nil {
		return err
	}

	policy := retry.Policy{
		Attempts: state.config.Pipeline.RetryAttempts,
		Backoff:  state.config.Pipeline.RetryBackoff,
	}

	state.gateway = platformstorage.NewGateway(state.relational, state.document, policy, state.logger)

	state.orchestrator = pipeline.NewOrchestrator(pipeline.Options{
		Fetcher:     state.fetcher,
		Normalizer:  media.NewWavPassthrough(),
		Analyzer:    acoustic.NewAnalyzer(acoustic.NewPCMExtractor(), state.logger),
		Scorer:      acoustic.NewScorer(),
		Transcriber: transcript.NewWhisperTranscriber(client, state.config.OpenAI.SttModel, state.logger),
		Evaluator:   rubric.NewEvaluator(client, state.config.OpenAI, state.logger),
		Rubrics:     state.rubrics,
		Aggregator:  score.NewAggregator(),
		Gateway:     state.gateway,
		Locker:      state.locker,
		Bus:         eventbus.Get(),
		Policy:      policy,
		FanoutWidth: state.config.Pipeline.FanoutWidth,
		CallTimeout: state.config.Pipeline.CallTimeout,
		Logger:      state.logger,
	})
	return nil
}

func startHTTPServer(
	state *appState,
	g *errgroup.Group,
	groupCtx context.Context,
) (*http.Server, error) {
	config := state.config
	logger := state.logger

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config: config,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	router := httpRouter.Engine
	apiGroup := httpRouter.API

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httptransport.APIResponse{
			Success: false,
			Data:    gin.H{},
			Message: "not found",
			Code:    http.StatusNotFound,
		})
	})

	analysisService, err := httpanalysis.NewService(config, logger, state.orchestrator)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "analysis:new-service", "failed to create analysis service", err)
	}

	healthService, err := httphealth.NewService(logger)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "health:new-service", "failed to create health service", err)
	}

	analysisService.Register(groupCtx, apiGroup)
	healthService.Register(groupCtx, router)

	httpServer := &http.Server{
		Addr:    config.Server.IP + ":" + strconv.Itoa(config.Server.Port),
		Handler: router,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "listening on http://%s", httpServer.Addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server shut down cleanly")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "server failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("BOOT", "received shutdown signal %v, cleaning up", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("BOOT", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("BOOT", "all services stopped")
	case <-time.After(15 * time.Second):
		timeoutErr := errors.New("shutdown timed out")
		logger.ErrorTag("BOOT", "shutdown timed out, forcing exit")
		return timeoutErr
	}
	return nil
}
