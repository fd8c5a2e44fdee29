package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	apperrors "interview-eval-go/internal/platform/errors"
	"interview-eval-go/internal/platform/logging"
)

// Service answers liveness checks and the service banner.
type Service struct {
	logger  *logging.Logger
	started time.Time
}

func NewService(logger *logging.Logger) (*Service, error) {
	if logger == nil {
		return nil, apperrors.New(apperrors.KindConfig, "health.new", "logger is required")
	}
	return &Service{logger: logger, started: time.Now()}, nil
}

// Register registers the health routes on the engine root.
func (s *Service) Register(ctx context.Context, engine *gin.Engine) error {
	engine.GET("/", s.handleRoot)
	engine.GET("/health", s.handleHealth)

	s.logger.InfoTag("HTTP", "health routes registered")
	return nil
}

func (s *Service) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Interview Answer Evaluation API",
		"status":  "running",
	})
}

type systemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	Goroutines    int     `json:"goroutines"`
}

func (s *Service) handleHealth(c *gin.Context) {
	stats := systemStats{Goroutines: runtime.NumGoroutine()}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = vm.UsedPercent
		stats.MemoryUsedMB = vm.Used / 1024 / 1024
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"system":    stats,
	})
}
