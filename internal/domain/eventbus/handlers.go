package eventbus

import (
	evbus "github.com/asaskevich/EventBus"

	"interview-eval-go/internal/platform/logging"
)

// RegisterLogging subscribes a debug trace for every run lifecycle topic.
// The orchestrator already logs its own milestones at info level, so the
// bus listeners stay at debug to keep the event trail separate.
func RegisterLogging(bus evbus.Bus, logger *logging.Logger) error {
	if err := bus.Subscribe(EventRunStarted, func(data RunEventData) {
		logger.DebugTag("PIPELINE", "event run started: run=%s user=%s question=%d",
			data.RunID, data.UserID, data.QuestionNum)
	}); err != nil {
		return err
	}
	if err := bus.Subscribe(EventRunCompleted, func(data RunEventData) {
		logger.DebugTag("PIPELINE", "event run completed: run=%s total=%d band=%s",
			data.RunID, data.TotalScore, data.Band)
	}); err != nil {
		return err
	}
	if err := bus.Subscribe(EventRunDegraded, func(data RunEventData) {
		logger.DebugTag("PIPELINE", "event run degraded: run=%s total=%d band=%s",
			data.RunID, data.TotalScore, data.Band)
	}); err != nil {
		return err
	}
	return bus.Subscribe(EventRunFailed, func(data RunEventData) {
		logger.DebugTag("PIPELINE", "event run failed: run=%s error=%s", data.RunID, data.Error)
	})
}

// SetupEventHandlers wires the standard listeners onto the process-wide bus.
func SetupEventHandlers(logger *logging.Logger) error {
	return RegisterLogging(Get(), logger)
}
