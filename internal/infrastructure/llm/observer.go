package llm

import "github.com/waste3d/courseforge/internal/infrastructure/logger"

// CallEvent records metadata about a single model invocation.
type CallEvent struct {
	Task      Task
	Model     string
	Attempts  int
	LatencyMs int64
	Success   bool
	ErrorCode string
}

// Observer receives events about model calls for logging and metrics.
type Observer interface {
	OnCallComplete(event CallEvent)
}

type LogObserver struct {
	log *logger.Logger
}

func NewLogObserver(log *logger.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) OnCallComplete(e CallEvent) {
	if e.Success {
		o.log.Debug("model call", "task", e.Task, "model", e.Model, "attempts", e.Attempts, "latency_ms", e.LatencyMs)
		return
	}
	o.log.Warn("model call failed", "task", e.Task, "model", e.Model, "attempts", e.Attempts, "latency_ms", e.LatencyMs, "code", e.ErrorCode)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}
