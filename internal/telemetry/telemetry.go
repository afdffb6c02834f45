// Package telemetry defines the event-emission contract the panel host
// consumes. Emission is fire-and-forget and must never block callers;
// actual delivery lives outside this module.
package telemetry

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/panelhost/internal/logging"
)

// EventPanelCreated is emitted once per panel construction.
const EventPanelCreated = "panelhost.panelCreated"

// Reporter emits telemetry events. Implementations must not block.
type Reporter interface {
	Emit(event string, props map[string]string)
}

// Noop discards all events.
type Noop struct{}

// Emit implements Reporter.
func (Noop) Emit(string, map[string]string) {}

// logReporter writes events to the structured log, for hosts without a
// telemetry pipeline.
type logReporter struct {
	log *logging.Logger
}

// NewLog creates a Reporter backed by the structured log.
func NewLog(log *logging.Logger) Reporter {
	return &logReporter{log: log}
}

func (r *logReporter) Emit(event string, props map[string]string) {
	fields := make([]zap.Field, 0, len(props)+1)
	fields = append(fields, zap.String("event", event))
	for k, v := range props {
		fields = append(fields, zap.String(k, v))
	}
	r.log.Info("telemetry", fields...)
}
