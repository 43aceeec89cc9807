package events

import (
	"encoding/json"

	"github.com/orkipay/gateway/logger"
)

// LogEmitter writes every event to a structured logger instead of a bus.
// Useful when no consumer wants a channel.
type LogEmitter struct {
	log logger.Logger
}

// NewLogEmitter wraps a logger as an emitter. A nil logger discards events.
func NewLogEmitter(log logger.Logger) *LogEmitter {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &LogEmitter{log: log}
}

func (e *LogEmitter) Emit(evt Event) {
	fields := map[string]any{"event": evt.EventType()}
	if data, err := json.Marshal(evt); err == nil {
		fields["payload"] = json.RawMessage(data)
	}
	e.log.Info("event emitted", fields)
}
