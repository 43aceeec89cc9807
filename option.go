package gateway

import (
	"github.com/orkipay/gateway/events"
	"github.com/orkipay/gateway/logger"
	"github.com/orkipay/gateway/metrics"
)

// Option customizes a Gateway beyond what Config covers.
type Option func(*Gateway)

// WithLogger replaces the configured logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMetrics replaces the configured metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(g *Gateway) {
		if r != nil {
			g.metrics = r
		}
	}
}

// WithEmitter replaces the built-in event bus. Gateway.Events returns nil
// once a custom emitter is installed.
func WithEmitter(e events.Emitter) Option {
	return func(g *Gateway) {
		if e != nil {
			g.emitter = e
		}
	}
}

// WithClock overrides the timestamp source for payment receipts and events.
// Primarily for tests.
func WithClock(now func() int64) Option {
	return func(g *Gateway) {
		g.nowFn = now
	}
}
