package metrics

import "time"

// Recorder is the metrics surface the gateway reports through.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// Metric names and label keys used by the gateway.
const (
	CounterPayments       = "payments"
	CounterPaymentErrors  = "payment_errors"
	CounterAdminMutations = "admin_mutations"

	LatencySettle = "settle"

	LabelAsset  = "asset"
	LabelResult = "result"
)

// NoopRecorder discards all observations.
type NoopRecorder struct{}

func (NoopRecorder) IncCounter(string, map[string]string)                    {}
func (NoopRecorder) ObserveLatency(string, time.Duration, map[string]string) {}
