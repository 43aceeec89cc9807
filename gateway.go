// Package gateway implements an on-chain style payment settlement engine:
// fee computation in basis points, dual-asset routing between native units
// and token accounts, a merchant registry, and an idempotent payment ledger.
package gateway

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orkipay/gateway/admin"
	"github.com/orkipay/gateway/events"
	"github.com/orkipay/gateway/logger"
	"github.com/orkipay/gateway/metrics"
	"github.com/orkipay/gateway/registry"
	"github.com/orkipay/gateway/settlement"
	"github.com/orkipay/gateway/state"
	"github.com/orkipay/gateway/types"
)

// Config controls how a Gateway is assembled.
type Config struct {
	// StorePath is the bbolt database file. Empty selects the in-memory store.
	StorePath string

	// LockSettlementToken freezes each merchant's settlement token at
	// registration time.
	LockSettlementToken bool

	// LogLevel is one of debug, info, warn, error. Empty disables logging.
	LogLevel string

	// EnableMetrics registers Prometheus collectors on the default registry.
	EnableMetrics bool

	// EventBuffer sizes the event bus. Zero uses a reasonable default.
	EventBuffer int
}

const defaultEventBuffer = 64

// Gateway is the top-level entry point tying the stores and services together.
type Gateway struct {
	store    state.Store
	bus      *events.Bus
	emitter  events.Emitter
	logger   logger.Logger
	metrics  metrics.Recorder
	admin    *admin.Service
	registry *registry.Service
	engine   *settlement.Engine
	nowFn    func() int64
}

// New assembles a Gateway from the configuration. A nil config selects the
// in-memory store with logging and metrics off.
func New(cfg *Config, opts ...Option) (*Gateway, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	g := &Gateway{
		logger:  logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
	}

	if cfg.StorePath != "" {
		store, err := state.NewBoltStore(cfg.StorePath, nil)
		if err != nil {
			return nil, err
		}
		g.store = store
	} else {
		g.store = state.NewMemoryStore()
	}

	if cfg.LogLevel != "" {
		g.logger = logger.NewZapLogger(cfg.LogLevel)
	}
	if cfg.EnableMetrics {
		g.metrics = metrics.NewPrometheusRecorder()
	}

	buffer := cfg.EventBuffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	g.bus = events.NewBus(buffer)
	g.emitter = g.bus

	for _, opt := range opts {
		opt(g)
	}

	g.admin = admin.NewService(g.store, g.emitter, g.logger)
	g.registry = registry.NewService(g.store, g.emitter, g.logger, registry.Config{
		LockSettlementToken: cfg.LockSettlementToken,
	})

	g.engine = settlement.NewEngine(g.store)
	g.engine.SetLogger(g.logger)
	g.engine.SetMetrics(g.metrics)
	g.engine.SetEmitter(g.emitter)

	if g.nowFn != nil {
		g.admin.SetNowFunc(g.nowFn)
		g.registry.SetNowFunc(g.nowFn)
		g.engine.SetNowFunc(g.nowFn)
	}

	return g, nil
}

// Bootstrap initializes the global configuration. It can succeed only once.
func (g *Gateway) Bootstrap(ctx context.Context, adminAddr common.Address, feeBps uint16, feeCollector common.Address) error {
	return g.admin.Bootstrap(ctx, adminAddr, feeBps, feeCollector)
}

// SetFee updates the platform fee rate. Admin only.
func (g *Gateway) SetFee(ctx context.Context, caller common.Address, feeBps uint16) error {
	return g.admin.SetFee(ctx, caller, feeBps)
}

// SetFeeCollector updates the fee destination. Admin only.
func (g *Gateway) SetFeeCollector(ctx context.Context, caller, collector common.Address) error {
	return g.admin.SetFeeCollector(ctx, caller, collector)
}

// SetPaused toggles the settlement kill switch. Admin only.
func (g *Gateway) SetPaused(ctx context.Context, caller common.Address, paused bool) error {
	return g.admin.SetPaused(ctx, caller, paused)
}

// RotateAdmin hands admin authority to a new key. Admin only.
func (g *Gateway) RotateAdmin(ctx context.Context, caller, newAdmin common.Address) error {
	return g.admin.RotateAdmin(ctx, caller, newAdmin)
}

// Config returns the current global configuration.
func (g *Gateway) Config(ctx context.Context) (*types.GlobalConfig, error) {
	return g.admin.Config(ctx)
}

// RegisterMerchant creates a merchant profile owned by owner.
func (g *Gateway) RegisterMerchant(ctx context.Context, owner common.Address, req *types.RegisterRequest) (*types.Merchant, error) {
	return g.registry.Register(ctx, owner, req)
}

// UpdateMerchant mutates the merchant profile registered under (owner, name).
func (g *Gateway) UpdateMerchant(ctx context.Context, owner common.Address, name string, req *types.UpdateRequest) (*types.Merchant, error) {
	return g.registry.Update(ctx, owner, name, req)
}

// Merchant returns the merchant profile registered under (owner, name).
func (g *Gateway) Merchant(ctx context.Context, owner common.Address, name string) (*types.Merchant, error) {
	return g.registry.Merchant(ctx, owner, name)
}

// ProcessPayment settles a payment from payer and returns the recorded
// receipt. A (payer, payment id) pair settles at most once.
func (g *Gateway) ProcessPayment(ctx context.Context, payer common.Address, req *types.PaymentRequest) (*types.Payment, error) {
	return g.engine.Settle(ctx, payer, req)
}

// Payment returns the receipt recorded under (payer, paymentID).
func (g *Gateway) Payment(ctx context.Context, payer common.Address, paymentID uint64) (*types.Payment, error) {
	var receipt *types.Payment
	err := g.store.View(func(tx state.Tx) error {
		var err error
		receipt, err = tx.Payment(payer, paymentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Events exposes the event stream. Nil when a custom emitter replaced the
// built-in bus.
func (g *Gateway) Events() <-chan events.Envelope {
	if g.bus == nil || events.Emitter(g.bus) != g.emitter {
		return nil
	}
	return g.bus.Events()
}

// Store exposes the underlying state store for host-level funding and
// inspection.
func (g *Gateway) Store() state.Store {
	return g.store
}

// Close releases the underlying store.
func (g *Gateway) Close() error {
	return g.store.Close()
}
