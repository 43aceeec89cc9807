// Package admin is the authorization-gated control surface over the global
// configuration: bootstrap, fee parameters, pause switch, and admin-key
// rotation. Each operation is a single-field write; all of the interesting
// machinery lives in the settlement engine.
package admin

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orkipay/gateway/events"
	"github.com/orkipay/gateway/logger"
	"github.com/orkipay/gateway/state"
	"github.com/orkipay/gateway/types"
)

// Service mutates the global configuration.
type Service struct {
	store   state.Store
	emitter events.Emitter
	log     logger.Logger
	nowFn   func() int64
}

// NewService builds an admin service. Emitter and logger may be nil.
func NewService(store state.Store, emitter events.Emitter, log logger.Logger) *Service {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Service{
		store:   store,
		emitter: emitter,
		log:     log,
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the timestamp source, for deterministic tests.
func (s *Service) SetNowFunc(now func() int64) {
	if now == nil {
		s.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	s.nowFn = now
}

// Bootstrap creates the configuration singleton. The caller becomes admin.
// Fails with ALREADY_INITIALIZED on a second call and INVALID_FEE when the
// rate exceeds 10000 bps.
func (s *Service) Bootstrap(ctx context.Context, admin common.Address, feeBps uint16, feeCollector common.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if feeBps > types.MaxFeeBps {
		return types.NewError(types.ErrInvalidFee, "fee rate %d exceeds %d bps", feeBps, types.MaxFeeBps)
	}

	now := s.nowFn()
	err := s.store.Update(func(tx state.Tx) error {
		return tx.CreateGlobalConfig(&types.GlobalConfig{
			Admin:        admin,
			FeeBps:       feeBps,
			FeeCollector: feeCollector,
			Paused:       false,
		})
	})
	if err != nil {
		return err
	}

	s.log.Info("configuration bootstrapped", map[string]any{
		"admin":        admin.Hex(),
		"feeBps":       feeBps,
		"feeCollector": feeCollector.Hex(),
	})
	s.emitter.Emit(events.ConfigInitialized{
		Admin:        admin,
		FeeBps:       feeBps,
		FeeCollector: feeCollector,
		Timestamp:    now,
	})
	return nil
}

// SetFee updates the protocol fee rate.
func (s *Service) SetFee(ctx context.Context, caller common.Address, newFeeBps uint16) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if newFeeBps > types.MaxFeeBps {
		return types.NewError(types.ErrInvalidFee, "fee rate %d exceeds %d bps", newFeeBps, types.MaxFeeBps)
	}

	var oldFeeBps uint16
	err := s.mutate(caller, func(cfg *types.GlobalConfig) {
		oldFeeBps = cfg.FeeBps
		cfg.FeeBps = newFeeBps
	})
	if err != nil {
		return err
	}

	s.emitter.Emit(events.FeeUpdated{
		Admin:     caller,
		OldFeeBps: oldFeeBps,
		NewFeeBps: newFeeBps,
		Timestamp: s.nowFn(),
	})
	return nil
}

// SetFeeCollector updates the fee-leg destination address.
func (s *Service) SetFeeCollector(ctx context.Context, caller, newCollector common.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var oldCollector common.Address
	err := s.mutate(caller, func(cfg *types.GlobalConfig) {
		oldCollector = cfg.FeeCollector
		cfg.FeeCollector = newCollector
	})
	if err != nil {
		return err
	}

	s.emitter.Emit(events.FeeCollectorUpdated{
		Admin:           caller,
		OldFeeCollector: oldCollector,
		NewFeeCollector: newCollector,
		Timestamp:       s.nowFn(),
	})
	return nil
}

// SetPaused flips the settlement pause switch.
func (s *Service) SetPaused(ctx context.Context, caller common.Address, paused bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.mutate(caller, func(cfg *types.GlobalConfig) {
		cfg.Paused = paused
	})
	if err != nil {
		return err
	}

	s.log.Warn("pause status changed", map[string]any{"paused": paused, "admin": caller.Hex()})
	s.emitter.Emit(events.PausedStatusUpdated{
		Admin:     caller,
		Paused:    paused,
		Timestamp: s.nowFn(),
	})
	return nil
}

// RotateAdmin hands the admin key to a new identity.
func (s *Service) RotateAdmin(ctx context.Context, caller, newAdmin common.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.mutate(caller, func(cfg *types.GlobalConfig) {
		cfg.Admin = newAdmin
	})
	if err != nil {
		return err
	}

	s.log.Warn("admin rotated", map[string]any{"oldAdmin": caller.Hex(), "newAdmin": newAdmin.Hex()})
	s.emitter.Emit(events.AdminRotated{
		OldAdmin:  caller,
		NewAdmin:  newAdmin,
		Timestamp: s.nowFn(),
	})
	return nil
}

// Config returns a copy of the current global configuration.
func (s *Service) Config(ctx context.Context) (*types.GlobalConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var cfg *types.GlobalConfig
	err := s.store.View(func(tx state.Tx) error {
		var err error
		cfg, err = tx.GlobalConfig()
		return err
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// mutate loads the configuration, checks the caller is admin, applies fn,
// and writes the result back, all inside one transaction.
func (s *Service) mutate(caller common.Address, fn func(*types.GlobalConfig)) error {
	return s.store.Update(func(tx state.Tx) error {
		cfg, err := tx.GlobalConfig()
		if err != nil {
			return err
		}
		if cfg.Admin != caller {
			return types.NewError(types.ErrUnauthorized, "caller %s is not admin", caller.Hex())
		}
		fn(cfg)
		return tx.PutGlobalConfig(cfg)
	})
}
