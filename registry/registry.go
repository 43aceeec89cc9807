// Package registry manages merchant profiles: creation and owner-authorized
// partial updates. Profiles are keyed by (owner, name) and are never
// deleted.
package registry

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orkipay/gateway/events"
	"github.com/orkipay/gateway/logger"
	"github.com/orkipay/gateway/state"
	"github.com/orkipay/gateway/types"
)

// Config selects registry policy.
type Config struct {
	// LockSettlementToken freezes a merchant's settlement token once it has
	// been set to a non-native asset. With the flag off the owner may change
	// it freely.
	LockSettlementToken bool
}

// Service is the merchant registry.
type Service struct {
	store   state.Store
	emitter events.Emitter
	log     logger.Logger
	cfg     Config
	nowFn   func() int64
}

// NewService builds a registry. Emitter and logger may be nil.
func NewService(store state.Store, emitter events.Emitter, log logger.Logger, cfg Config) *Service {
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
		cfg:     cfg,
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

// Register creates a merchant profile owned by owner. The swap flag always
// starts off; owners opt in through Update.
func (s *Service) Register(ctx context.Context, owner common.Address, req *types.RegisterRequest) (*types.Merchant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Name) > types.MaxMerchantNameLen {
		return nil, types.NewError(types.ErrNameTooLong, "merchant name exceeds %d characters", types.MaxMerchantNameLen)
	}

	merchant := &types.Merchant{
		Owner:            owner,
		SettlementWallet: req.SettlementWallet,
		SettlementToken:  req.SettlementToken,
		SwapEnabled:      false,
		Name:             req.Name,
	}
	err := s.store.Update(func(tx state.Tx) error {
		return tx.CreateMerchant(merchant)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("merchant registered", map[string]any{
		"owner": owner.Hex(),
		"name":  req.Name,
	})
	s.emitter.Emit(events.MerchantRegistered{
		Owner:            owner,
		SettlementWallet: req.SettlementWallet,
		SettlementToken:  req.SettlementToken,
		Name:             req.Name,
		Timestamp:        s.nowFn(),
	})
	return merchant, nil
}

// Update applies a partial mutation to the profile (owner, name). Only the
// owner may touch the record; nil fields are left unchanged. When the
// registry runs with LockSettlementToken, a non-native settlement token can
// never be replaced.
func (s *Service) Update(ctx context.Context, owner common.Address, name string, req *types.UpdateRequest) (*types.Merchant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.NewName != nil && len(*req.NewName) > types.MaxMerchantNameLen {
		return nil, types.NewError(types.ErrNameTooLong, "merchant name exceeds %d characters", types.MaxMerchantNameLen)
	}

	var updated *types.Merchant
	err := s.store.Update(func(tx state.Tx) error {
		merchant, err := tx.Merchant(owner, name)
		if err != nil {
			return err
		}
		if merchant.Owner != owner {
			return types.NewError(types.ErrUnauthorized, "caller %s does not own merchant %q", owner.Hex(), name)
		}

		if req.SettlementToken != nil {
			if s.cfg.LockSettlementToken && !types.IsNativeToken(merchant.SettlementToken) {
				return types.NewError(types.ErrInvalidToken, "settlement token for %q is locked", name)
			}
			merchant.SettlementToken = *req.SettlementToken
		}
		if req.SettlementWallet != nil {
			merchant.SettlementWallet = *req.SettlementWallet
		}
		if req.SwapEnabled != nil {
			merchant.SwapEnabled = *req.SwapEnabled
		}
		if req.NewName != nil {
			// Display rename only. The profile stays addressable under its
			// registration name, so payments referencing that name keep
			// resolving.
			merchant.Name = *req.NewName
		}

		updated = merchant
		return tx.PutMerchant(owner, name, merchant)
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(events.MerchantUpdated{
		Owner:            owner,
		OldName:          name,
		NewName:          req.NewName,
		SettlementWallet: req.SettlementWallet,
		SettlementToken:  req.SettlementToken,
		SwapEnabled:      req.SwapEnabled,
		Timestamp:        s.nowFn(),
	})
	return updated, nil
}

// Merchant returns the profile at (owner, name).
func (s *Service) Merchant(ctx context.Context, owner common.Address, name string) (*types.Merchant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var merchant *types.Merchant
	err := s.store.View(func(tx state.Tx) error {
		var err error
		merchant, err = tx.Merchant(owner, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return merchant, nil
}
