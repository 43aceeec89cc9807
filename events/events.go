// Package events carries the gateway's append-only notification stream.
// Components emit through the Emitter interface; observers consume envelopes
// from a Bus.
package events

import (
	"github.com/ethereum/go-ethereum/common"
)

// Event type constants, one per notification the gateway emits.
const (
	TypeConfigInitialized   = "config.initialized"
	TypeFeeUpdated          = "fee.updated"
	TypeFeeCollectorUpdated = "fee_collector.updated"
	TypePausedStatusUpdated = "pause.updated"
	TypeAdminRotated        = "admin.rotated"
	TypeMerchantRegistered  = "merchant.registered"
	TypeMerchantUpdated     = "merchant.updated"
	TypePaymentProcessed    = "payment.processed"
)

// Event is any gateway notification payload.
type Event interface {
	EventType() string
}

// Emitter receives events as they are produced. Implementations must not
// block the caller.
type Emitter interface {
	Emit(evt Event)
}

// NoopEmitter discards every event.
type NoopEmitter struct{}

func (NoopEmitter) Emit(Event) {}

// ConfigInitialized is emitted once, at bootstrap.
type ConfigInitialized struct {
	Admin        common.Address `json:"admin"`
	FeeBps       uint16         `json:"feeBps"`
	FeeCollector common.Address `json:"feeCollector"`
	Timestamp    int64          `json:"timestamp"`
}

func (ConfigInitialized) EventType() string { return TypeConfigInitialized }

// FeeUpdated carries the fee-rate change performed by an admin.
type FeeUpdated struct {
	Admin     common.Address `json:"admin"`
	OldFeeBps uint16         `json:"oldFeeBps"`
	NewFeeBps uint16         `json:"newFeeBps"`
	Timestamp int64          `json:"timestamp"`
}

func (FeeUpdated) EventType() string { return TypeFeeUpdated }

// FeeCollectorUpdated carries a fee-collector address change.
type FeeCollectorUpdated struct {
	Admin           common.Address `json:"admin"`
	OldFeeCollector common.Address `json:"oldFeeCollector"`
	NewFeeCollector common.Address `json:"newFeeCollector"`
	Timestamp       int64          `json:"timestamp"`
}

func (FeeCollectorUpdated) EventType() string { return TypeFeeCollectorUpdated }

// PausedStatusUpdated carries a pause-switch flip.
type PausedStatusUpdated struct {
	Admin     common.Address `json:"admin"`
	Paused    bool           `json:"paused"`
	Timestamp int64          `json:"timestamp"`
}

func (PausedStatusUpdated) EventType() string { return TypePausedStatusUpdated }

// AdminRotated carries an admin-key rotation.
type AdminRotated struct {
	OldAdmin  common.Address `json:"oldAdmin"`
	NewAdmin  common.Address `json:"newAdmin"`
	Timestamp int64          `json:"timestamp"`
}

func (AdminRotated) EventType() string { return TypeAdminRotated }

// MerchantRegistered announces a new merchant profile.
type MerchantRegistered struct {
	Owner            common.Address `json:"owner"`
	SettlementWallet common.Address `json:"settlementWallet"`
	SettlementToken  common.Address `json:"settlementToken"`
	Name             string         `json:"name"`
	Timestamp        int64          `json:"timestamp"`
}

func (MerchantRegistered) EventType() string { return TypeMerchantRegistered }

// MerchantUpdated announces a partial merchant mutation. Nil fields were
// left unchanged.
type MerchantUpdated struct {
	Owner            common.Address  `json:"owner"`
	OldName          string          `json:"oldName"`
	NewName          *string         `json:"newName,omitempty"`
	SettlementWallet *common.Address `json:"settlementWallet,omitempty"`
	SettlementToken  *common.Address `json:"settlementToken,omitempty"`
	SwapEnabled      *bool           `json:"swapEnabled,omitempty"`
	Timestamp        int64           `json:"timestamp"`
}

func (MerchantUpdated) EventType() string { return TypeMerchantUpdated }

// PaymentProcessed announces a settled payment. Token is the zero address
// for native settlements.
type PaymentProcessed struct {
	Payer         common.Address `json:"payer"`
	MerchantOwner common.Address `json:"merchantOwner"`
	MerchantName  string         `json:"merchantName"`
	Amount        uint64         `json:"amount"`
	Fee           uint64         `json:"fee"`
	Token         common.Address `json:"token"`
	PaymentID     uint64         `json:"paymentId"`
	Timestamp     int64          `json:"timestamp"`
}

func (PaymentProcessed) EventType() string { return TypePaymentProcessed }
