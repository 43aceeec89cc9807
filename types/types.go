// Package types defines the records, requests, and error codes shared by
// every component of the payment gateway.
package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// MaxMerchantNameLen bounds merchant display names.
const MaxMerchantNameLen = 32

// MaxFeeBps is the inclusive upper bound for the protocol fee rate (100%).
const MaxFeeBps = 10_000

// NativeToken is the sentinel asset identifier for the chain's native asset.
// A merchant whose SettlementToken equals NativeToken settles natively.
var NativeToken = common.Address{}

// IsNativeToken reports whether token is the native-asset sentinel.
func IsNativeToken(token common.Address) bool {
	return token == NativeToken
}

// GlobalConfig is the singleton configuration record. It is created exactly
// once by Bootstrap and mutated only through the admin surface.
type GlobalConfig struct {
	Admin        common.Address `json:"admin"`
	FeeBps       uint16         `json:"feeBps" validate:"lte=10000"`
	FeeCollector common.Address `json:"feeCollector"`
	Paused       bool           `json:"paused"`
}

// Merchant is a merchant profile, keyed by (Owner, Name). A single owner may
// hold several profiles under different names.
type Merchant struct {
	Owner common.Address `json:"owner"`

	// SettlementWallet receives the merchant leg of native payments.
	SettlementWallet common.Address `json:"settlementWallet"`

	// SettlementToken is the asset the merchant expects. NativeToken means
	// the merchant accepts the native asset.
	SettlementToken common.Address `json:"settlementToken"`

	// SwapEnabled lets the merchant accept native funds even when
	// SettlementToken names a fungible asset. No conversion is performed.
	SwapEnabled bool `json:"swapEnabled"`

	Name string `json:"name" validate:"required,max=32"`
}

// Payment is the permanent receipt created once per settled payment. Its key,
// (Payer, PaymentID), doubles as the replay guard: creation at an occupied
// key fails with DUPLICATE_PAYMENT.
type Payment struct {
	Payer         common.Address `json:"payer"`
	MerchantOwner common.Address `json:"merchantOwner"`
	MerchantName  string         `json:"merchantName"`

	// Amount is the gross amount, pre-fee.
	Amount uint64 `json:"amount"`
	Fee    uint64 `json:"fee"`

	// Token is the settled asset, or NativeToken for native payments.
	Token common.Address `json:"token"`

	PaymentID uint64 `json:"paymentId"`
	Timestamp int64  `json:"timestamp"`
}

// TokenAccount is a fungible-asset holding account: a balance of one mint
// controlled by one owner.
type TokenAccount struct {
	Address common.Address `json:"address"`
	Mint    common.Address `json:"mint"`
	Owner   common.Address `json:"owner"`
	Balance uint64         `json:"balance"`
}

// AssetContext selects exactly one settlement path. The two implementations
// are NativeContext and TokenContext; the router's type switch is the
// exhaustive match over the pair.
type AssetContext interface {
	assetContext()
}

// NativeContext settles in the native asset. The caller supplies the
// destination addresses; the router checks them against the merchant record
// and the global fee collector.
type NativeContext struct {
	MerchantWallet common.Address `json:"merchantWallet"`
	FeeWallet      common.Address `json:"feeWallet"`
}

func (*NativeContext) assetContext() {}

// TokenContext settles in a fungible asset. All three holding accounts must
// exist and carry the supplied mint.
type TokenContext struct {
	Mint            common.Address `json:"mint"`
	PayerAccount    common.Address `json:"payerAccount"`
	MerchantAccount common.Address `json:"merchantAccount"`
	FeeAccount      common.Address `json:"feeAccount"`
}

func (*TokenContext) assetContext() {}

// PaymentRequest is the settlement entry-point input.
type PaymentRequest struct {
	// Amount is the gross amount in atomic units.
	Amount uint64 `json:"amount" validate:"required,gt=0"`

	// PaymentID is chosen by the caller and must be unique per payer.
	PaymentID uint64 `json:"paymentId"`

	MerchantOwner common.Address `json:"merchantOwner"`
	MerchantName  string         `json:"merchantName" validate:"required,max=32"`

	// Asset picks the settlement path.
	Asset AssetContext `json:"-"`
}

// Token returns the asset identifier the request settles in: the mint for
// token payments, NativeToken otherwise.
func (r *PaymentRequest) Token() common.Address {
	if tc, ok := r.Asset.(*TokenContext); ok {
		return tc.Mint
	}
	return NativeToken
}

// RegisterRequest creates a merchant profile.
type RegisterRequest struct {
	SettlementWallet common.Address `json:"settlementWallet"`
	SettlementToken  common.Address `json:"settlementToken"`
	Name             string         `json:"name" validate:"required,max=32"`
}

// UpdateRequest mutates a merchant profile. Nil fields are left unchanged.
type UpdateRequest struct {
	NewName          *string         `json:"newName,omitempty" validate:"omitempty,max=32"`
	SettlementWallet *common.Address `json:"settlementWallet,omitempty"`
	SettlementToken  *common.Address `json:"settlementToken,omitempty"`
	SwapEnabled      *bool           `json:"swapEnabled,omitempty"`
}
