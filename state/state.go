// Package state is the gateway's keyed-record store: the host environment
// that holds the configuration singleton, merchant profiles, payment
// receipts, and balances. Every mutation runs inside a single Update whose
// writes commit all-or-nothing; payment creation is insert-if-absent, which
// is what makes the (payer, payment_id) key a replay guard.
package state

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orkipay/gateway/types"
)

// Tx exposes the record operations available inside a transaction. Reads see
// writes staged earlier in the same transaction.
type Tx interface {
	// GlobalConfig returns the configuration singleton, or NOT_INITIALIZED.
	GlobalConfig() (*types.GlobalConfig, error)
	// CreateGlobalConfig creates the singleton, or ALREADY_INITIALIZED.
	CreateGlobalConfig(cfg *types.GlobalConfig) error
	PutGlobalConfig(cfg *types.GlobalConfig) error

	// Merchant loads a profile by (owner, name), or MERCHANT_NOT_FOUND. The
	// name here is the registration name, which keys the record for life;
	// the record's display Name may drift from it after renames.
	Merchant(owner common.Address, name string) (*types.Merchant, error)
	// CreateMerchant inserts a new profile keyed by (m.Owner, m.Name), or
	// MERCHANT_EXISTS.
	CreateMerchant(m *types.Merchant) error
	// PutMerchant writes m at the (owner, name) key.
	PutMerchant(owner common.Address, name string, m *types.Merchant) error

	// Payment loads a receipt by (payer, paymentID), or PAYMENT_NOT_FOUND.
	Payment(payer common.Address, paymentID uint64) (*types.Payment, error)
	// CreatePayment inserts a receipt at its (payer, paymentID) key and
	// fails with DUPLICATE_PAYMENT when the key is already occupied.
	CreatePayment(p *types.Payment) error

	// NativeBalance returns the native-asset balance of addr (zero when the
	// address has never been funded).
	NativeBalance(addr common.Address) (uint64, error)
	CreditNative(addr common.Address, amount uint64) error
	// DebitNative subtracts amount, or INSUFFICIENT_BALANCE.
	DebitNative(addr common.Address, amount uint64) error

	// TokenAccount loads a holding account, or MISSING_ACCOUNT.
	TokenAccount(addr common.Address) (*types.TokenAccount, error)
	PutTokenAccount(acct *types.TokenAccount) error
}

// Store is a transactional keyed-record store.
type Store interface {
	// View runs fn read-only.
	View(fn func(Tx) error) error
	// Update runs fn and commits its writes only when fn returns nil; any
	// error discards every staged write.
	Update(fn func(Tx) error) error
	Close() error
}

func merchantKey(owner common.Address, name string) []byte {
	// Owner is fixed-width, so appending the name is unambiguous.
	key := make([]byte, 0, common.AddressLength+len(name))
	key = append(key, owner.Bytes()...)
	return append(key, name...)
}

func paymentKey(payer common.Address, paymentID uint64) []byte {
	key := make([]byte, common.AddressLength+8)
	copy(key, payer.Bytes())
	binary.BigEndian.PutUint64(key[common.AddressLength:], paymentID)
	return key
}

func creditBalance(balance, amount uint64) (uint64, error) {
	next := balance + amount
	if next < balance {
		return 0, types.NewError(types.ErrCalculationError, "balance overflow")
	}
	return next, nil
}

func debitBalance(balance, amount uint64) (uint64, error) {
	if balance < amount {
		return 0, types.NewError(types.ErrInsufficientBalance, "balance %d below %d", balance, amount)
	}
	return balance - amount, nil
}

func errNotInitialized() error {
	return types.NewError(types.ErrNotInitialized, "global configuration has not been bootstrapped")
}

func errAlreadyInitialized() error {
	return types.NewError(types.ErrAlreadyInitialized, "global configuration already exists")
}

func errMerchantNotFound(owner common.Address, name string) error {
	return types.NewError(types.ErrMerchantNotFound, "no merchant %q for owner %s", name, owner.Hex())
}

func errMerchantExists(owner common.Address, name string) error {
	return types.NewError(types.ErrMerchantExists, "merchant %q already registered for owner %s", name, owner.Hex())
}

func errDuplicatePayment(payer common.Address, paymentID uint64) error {
	return types.NewError(types.ErrDuplicatePayment, "payment %d by %s already recorded", paymentID, payer.Hex())
}

func errPaymentNotFound(payer common.Address, paymentID uint64) error {
	return types.NewError(types.ErrPaymentNotFound, "no payment %d by %s", paymentID, payer.Hex())
}

func errMissingAccount(addr common.Address) error {
	return types.NewError(types.ErrMissingAccount, "no token account at %s", addr.Hex())
}
