package state

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orkipay/gateway/types"
)

// MemoryStore keeps every record in process memory. Transactions stage their
// writes in an overlay and merge it under the store lock only when the
// callback succeeds, so a failed settlement leaves no trace. Suited to tests
// and single-process deployments; use BoltStore for durability.
type MemoryStore struct {
	mu        sync.RWMutex
	config    *types.GlobalConfig
	merchants map[string]types.Merchant
	payments  map[string]types.Payment
	native    map[common.Address]uint64
	tokens    map[common.Address]types.TokenAccount
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		merchants: make(map[string]types.Merchant),
		payments:  make(map[string]types.Payment),
		native:    make(map[common.Address]uint64),
		tokens:    make(map[common.Address]types.TokenAccount),
	}
}

func (s *MemoryStore) View(fn func(Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{store: s})
}

func (s *MemoryStore) Update(fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		store:     s,
		writable:  true,
		merchants: make(map[string]types.Merchant),
		payments:  make(map[string]types.Payment),
		native:    make(map[common.Address]uint64),
		tokens:    make(map[common.Address]types.TokenAccount),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// memTx overlays staged writes on the base maps. Reads consult the overlay
// first so a transaction observes its own writes.
type memTx struct {
	store    *MemoryStore
	writable bool

	config    *types.GlobalConfig
	configSet bool
	merchants map[string]types.Merchant
	payments  map[string]types.Payment
	native    map[common.Address]uint64
	tokens    map[common.Address]types.TokenAccount
}

func (tx *memTx) requireWritable() error {
	if !tx.writable {
		return types.NewError(types.ErrStoreError, "write attempted in read-only transaction")
	}
	return nil
}

func (tx *memTx) commit() {
	s := tx.store
	if tx.configSet {
		cfg := *tx.config
		s.config = &cfg
	}
	for k, v := range tx.merchants {
		s.merchants[k] = v
	}
	for k, v := range tx.payments {
		s.payments[k] = v
	}
	for k, v := range tx.native {
		s.native[k] = v
	}
	for k, v := range tx.tokens {
		s.tokens[k] = v
	}
}

func (tx *memTx) GlobalConfig() (*types.GlobalConfig, error) {
	if tx.configSet {
		cfg := *tx.config
		return &cfg, nil
	}
	if tx.store.config == nil {
		return nil, errNotInitialized()
	}
	cfg := *tx.store.config
	return &cfg, nil
}

func (tx *memTx) CreateGlobalConfig(cfg *types.GlobalConfig) error {
	if tx.configSet || tx.store.config != nil {
		return errAlreadyInitialized()
	}
	return tx.PutGlobalConfig(cfg)
}

func (tx *memTx) PutGlobalConfig(cfg *types.GlobalConfig) error {
	if err := tx.requireWritable(); err != nil {
		return err
	}
	clone := *cfg
	tx.config = &clone
	tx.configSet = true
	return nil
}

func (tx *memTx) Merchant(owner common.Address, name string) (*types.Merchant, error) {
	key := string(merchantKey(owner, name))
	if m, ok := tx.merchants[key]; ok {
		return &m, nil
	}
	if m, ok := tx.store.merchants[key]; ok {
		return &m, nil
	}
	return nil, errMerchantNotFound(owner, name)
}

func (tx *memTx) CreateMerchant(m *types.Merchant) error {
	if err := tx.requireWritable(); err != nil {
		return err
	}
	key := string(merchantKey(m.Owner, m.Name))
	if _, ok := tx.merchants[key]; ok {
		return errMerchantExists(m.Owner, m.Name)
	}
	if _, ok := tx.store.merchants[key]; ok {
		return errMerchantExists(m.Owner, m.Name)
	}
	tx.merchants[key] = *m
	return nil
}

func (tx *memTx) PutMerchant(owner common.Address, name string, m *types.Merchant) error {
	if err := tx.requireWritable(); err != nil {
		return err
	}
	tx.merchants[string(merchantKey(owner, name))] = *m
	return nil
}

func (tx *memTx) Payment(payer common.Address, paymentID uint64) (*types.Payment, error) {
	key := string(paymentKey(payer, paymentID))
	if p, ok := tx.payments[key]; ok {
		return &p, nil
	}
	if p, ok := tx.store.payments[key]; ok {
		return &p, nil
	}
	return nil, errPaymentNotFound(payer, paymentID)
}

func (tx *memTx) CreatePayment(p *types.Payment) error {
	if err := tx.requireWritable(); err != nil {
		return err
	}
	key := string(paymentKey(p.Payer, p.PaymentID))
	if _, ok := tx.payments[key]; ok {
		return errDuplicatePayment(p.Payer, p.PaymentID)
	}
	if _, ok := tx.store.payments[key]; ok {
		return errDuplicatePayment(p.Payer, p.PaymentID)
	}
	tx.payments[key] = *p
	return nil
}

func (tx *memTx) NativeBalance(addr common.Address) (uint64, error) {
	if bal, ok := tx.native[addr]; ok {
		return bal, nil
	}
	return tx.store.native[addr], nil
}

func (tx *memTx) CreditNative(addr common.Address, amount uint64) error {
	if err := tx.requireWritable(); err != nil {
		return err
	}
	bal, err := tx.NativeBalance(addr)
	if err != nil {
		return err
	}
	next, err := creditBalance(bal, amount)
	if err != nil {
		return err
	}
	tx.native[addr] = next
	return nil
}

func (tx *memTx) DebitNative(addr common.Address, amount uint64) error {
	if err := tx.requireWritable(); err != nil {
		return err
	}
	bal, err := tx.NativeBalance(addr)
	if err != nil {
		return err
	}
	next, err := debitBalance(bal, amount)
	if err != nil {
		return err
	}
	tx.native[addr] = next
	return nil
}

func (tx *memTx) TokenAccount(addr common.Address) (*types.TokenAccount, error) {
	if acct, ok := tx.tokens[addr]; ok {
		return &acct, nil
	}
	if acct, ok := tx.store.tokens[addr]; ok {
		return &acct, nil
	}
	return nil, errMissingAccount(addr)
}

func (tx *memTx) PutTokenAccount(acct *types.TokenAccount) error {
	if err := tx.requireWritable(); err != nil {
		return err
	}
	tx.tokens[acct.Address] = *acct
	return nil
}
