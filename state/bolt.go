package state

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	bolt "go.etcd.io/bbolt"

	"github.com/orkipay/gateway/types"
)

var (
	bucketConfig        = []byte("config")
	bucketMerchants     = []byte("merchants")
	bucketPayments      = []byte("payments")
	bucketNative        = []byte("native_balances")
	bucketTokenAccounts = []byte("token_accounts")

	keyGlobalConfig = []byte("global")
)

// BoltStore persists records in a bbolt database. Atomicity comes straight
// from bbolt's transactional Update; writers are serialized, which also
// serializes racing payment creations at the same key.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (and initializes) the database at path.
func NewBoltStore(path string, options *bolt.Options) (*BoltStore, error) {
	if options == nil {
		options = &bolt.Options{Timeout: time.Second}
	}
	db, err := bolt.Open(path, 0o600, options)
	if err != nil {
		return nil, types.NewError(types.ErrStoreError, "open %s: %v", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketConfig, bucketMerchants, bucketPayments, bucketNative, bucketTokenAccounts} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, types.NewError(types.ErrStoreError, "initialize %s: %v", path, err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) View(fn func(Tx) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (s *BoltStore) Update(fn func(Tx) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type boltTx struct {
	tx *bolt.Tx
}

func (t *boltTx) getJSON(bucket, key []byte, out interface{}) (bool, error) {
	raw := t.tx.Bucket(bucket).Get(key)
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, types.NewError(types.ErrStoreError, "decode record: %v", err)
	}
	return true, nil
}

func (t *boltTx) putJSON(bucket, key []byte, in interface{}) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return types.NewError(types.ErrStoreError, "encode record: %v", err)
	}
	if err := t.tx.Bucket(bucket).Put(key, raw); err != nil {
		return types.NewError(types.ErrStoreError, "write record: %v", err)
	}
	return nil
}

func (t *boltTx) GlobalConfig() (*types.GlobalConfig, error) {
	var cfg types.GlobalConfig
	found, err := t.getJSON(bucketConfig, keyGlobalConfig, &cfg)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errNotInitialized()
	}
	return &cfg, nil
}

func (t *boltTx) CreateGlobalConfig(cfg *types.GlobalConfig) error {
	if t.tx.Bucket(bucketConfig).Get(keyGlobalConfig) != nil {
		return errAlreadyInitialized()
	}
	return t.putJSON(bucketConfig, keyGlobalConfig, cfg)
}

func (t *boltTx) PutGlobalConfig(cfg *types.GlobalConfig) error {
	return t.putJSON(bucketConfig, keyGlobalConfig, cfg)
}

func (t *boltTx) Merchant(owner common.Address, name string) (*types.Merchant, error) {
	var m types.Merchant
	found, err := t.getJSON(bucketMerchants, merchantKey(owner, name), &m)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errMerchantNotFound(owner, name)
	}
	return &m, nil
}

func (t *boltTx) CreateMerchant(m *types.Merchant) error {
	key := merchantKey(m.Owner, m.Name)
	if t.tx.Bucket(bucketMerchants).Get(key) != nil {
		return errMerchantExists(m.Owner, m.Name)
	}
	return t.putJSON(bucketMerchants, key, m)
}

func (t *boltTx) PutMerchant(owner common.Address, name string, m *types.Merchant) error {
	return t.putJSON(bucketMerchants, merchantKey(owner, name), m)
}

func (t *boltTx) Payment(payer common.Address, paymentID uint64) (*types.Payment, error) {
	var p types.Payment
	found, err := t.getJSON(bucketPayments, paymentKey(payer, paymentID), &p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errPaymentNotFound(payer, paymentID)
	}
	return &p, nil
}

func (t *boltTx) CreatePayment(p *types.Payment) error {
	key := paymentKey(p.Payer, p.PaymentID)
	if t.tx.Bucket(bucketPayments).Get(key) != nil {
		return errDuplicatePayment(p.Payer, p.PaymentID)
	}
	return t.putJSON(bucketPayments, key, p)
}

func (t *boltTx) NativeBalance(addr common.Address) (uint64, error) {
	raw := t.tx.Bucket(bucketNative).Get(addr.Bytes())
	if raw == nil {
		return 0, nil
	}
	if len(raw) != 8 {
		return 0, types.NewError(types.ErrStoreError, "corrupt balance record for %s", addr.Hex())
	}
	return binary.BigEndian.Uint64(raw), nil
}

func (t *boltTx) putNativeBalance(addr common.Address, balance uint64) error {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, balance)
	if err := t.tx.Bucket(bucketNative).Put(addr.Bytes(), raw); err != nil {
		return types.NewError(types.ErrStoreError, "write balance: %v", err)
	}
	return nil
}

func (t *boltTx) CreditNative(addr common.Address, amount uint64) error {
	bal, err := t.NativeBalance(addr)
	if err != nil {
		return err
	}
	next, err := creditBalance(bal, amount)
	if err != nil {
		return err
	}
	return t.putNativeBalance(addr, next)
}

func (t *boltTx) DebitNative(addr common.Address, amount uint64) error {
	bal, err := t.NativeBalance(addr)
	if err != nil {
		return err
	}
	next, err := debitBalance(bal, amount)
	if err != nil {
		return err
	}
	return t.putNativeBalance(addr, next)
}

func (t *boltTx) TokenAccount(addr common.Address) (*types.TokenAccount, error) {
	var acct types.TokenAccount
	found, err := t.getJSON(bucketTokenAccounts, addr.Bytes(), &acct)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errMissingAccount(addr)
	}
	return &acct, nil
}

func (t *boltTx) PutTokenAccount(acct *types.TokenAccount) error {
	return t.putJSON(bucketTokenAccounts, acct.Address.Bytes(), acct)
}
