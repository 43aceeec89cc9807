// Package settlement implements the payment-settlement state machine: fee
// computation, dual-path transfer routing, merchant compatibility checks,
// and idempotent payment recording. This is the only code path that moves
// value.
package settlement

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orkipay/gateway/events"
	"github.com/orkipay/gateway/fee"
	"github.com/orkipay/gateway/logger"
	"github.com/orkipay/gateway/metrics"
	"github.com/orkipay/gateway/state"
	"github.com/orkipay/gateway/types"
)

const (
	assetClassNative = "native"
	assetClassToken  = "token"
)

// Engine routes payments to the native or token settlement path and records
// the receipt. Every settlement runs inside one store transaction: either
// all of it commits (transfers, receipt) or none of it does.
type Engine struct {
	store   state.Store
	log     logger.Logger
	metrics metrics.Recorder
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates an engine with no-op logging, metrics, and events.
func NewEngine(store state.Store) *Engine {
	return &Engine{
		store:   store,
		log:     logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetLogger configures the engine's logger. Nil resets to no-op.
func (e *Engine) SetLogger(log logger.Logger) {
	if log == nil {
		e.log = logger.NoopLogger{}
		return
	}
	e.log = log
}

// SetMetrics configures the engine's metrics recorder. Nil resets to no-op.
func (e *Engine) SetMetrics(rec metrics.Recorder) {
	if rec == nil {
		e.metrics = metrics.NoopRecorder{}
		return
	}
	e.metrics = rec
}

// SetEmitter configures the event emitter. Nil resets to no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the timestamp source. Primarily for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// Settle executes a payment by payer against req. On success the returned
// receipt has been persisted at the (payer, paymentID) key and a
// payment.processed event emitted. The precondition order is fixed: pause
// gate, amount, fee split, merchant resolution, path validation, transfers,
// receipt creation.
func (e *Engine) Settle(ctx context.Context, payer common.Address, req *types.PaymentRequest) (*types.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	var (
		receipt    *types.Payment
		feeAmount  uint64
		assetClass = assetClassNative
	)
	if _, ok := req.Asset.(*types.TokenContext); ok {
		assetClass = assetClassToken
	}

	err := e.store.Update(func(tx state.Tx) error {
		cfg, err := tx.GlobalConfig()
		if err != nil {
			return err
		}
		if cfg.Paused {
			return types.NewError(types.ErrPaused, "settlement is paused")
		}
		if req.Amount == 0 {
			return types.NewError(types.ErrInvalidAmount, "amount must be positive")
		}

		feeAmt, merchantAmt, err := fee.Split(req.Amount, cfg.FeeBps)
		if err != nil {
			return err
		}
		feeAmount = feeAmt

		merchant, err := tx.Merchant(req.MerchantOwner, req.MerchantName)
		if err != nil {
			return err
		}

		switch asset := req.Asset.(type) {
		case *types.TokenContext:
			err = e.settleToken(tx, payer, merchant, asset, req.Amount, feeAmt, merchantAmt)
		case *types.NativeContext:
			err = e.settleNative(tx, cfg, payer, merchant, asset, req.Amount, feeAmt, merchantAmt)
		default:
			err = types.NewError(types.ErrMissingAccount, "no asset context supplied")
		}
		if err != nil {
			return err
		}

		receipt = &types.Payment{
			Payer:         payer,
			MerchantOwner: merchant.Owner,
			MerchantName:  req.MerchantName,
			Amount:        req.Amount,
			Fee:           feeAmt,
			Token:         req.Token(),
			PaymentID:     req.PaymentID,
			Timestamp:     e.nowFn(),
		}
		// The sole replay defense: creation fails deterministically when
		// the (payer, paymentID) key is occupied.
		return tx.CreatePayment(receipt)
	})

	e.metrics.ObserveLatency(metrics.LatencySettle, time.Since(start), map[string]string{
		metrics.LabelAsset: assetClass,
	})
	if err != nil {
		e.metrics.IncCounter(metrics.CounterPaymentErrors, map[string]string{
			metrics.LabelAsset:  assetClass,
			metrics.LabelResult: types.ErrCode(err),
		})
		return nil, err
	}

	e.metrics.IncCounter(metrics.CounterPayments, map[string]string{
		metrics.LabelAsset:  assetClass,
		metrics.LabelResult: "ok",
	})
	e.log.Info("payment settled", map[string]any{
		"payer":     payer.Hex(),
		"merchant":  req.MerchantName,
		"amount":    req.Amount,
		"fee":       feeAmount,
		"paymentId": req.PaymentID,
		"asset":     assetClass,
	})
	e.emitter.Emit(events.PaymentProcessed{
		Payer:         receipt.Payer,
		MerchantOwner: receipt.MerchantOwner,
		MerchantName:  receipt.MerchantName,
		Amount:        receipt.Amount,
		Fee:           receipt.Fee,
		Token:         receipt.Token,
		PaymentID:     receipt.PaymentID,
		Timestamp:     receipt.Timestamp,
	})
	return receipt, nil
}

// settleNative pays the merchant in the native asset. The merchant must
// either expect native settlement or have opted into receiving native funds
// via the swap flag; no conversion is performed either way.
func (e *Engine) settleNative(
	tx state.Tx,
	cfg *types.GlobalConfig,
	payer common.Address,
	merchant *types.Merchant,
	asset *types.NativeContext,
	amount, feeAmt, merchantAmt uint64,
) error {
	if !types.IsNativeToken(merchant.SettlementToken) && !merchant.SwapEnabled {
		return types.NewError(types.ErrInvalidToken, "merchant %q expects token settlement", merchant.Name)
	}
	if asset.MerchantWallet != merchant.SettlementWallet {
		return types.NewError(types.ErrInvalidMerchantWallet, "wallet %s does not match merchant settlement wallet", asset.MerchantWallet.Hex())
	}
	if asset.FeeWallet != cfg.FeeCollector {
		return types.NewError(types.ErrInvalidFeeWallet, "wallet %s does not match fee collector", asset.FeeWallet.Hex())
	}

	balance, err := tx.NativeBalance(payer)
	if err != nil {
		return err
	}
	if balance < amount {
		return types.NewError(types.ErrInsufficientBalance, "payer balance %d below %d", balance, amount)
	}

	// Fee leg first, merchant leg second. A zero fee still runs its leg.
	if err := transferNative(tx, payer, asset.FeeWallet, feeAmt); err != nil {
		return err
	}
	return transferNative(tx, payer, asset.MerchantWallet, merchantAmt)
}

// settleToken pays the merchant in a fungible asset through the three
// holding accounts named in the context.
func (e *Engine) settleToken(
	tx state.Tx,
	payer common.Address,
	merchant *types.Merchant,
	asset *types.TokenContext,
	amount, feeAmt, merchantAmt uint64,
) error {
	if asset.Mint == (common.Address{}) {
		return types.NewError(types.ErrMissingMint, "token settlement requires a mint")
	}
	for _, holding := range []common.Address{asset.PayerAccount, asset.MerchantAccount, asset.FeeAccount} {
		if holding == (common.Address{}) {
			return types.NewError(types.ErrMissingAccount, "token settlement requires payer, merchant, and fee accounts")
		}
	}

	if !types.IsNativeToken(merchant.SettlementToken) && merchant.SettlementToken != asset.Mint {
		return types.NewError(types.ErrInvalidToken, "mint %s does not match merchant settlement token", asset.Mint.Hex())
	}

	payerAcct, err := tx.TokenAccount(asset.PayerAccount)
	if err != nil {
		return err
	}
	merchantAcct, err := tx.TokenAccount(asset.MerchantAccount)
	if err != nil {
		return err
	}
	feeAcct, err := tx.TokenAccount(asset.FeeAccount)
	if err != nil {
		return err
	}

	for _, acct := range []*types.TokenAccount{payerAcct, merchantAcct, feeAcct} {
		if acct.Mint != asset.Mint {
			return types.NewError(types.ErrInvalidTokenAccount, "account %s holds mint %s", acct.Address.Hex(), acct.Mint.Hex())
		}
	}
	if payerAcct.Owner != payer {
		return types.NewError(types.ErrInvalidTokenAccount, "account %s is not owned by payer", payerAcct.Address.Hex())
	}

	if payerAcct.Balance < amount {
		return types.NewError(types.ErrInsufficientBalance, "payer token balance %d below %d", payerAcct.Balance, amount)
	}

	if err := transferToken(tx, asset.PayerAccount, asset.FeeAccount, feeAmt); err != nil {
		return err
	}
	return transferToken(tx, asset.PayerAccount, asset.MerchantAccount, merchantAmt)
}

func transferNative(tx state.Tx, from, to common.Address, amount uint64) error {
	if err := tx.DebitNative(from, amount); err != nil {
		return err
	}
	return tx.CreditNative(to, amount)
}

// transferToken reloads both accounts so consecutive transfers observe each
// other's staged writes.
func transferToken(tx state.Tx, from, to common.Address, amount uint64) error {
	src, err := tx.TokenAccount(from)
	if err != nil {
		return err
	}
	if src.Balance < amount {
		return types.NewError(types.ErrInsufficientBalance, "token balance %d below %d", src.Balance, amount)
	}
	src.Balance -= amount
	if err := tx.PutTokenAccount(src); err != nil {
		return err
	}

	dst, err := tx.TokenAccount(to)
	if err != nil {
		return err
	}
	next := dst.Balance + amount
	if next < dst.Balance {
		return types.NewError(types.ErrCalculationError, "token balance overflow on %s", dst.Address.Hex())
	}
	dst.Balance = next
	return tx.PutTokenAccount(dst)
}
