package gateway

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orkipay/gateway/events"
	"github.com/orkipay/gateway/state"
	"github.com/orkipay/gateway/types"
)

var (
	adminKey  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	feeWallet = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	merchant  = common.HexToAddress("0x0000000000000000000000000000000000000011")
	shopAddr  = common.HexToAddress("0x0000000000000000000000000000000000000012")
	payer     = common.HexToAddress("0x00000000000000000000000000000000000000d1")
)

func newGateway(t *testing.T, cfg *Config) *Gateway {
	t.Helper()
	g, err := New(cfg, WithClock(func() int64 { return 1_700_000_000 }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func bootstrapShop(t *testing.T, g *Gateway) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, g.Bootstrap(ctx, adminKey, 100, feeWallet))
	_, err := g.RegisterMerchant(ctx, merchant, &types.RegisterRequest{
		SettlementWallet: shopAddr,
		Name:             "shop",
	})
	require.NoError(t, err)
	require.NoError(t, g.Store().Update(func(tx state.Tx) error {
		return tx.CreditNative(payer, 50_000)
	}))
}

func payShop(paymentID uint64, amount uint64) *types.PaymentRequest {
	return &types.PaymentRequest{
		Amount:        amount,
		PaymentID:     paymentID,
		MerchantOwner: merchant,
		MerchantName:  "shop",
		Asset: &types.NativeContext{
			MerchantWallet: shopAddr,
			FeeWallet:      feeWallet,
		},
	}
}

func TestGatewayEndToEnd(t *testing.T) {
	g := newGateway(t, nil)
	bootstrapShop(t, g)
	ctx := context.Background()

	receipt, err := g.ProcessPayment(ctx, payer, payShop(1, 10_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(100), receipt.Fee)
	assert.Equal(t, uint64(10_000), receipt.Amount)

	// One receipt on record, retrievable by key.
	stored, err := g.Payment(ctx, payer, 1)
	require.NoError(t, err)
	assert.Equal(t, receipt, stored)

	// Merchant got the net, the collector got the fee.
	require.NoError(t, g.Store().View(func(tx state.Tx) error {
		shop, err := tx.NativeBalance(shopAddr)
		require.NoError(t, err)
		assert.Equal(t, uint64(9_900), shop)

		fee, err := tx.NativeBalance(feeWallet)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), fee)
		return nil
	}))

	// One registration event and one payment event on the bus.
	env := <-g.Events()
	assert.Equal(t, events.TypeConfigInitialized, env.Type)
	env = <-g.Events()
	assert.Equal(t, events.TypeMerchantRegistered, env.Type)
	env = <-g.Events()
	assert.Equal(t, events.TypePaymentProcessed, env.Type)

	// The same payment identifier cannot settle twice.
	_, err = g.ProcessPayment(ctx, payer, payShop(1, 10_000))
	assert.Equal(t, types.ErrDuplicatePayment, types.ErrCode(err))
	assert.Len(t, g.Events(), 0)
}

func TestGatewayAdminSurface(t *testing.T) {
	g := newGateway(t, nil)
	bootstrapShop(t, g)
	ctx := context.Background()

	require.NoError(t, g.SetFee(ctx, adminKey, 250))
	cfg, err := g.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(250), cfg.FeeBps)

	receipt, err := g.ProcessPayment(ctx, payer, payShop(1, 10_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(250), receipt.Fee)

	require.NoError(t, g.SetPaused(ctx, adminKey, true))
	_, err = g.ProcessPayment(ctx, payer, payShop(2, 10_000))
	assert.Equal(t, types.ErrPaused, types.ErrCode(err))

	require.NoError(t, g.SetPaused(ctx, adminKey, false))
	_, err = g.ProcessPayment(ctx, payer, payShop(2, 10_000))
	require.NoError(t, err)

	// A non-admin caller cannot mutate anything.
	err = g.SetFee(ctx, payer, 1)
	assert.Equal(t, types.ErrUnauthorized, types.ErrCode(err))
}

func TestGatewayMerchantSurface(t *testing.T) {
	g := newGateway(t, nil)
	bootstrapShop(t, g)
	ctx := context.Background()

	newName := "corner shop"
	swap := true
	updated, err := g.UpdateMerchant(ctx, merchant, "shop", &types.UpdateRequest{
		NewName:     &newName,
		SwapEnabled: &swap,
	})
	require.NoError(t, err)
	assert.Equal(t, "corner shop", updated.Name)
	assert.True(t, updated.SwapEnabled)

	// The registration key never changes, whatever the display name says.
	m, err := g.Merchant(ctx, merchant, "shop")
	require.NoError(t, err)
	assert.Equal(t, "corner shop", m.Name)
}

func TestGatewayBoltPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.db")
	ctx := context.Background()

	g, err := New(&Config{StorePath: path})
	require.NoError(t, err)
	require.NoError(t, g.Bootstrap(ctx, adminKey, 100, feeWallet))
	_, err = g.RegisterMerchant(ctx, merchant, &types.RegisterRequest{
		SettlementWallet: shopAddr,
		Name:             "shop",
	})
	require.NoError(t, err)
	require.NoError(t, g.Store().Update(func(tx state.Tx) error {
		return tx.CreditNative(payer, 20_000)
	}))
	_, err = g.ProcessPayment(ctx, payer, payShop(1, 10_000))
	require.NoError(t, err)
	require.NoError(t, g.Close())

	// Everything survives a reopen, including the replay guard.
	g, err = New(&Config{StorePath: path})
	require.NoError(t, err)
	defer g.Close()

	receipt, err := g.Payment(ctx, payer, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), receipt.Fee)

	_, err = g.ProcessPayment(ctx, payer, payShop(1, 10_000))
	assert.Equal(t, types.ErrDuplicatePayment, types.ErrCode(err))

	// The replayed settlement rolled back both transfer legs.
	require.NoError(t, g.Store().View(func(tx state.Tx) error {
		balance, err := tx.NativeBalance(payer)
		require.NoError(t, err)
		assert.Equal(t, uint64(10_000), balance)
		return nil
	}))
}

func TestGatewayCustomEmitterDisablesBus(t *testing.T) {
	g, err := New(nil, WithEmitter(events.NoopEmitter{}))
	require.NoError(t, err)
	defer g.Close()

	assert.Nil(t, g.Events())
}
