package registry

import (
	"context"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orkipay/gateway/events"
	"github.com/orkipay/gateway/state"
	"github.com/orkipay/gateway/types"
)

var (
	ownerAddr  = common.HexToAddress("0x0000000000000000000000000000000000000111")
	walletAddr = common.HexToAddress("0x0000000000000000000000000000000000000222")
	mintAddr   = common.HexToAddress("0x0000000000000000000000000000000000000333")
)

func newRegistry(t *testing.T, cfg Config) (*Service, *events.Bus) {
	t.Helper()
	bus := events.NewBus(16)
	svc := NewService(state.NewMemoryStore(), bus, nil, cfg)
	svc.SetNowFunc(func() int64 { return 1_700_000_000 })
	return svc, bus
}

func TestRegister(t *testing.T) {
	svc, bus := newRegistry(t, Config{})
	ctx := context.Background()

	m, err := svc.Register(ctx, ownerAddr, &types.RegisterRequest{
		SettlementWallet: walletAddr,
		Name:             "shop",
	})
	require.NoError(t, err)
	assert.Equal(t, ownerAddr, m.Owner)
	assert.False(t, m.SwapEnabled, "swap opt-in must start off")
	assert.True(t, types.IsNativeToken(m.SettlementToken))

	env := <-bus.Events()
	assert.Equal(t, events.TypeMerchantRegistered, env.Type)

	_, err = svc.Register(ctx, ownerAddr, &types.RegisterRequest{Name: "shop"})
	assert.Equal(t, types.ErrMerchantExists, types.ErrCode(err))
}

func TestRegisterRejectsLongName(t *testing.T) {
	svc, _ := newRegistry(t, Config{})
	_, err := svc.Register(context.Background(), ownerAddr, &types.RegisterRequest{
		Name: strings.Repeat("x", 33),
	})
	assert.Equal(t, types.ErrNameTooLong, types.ErrCode(err))

	// 32 characters is the inclusive bound.
	_, err = svc.Register(context.Background(), ownerAddr, &types.RegisterRequest{
		Name: strings.Repeat("x", 32),
	})
	require.NoError(t, err)
}

func TestUpdatePartialMutation(t *testing.T) {
	svc, bus := newRegistry(t, Config{})
	ctx := context.Background()

	_, err := svc.Register(ctx, ownerAddr, &types.RegisterRequest{
		SettlementWallet: walletAddr,
		Name:             "shop",
	})
	require.NoError(t, err)
	<-bus.Events()

	swap := true
	m, err := svc.Update(ctx, ownerAddr, "shop", &types.UpdateRequest{
		SettlementToken: &mintAddr,
		SwapEnabled:     &swap,
	})
	require.NoError(t, err)
	assert.Equal(t, mintAddr, m.SettlementToken)
	assert.True(t, m.SwapEnabled)
	assert.Equal(t, walletAddr, m.SettlementWallet, "unspecified field must be untouched")

	env := <-bus.Events()
	evt, ok := env.Event.(events.MerchantUpdated)
	require.True(t, ok)
	assert.Equal(t, "shop", evt.OldName)
	assert.Nil(t, evt.NewName)
	require.NotNil(t, evt.SwapEnabled)
	assert.True(t, *evt.SwapEnabled)
}

func TestUpdateRenameKeepsRegistrationKey(t *testing.T) {
	svc, _ := newRegistry(t, Config{})
	ctx := context.Background()

	_, err := svc.Register(ctx, ownerAddr, &types.RegisterRequest{Name: "shop"})
	require.NoError(t, err)

	newName := "espresso bar"
	m, err := svc.Update(ctx, ownerAddr, "shop", &types.UpdateRequest{NewName: &newName})
	require.NoError(t, err)
	assert.Equal(t, "espresso bar", m.Name)

	// Still addressable under the registration name.
	got, err := svc.Merchant(ctx, ownerAddr, "shop")
	require.NoError(t, err)
	assert.Equal(t, "espresso bar", got.Name)
}

func TestUpdateUnknownMerchant(t *testing.T) {
	svc, _ := newRegistry(t, Config{})
	_, err := svc.Update(context.Background(), ownerAddr, "ghost", &types.UpdateRequest{})
	assert.Equal(t, types.ErrMerchantNotFound, types.ErrCode(err))
}

func TestLockedSettlementToken(t *testing.T) {
	svc, _ := newRegistry(t, Config{LockSettlementToken: true})
	ctx := context.Background()

	_, err := svc.Register(ctx, ownerAddr, &types.RegisterRequest{Name: "shop"})
	require.NoError(t, err)

	// First non-native set is allowed: the stored token is still native.
	_, err = svc.Update(ctx, ownerAddr, "shop", &types.UpdateRequest{SettlementToken: &mintAddr})
	require.NoError(t, err)

	// Once non-native, it is frozen.
	other := common.HexToAddress("0x0000000000000000000000000000000000000444")
	_, err = svc.Update(ctx, ownerAddr, "shop", &types.UpdateRequest{SettlementToken: &other})
	assert.Equal(t, types.ErrInvalidToken, types.ErrCode(err))

	// Unrelated fields remain mutable.
	swap := true
	_, err = svc.Update(ctx, ownerAddr, "shop", &types.UpdateRequest{SwapEnabled: &swap})
	require.NoError(t, err)
}

func TestUnlockedSettlementToken(t *testing.T) {
	svc, _ := newRegistry(t, Config{LockSettlementToken: false})
	ctx := context.Background()

	_, err := svc.Register(ctx, ownerAddr, &types.RegisterRequest{SettlementToken: mintAddr, Name: "shop"})
	require.NoError(t, err)

	native := types.NativeToken
	m, err := svc.Update(ctx, ownerAddr, "shop", &types.UpdateRequest{SettlementToken: &native})
	require.NoError(t, err)
	assert.True(t, types.IsNativeToken(m.SettlementToken))
}
