package bridge

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"multichain-proxy/internal/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var payoutRecipient = common.HexToAddress("0x0000000000000000000000000000000000000d01")

func seedLedger(t *testing.T, l *ledger.MemoryLedger) {
	t.Helper()
	require.NoError(t, l.WithinTx(context.Background(), func(tx ledger.Tx) error {
		if err := tx.CreditPlatformToken(usdt, big.NewInt(500)); err != nil {
			return err
		}
		if err := tx.CreditIntegratorToken(usdt, integrator, big.NewInt(300)); err != nil {
			return err
		}
		if err := tx.CreditPlatformCrypto(big.NewInt(700)); err != nil {
			return err
		}
		return tx.CreditIntegratorCrypto(integrator, big.NewInt(200))
	}))
}

func TestCollectPlatformTokenPaysOut(t *testing.T) {
	l := ledger.NewMemoryLedger()
	assets := &fakeAssets{}
	c := NewCollector(l, assets)
	ctx := context.Background()
	seedLedger(t, l)

	amount, err := c.CollectPlatformToken(ctx, usdt, payoutRecipient)
	require.NoError(t, err)
	assert.Equal(t, "500", amount.String())

	require.Len(t, assets.pushes, 1)
	assert.Equal(t, usdt, assets.pushes[0].asset)
	assert.Equal(t, payoutRecipient, assets.pushes[0].account)
	assert.Equal(t, "500", assets.pushes[0].amount.String())

	balance, _ := l.PlatformTokenBalance(ctx, usdt)
	assert.Equal(t, "0", balance.String())
}

func TestCollectIntegratorCryptoPaysNative(t *testing.T) {
	l := ledger.NewMemoryLedger()
	assets := &fakeAssets{}
	c := NewCollector(l, assets)
	ctx := context.Background()
	seedLedger(t, l)

	amount, err := c.CollectIntegratorCrypto(ctx, integrator)
	require.NoError(t, err)
	assert.Equal(t, "200", amount.String())

	require.Len(t, assets.pushes, 1)
	assert.Equal(t, ledger.NativeAsset, assets.pushes[0].asset)
	assert.Equal(t, integrator, assets.pushes[0].account)
}

func TestCollectEmptyPoolSkipsPayout(t *testing.T) {
	l := ledger.NewMemoryLedger()
	assets := &fakeAssets{}
	c := NewCollector(l, assets)

	amount, err := c.CollectPlatformCrypto(context.Background(), payoutRecipient)
	require.NoError(t, err)
	assert.Equal(t, "0", amount.String())
	assert.Empty(t, assets.pushes)
}

func TestCollectRestoresBalanceOnPayoutFailure(t *testing.T) {
	l := ledger.NewMemoryLedger()
	assets := &fakeAssets{pushErr: errors.New("signer offline")}
	c := NewCollector(l, assets)
	ctx := context.Background()
	seedLedger(t, l)

	_, err := c.CollectIntegratorToken(ctx, usdt, integrator)
	assert.ErrorIs(t, err, ErrExternalCollaboratorFailure)

	// The failed payout must not burn the pool.
	balance, _ := l.IntegratorTokenBalance(ctx, usdt, integrator)
	assert.Equal(t, "300", balance.String())
}
