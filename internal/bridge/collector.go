package bridge

import (
	"context"
	"fmt"
	"math/big"

	"multichain-proxy/internal/ledger"
	"multichain-proxy/internal/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Collector pays collected fees out of their pools. Each operation
// zeroes one pool and pushes the held asset to the recipient; if the
// payout fails the amount is credited back so nothing is lost.
type Collector struct {
	ledger ledger.Ledger
	assets AssetTransfer
}

// NewCollector wires a Collector.
func NewCollector(l ledger.Ledger, assets AssetTransfer) *Collector {
	return &Collector{ledger: l, assets: assets}
}

func (c *Collector) payOut(ctx context.Context, asset, to common.Address, amount *big.Int,
	party string, restore func(tx ledger.Tx) error) (*big.Int, error) {

	if amount.Sign() == 0 {
		return amount, nil
	}
	if err := c.assets.Push(ctx, asset, to, amount); err != nil {
		metrics.CollaboratorFailuresTotal.WithLabelValues("treasury").Inc()
		if restoreErr := c.ledger.WithinTx(ctx, restore); restoreErr != nil {
			logrus.WithError(restoreErr).WithFields(logrus.Fields{
				"party":  party,
				"amount": amount.String(),
			}).Error("failed to restore fee balance after payout failure")
		}
		return nil, fmt.Errorf("%w: payout: %v", ErrExternalCollaboratorFailure, err)
	}
	metrics.FeeCollectionsTotal.WithLabelValues(party).Inc()
	return amount, nil
}

// CollectPlatformToken pays the platform token-fee pool for asset out to
// the recipient.
func (c *Collector) CollectPlatformToken(ctx context.Context, asset, to common.Address) (*big.Int, error) {
	amount, err := c.ledger.CollectPlatformToken(ctx, asset)
	if err != nil {
		return nil, err
	}
	return c.payOut(ctx, asset, to, amount, "platform", func(tx ledger.Tx) error {
		return tx.CreditPlatformToken(asset, amount)
	})
}

// CollectIntegratorToken pays the integrator's token-fee pool for asset
// out to the integrator.
func (c *Collector) CollectIntegratorToken(ctx context.Context, asset, integrator common.Address) (*big.Int, error) {
	amount, err := c.ledger.CollectIntegratorToken(ctx, asset, integrator)
	if err != nil {
		return nil, err
	}
	return c.payOut(ctx, asset, integrator, amount, "integrator", func(tx ledger.Tx) error {
		return tx.CreditIntegratorToken(asset, integrator, amount)
	})
}

// CollectPlatformCrypto pays the platform's fixed crypto fee pool out to
// the recipient in native value.
func (c *Collector) CollectPlatformCrypto(ctx context.Context, to common.Address) (*big.Int, error) {
	amount, err := c.ledger.CollectPlatformCrypto(ctx)
	if err != nil {
		return nil, err
	}
	return c.payOut(ctx, ledger.NativeAsset, to, amount, "platform", func(tx ledger.Tx) error {
		return tx.CreditPlatformCrypto(amount)
	})
}

// CollectIntegratorCrypto pays the integrator's fixed crypto fee pool
// out to the integrator in native value.
func (c *Collector) CollectIntegratorCrypto(ctx context.Context, integrator common.Address) (*big.Int, error) {
	amount, err := c.ledger.CollectIntegratorCrypto(ctx, integrator)
	if err != nil {
		return nil, err
	}
	return c.payOut(ctx, ledger.NativeAsset, integrator, amount, "integrator", func(tx ledger.Tx) error {
		return tx.CreditIntegratorCrypto(integrator, amount)
	})
}
