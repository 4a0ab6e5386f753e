package fees

import (
	"context"
	"fmt"
	"math/big"

	"multichain-proxy/internal/feeconfig"

	"github.com/ethereum/go-ethereum/common"
)

// CryptoFee is the fixed, native-denominated fee charged per request and
// its platform/integrator split. Total == PlatformShare + IntegratorShare
// holds exactly.
type CryptoFee struct {
	Total           *big.Int
	PlatformShare   *big.Int
	IntegratorShare *big.Int
}

// TokenFee is the proportional fee taken out of the bridged amount.
// FeeAmount + AmountWithoutFee == the input amount, and
// PlatformShare + IntegratorShare == FeeAmount, both exactly.
type TokenFee struct {
	FeeAmount        *big.Int
	AmountWithoutFee *big.Int
	PlatformShare    *big.Int
	IntegratorShare  *big.Int
}

// Calculator computes fee amounts from the fee config store. The zero
// address means "no integrator" on both operations.
type Calculator struct {
	store feeconfig.Store
}

// NewCalculator creates a Calculator reading from the given store.
func NewCalculator(store feeconfig.Store) *Calculator {
	return &Calculator{store: store}
}

// platformOnlyCryptoFee charges the global fixed fee with no integrator
// cut.
func platformOnlyCryptoFee(global feeconfig.Global) CryptoFee {
	total := new(big.Int)
	if global.FixedCryptoFee != nil {
		total.Set(global.FixedCryptoFee)
	}
	return CryptoFee{
		Total:           total,
		PlatformShare:   new(big.Int).Set(total),
		IntegratorShare: new(big.Int),
	}
}

// shareOf returns amount * ppm / 1_000_000 with truncation toward zero.
func shareOf(amount *big.Int, ppm uint32) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(int64(ppm)))
	return out.Quo(out, big.NewInt(feeconfig.MaxPPM))
}

// CryptoFee computes the fixed crypto fee for a request. Without an
// active integrator the whole fee goes to the platform.
func (c *Calculator) CryptoFee(ctx context.Context, integrator common.Address) (CryptoFee, error) {
	global, err := c.store.Global(ctx)
	if err != nil {
		return CryptoFee{}, fmt.Errorf("failed to read fee config: %w", err)
	}

	if integrator == (common.Address{}) {
		return platformOnlyCryptoFee(global), nil
	}

	profile, err := c.store.Profile(ctx, integrator)
	if err != nil {
		return CryptoFee{}, fmt.Errorf("failed to read integrator profile: %w", err)
	}
	if !profile.IsIntegrator {
		return platformOnlyCryptoFee(global), nil
	}

	total := profile.EffectiveFixedFee(global)
	platform := shareOf(total, profile.PlatformFixedCryptoShare)
	return CryptoFee{
		Total:           total,
		PlatformShare:   platform,
		IntegratorShare: new(big.Int).Sub(total, platform),
	}, nil
}

// TokenFee computes the proportional fee on amountWithFee. A zero amount
// is degenerate but valid and yields a zero fee.
func (c *Calculator) TokenFee(ctx context.Context, amountWithFee *big.Int, integrator common.Address) (TokenFee, error) {
	global, err := c.store.Global(ctx)
	if err != nil {
		return TokenFee{}, fmt.Errorf("failed to read fee config: %w", err)
	}

	rate := global.PlatformTokenFeeRate
	var profile feeconfig.IntegratorProfile
	active := false
	if integrator != (common.Address{}) {
		profile, err = c.store.Profile(ctx, integrator)
		if err != nil {
			return TokenFee{}, fmt.Errorf("failed to read integrator profile: %w", err)
		}
		if profile.IsIntegrator {
			rate = profile.TokenFeeRate
			active = true
		}
	}

	feeAmount := shareOf(amountWithFee, rate)
	out := TokenFee{
		FeeAmount:        feeAmount,
		AmountWithoutFee: new(big.Int).Sub(amountWithFee, feeAmount),
	}
	if active {
		out.PlatformShare = shareOf(feeAmount, profile.PlatformTokenShare)
		out.IntegratorShare = new(big.Int).Sub(feeAmount, out.PlatformShare)
	} else {
		out.PlatformShare = new(big.Int).Set(feeAmount)
		out.IntegratorShare = new(big.Int)
	}
	return out, nil
}
