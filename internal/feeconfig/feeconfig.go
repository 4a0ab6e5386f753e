package feeconfig

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MaxPPM is 100% in parts-per-million.
const MaxPPM = 1_000_000

// IntegratorProfile is the fee-sharing profile of one integrator.
type IntegratorProfile struct {
	IsIntegrator             bool
	TokenFeeRate             uint32   // ppm of the bridged amount
	PlatformFixedCryptoShare uint32   // ppm of the fixed crypto fee kept by the platform
	PlatformTokenShare       uint32   // ppm of the collected token fee kept by the platform
	FixedFeeAmount           *big.Int // 0 = use the global fixed crypto fee
}

// Global holds the platform-wide fee defaults applied when no integrator
// is set on a request.
type Global struct {
	FixedCryptoFee       *big.Int
	PlatformTokenFeeRate uint32 // ppm
}

// Store exposes read access to the global fee config and integrator
// profiles, and the operator-guarded mutations. An identity absent from
// the store reads back as a zero profile with IsIntegrator=false.
type Store interface {
	Global(ctx context.Context) (Global, error)
	Profile(ctx context.Context, integrator common.Address) (IntegratorProfile, error)
	SetIntegratorInfo(ctx context.Context, integrator common.Address, profile IntegratorProfile) error
	SetGlobal(ctx context.Context, global Global, updatedBy string) error
}

// Validate rejects rate fields outside [0, 1_000_000].
func (p IntegratorProfile) Validate() error {
	if p.TokenFeeRate > MaxPPM {
		return fmt.Errorf("tokenFeeRate %d exceeds %d ppm", p.TokenFeeRate, MaxPPM)
	}
	if p.PlatformFixedCryptoShare > MaxPPM {
		return fmt.Errorf("platformFixedCryptoShare %d exceeds %d ppm", p.PlatformFixedCryptoShare, MaxPPM)
	}
	if p.PlatformTokenShare > MaxPPM {
		return fmt.Errorf("platformTokenShare %d exceeds %d ppm", p.PlatformTokenShare, MaxPPM)
	}
	if p.FixedFeeAmount != nil && p.FixedFeeAmount.Sign() < 0 {
		return fmt.Errorf("fixedFeeAmount must not be negative")
	}
	return nil
}

// Validate rejects global defaults outside the allowed ranges.
func (g Global) Validate() error {
	if g.PlatformTokenFeeRate > MaxPPM {
		return fmt.Errorf("platformTokenFeeRate %d exceeds %d ppm", g.PlatformTokenFeeRate, MaxPPM)
	}
	if g.FixedCryptoFee != nil && g.FixedCryptoFee.Sign() < 0 {
		return fmt.Errorf("fixedCryptoFee must not be negative")
	}
	return nil
}

// fixedFee returns the profile override when set, else the global default.
func (p IntegratorProfile) fixedFee(global Global) *big.Int {
	if p.FixedFeeAmount != nil && p.FixedFeeAmount.Sign() > 0 {
		return p.FixedFeeAmount
	}
	if global.FixedCryptoFee == nil {
		return new(big.Int)
	}
	return global.FixedCryptoFee
}

// EffectiveFixedFee resolves the fixed crypto fee charged when this
// profile is active.
func (p IntegratorProfile) EffectiveFixedFee(global Global) *big.Int {
	return new(big.Int).Set(p.fixedFee(global))
}
