package feeconfig

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryStore is an in-process Store. Reads after a successful write
// always observe the new profile; a mutex provides the serialization the
// host environment would otherwise guarantee.
type MemoryStore struct {
	mu       sync.RWMutex
	global   Global
	profiles map[string]IntegratorProfile
}

// NewMemoryStore creates a MemoryStore seeded with the given defaults.
func NewMemoryStore(global Global) *MemoryStore {
	g := Global{PlatformTokenFeeRate: global.PlatformTokenFeeRate, FixedCryptoFee: new(big.Int)}
	if global.FixedCryptoFee != nil {
		g.FixedCryptoFee.Set(global.FixedCryptoFee)
	}
	return &MemoryStore{
		global:   g,
		profiles: make(map[string]IntegratorProfile),
	}
}

func profileKey(integrator common.Address) string {
	return strings.ToLower(integrator.Hex())
}

// Global returns the platform-wide fee defaults.
func (s *MemoryStore) Global(ctx context.Context) (Global, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Global{
		FixedCryptoFee:       new(big.Int).Set(s.global.FixedCryptoFee),
		PlatformTokenFeeRate: s.global.PlatformTokenFeeRate,
	}, nil
}

// Profile returns the stored profile, or a zero profile for an unknown identity.
func (s *MemoryStore) Profile(ctx context.Context, integrator common.Address) (IntegratorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[profileKey(integrator)]
	if !ok {
		return IntegratorProfile{FixedFeeAmount: new(big.Int)}, nil
	}
	return copyProfile(p), nil
}

// SetIntegratorInfo validates and stores the profile.
func (s *MemoryStore) SetIntegratorInfo(ctx context.Context, integrator common.Address, profile IntegratorProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profileKey(integrator)] = copyProfile(profile)
	return nil
}

// SetGlobal validates and replaces the platform-wide defaults.
func (s *MemoryStore) SetGlobal(ctx context.Context, global Global, updatedBy string) error {
	if err := global.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global.PlatformTokenFeeRate = global.PlatformTokenFeeRate
	s.global.FixedCryptoFee = new(big.Int)
	if global.FixedCryptoFee != nil {
		s.global.FixedCryptoFee.Set(global.FixedCryptoFee)
	}
	return nil
}

func copyProfile(p IntegratorProfile) IntegratorProfile {
	out := p
	out.FixedFeeAmount = new(big.Int)
	if p.FixedFeeAmount != nil {
		out.FixedFeeAmount.Set(p.FixedFeeAmount)
	}
	return out
}
