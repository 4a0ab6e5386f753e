package feeconfig

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"multichain-proxy/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists the fee configuration in PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by the given gorm handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Global reads the single global fee config row.
func (s *GormStore) Global(ctx context.Context) (Global, error) {
	var row models.GlobalFeeConfig
	if err := s.db.WithContext(ctx).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Global{FixedCryptoFee: new(big.Int)}, nil
		}
		return Global{}, fmt.Errorf("failed to load global fee config: %w", err)
	}
	return Global{
		FixedCryptoFee:       new(big.Int).Set(&row.FixedCryptoFee.Int),
		PlatformTokenFeeRate: row.PlatformTokenFeeRate,
	}, nil
}

// Profile reads the integrator profile; an unknown identity reads back as
// a zero profile so the global defaults apply.
func (s *GormStore) Profile(ctx context.Context, integrator common.Address) (IntegratorProfile, error) {
	var row models.IntegratorProfile
	err := s.db.WithContext(ctx).Where("integrator = ?", profileKey(integrator)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return IntegratorProfile{FixedFeeAmount: new(big.Int)}, nil
		}
		return IntegratorProfile{}, fmt.Errorf("failed to load integrator profile: %w", err)
	}
	return IntegratorProfile{
		IsIntegrator:             row.IsIntegrator,
		TokenFeeRate:             row.TokenFeeRate,
		PlatformFixedCryptoShare: row.PlatformFixedCryptoShare,
		PlatformTokenShare:       row.PlatformTokenShare,
		FixedFeeAmount:           new(big.Int).Set(&row.FixedFeeAmount.Int),
	}, nil
}

// SetIntegratorInfo validates and upserts the profile. The write is a
// single statement, so a bridge call issued right after it returns
// observes the new profile.
func (s *GormStore) SetIntegratorInfo(ctx context.Context, integrator common.Address, profile IntegratorProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	row := models.IntegratorProfile{
		Integrator:               profileKey(integrator),
		IsIntegrator:             profile.IsIntegrator,
		TokenFeeRate:             profile.TokenFeeRate,
		PlatformFixedCryptoShare: profile.PlatformFixedCryptoShare,
		PlatformTokenShare:       profile.PlatformTokenShare,
		FixedFeeAmount:           models.NewBigInt(profile.FixedFeeAmount),
		UpdatedAt:                time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "integrator"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_integrator", "token_fee_rate", "platform_fixed_crypto_share",
			"platform_token_share", "fixed_fee_amount", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert integrator profile: %w", err)
	}
	return nil
}

// SetGlobal validates and replaces the global fee defaults.
func (s *GormStore) SetGlobal(ctx context.Context, global Global, updatedBy string) error {
	if err := global.Validate(); err != nil {
		return err
	}
	row := models.GlobalFeeConfig{
		ID:                   1,
		FixedCryptoFee:       models.NewBigInt(global.FixedCryptoFee),
		PlatformTokenFeeRate: global.PlatformTokenFeeRate,
		UpdatedBy:            updatedBy,
		UpdatedAt:            time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"fixed_crypto_fee", "platform_token_fee_rate", "updated_by", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to update global fee config: %w", err)
	}
	return nil
}
