package models

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"time"
)

// BigInt stores an unbounded unsigned amount in PostgreSQL as numeric(78,0).
// 78 digits cover the full uint256 range used by on-chain amounts.
type BigInt struct {
	big.Int
}

// NewBigInt wraps v into a BigInt column value. A nil v becomes zero.
func NewBigInt(v *big.Int) BigInt {
	var b BigInt
	if v != nil {
		b.Set(v)
	}
	return b
}

// Value implements the driver.Valuer interface
func (b BigInt) Value() (driver.Value, error) {
	return b.String(), nil
}

// Scan implements the sql.Scanner interface
func (b *BigInt) Scan(value interface{}) error {
	if value == nil {
		b.SetInt64(0)
		return nil
	}
	var s string
	switch v := value.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	case int64:
		b.SetInt64(v)
		return nil
	default:
		return fmt.Errorf("unsupported BigInt column type: %T", value)
	}
	if _, ok := b.SetString(s, 10); !ok {
		return fmt.Errorf("invalid numeric value: %q", s)
	}
	return nil
}

// GormDataType tells gorm which column type to migrate to
func (BigInt) GormDataType() string {
	return "numeric(78,0)"
}

// IntegratorProfile holds the per-integrator fee parameters.
// All rate fields are parts-per-million: 1_000_000 == 100%.
type IntegratorProfile struct {
	ID                       uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Integrator               string    `json:"integrator" gorm:"not null;size:42;uniqueIndex"` // EVM address, lowercase hex
	IsIntegrator             bool      `json:"is_integrator" gorm:"not null;default:false"`
	TokenFeeRate             uint32    `json:"token_fee_rate" gorm:"not null;default:0"`              // ppm of the bridged amount
	PlatformFixedCryptoShare uint32    `json:"platform_fixed_crypto_share" gorm:"not null;default:0"` // ppm of the fixed crypto fee kept by the platform
	PlatformTokenShare       uint32    `json:"platform_token_share" gorm:"not null;default:0"`        // ppm of the collected token fee kept by the platform
	FixedFeeAmount           BigInt    `json:"fixed_fee_amount" gorm:"type:numeric(78,0)"`            // 0 = use global default
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// TableName specifies the table name for IntegratorProfile
func (IntegratorProfile) TableName() string {
	return "integrator_profiles"
}

// GlobalFeeConfig is a single-row table holding the platform-wide fee defaults.
type GlobalFeeConfig struct {
	ID                   uint64    `json:"id" gorm:"primaryKey"`
	FixedCryptoFee       BigInt    `json:"fixed_crypto_fee" gorm:"type:numeric(78,0)"`        // native-denominated fee per request
	PlatformTokenFeeRate uint32    `json:"platform_token_fee_rate" gorm:"not null;default:0"` // ppm, applies when no integrator is set
	UpdatedBy            string    `json:"updated_by" gorm:"size:64"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName specifies the table name for GlobalFeeConfig
func (GlobalFeeConfig) TableName() string {
	return "global_fee_configs"
}

// PlatformFeeBalance is the platform token-fee pool for one asset.
// The native coin uses the zero address as its asset key.
type PlatformFeeBalance struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Asset     string    `json:"asset" gorm:"not null;size:42;uniqueIndex"`
	Amount    BigInt    `json:"amount" gorm:"type:numeric(78,0)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for PlatformFeeBalance
func (PlatformFeeBalance) TableName() string {
	return "platform_fee_balances"
}

// IntegratorFeeBalance is the token-fee pool for one (asset, integrator) pair.
type IntegratorFeeBalance struct {
	ID         uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Asset      string    `json:"asset" gorm:"not null;size:42;uniqueIndex:idx_asset_integrator"`
	Integrator string    `json:"integrator" gorm:"not null;size:42;uniqueIndex:idx_asset_integrator"`
	Amount     BigInt    `json:"amount" gorm:"type:numeric(78,0)"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for IntegratorFeeBalance
func (IntegratorFeeBalance) TableName() string {
	return "integrator_fee_balances"
}

// CryptoFeeBalance accumulates the fixed crypto fee. The crypto fee is
// always native-denominated and never mixed into the token-fee pools.
// The platform pool uses an empty integrator key.
type CryptoFeeBalance struct {
	ID         uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Integrator string    `json:"integrator" gorm:"size:42;uniqueIndex"` // empty = platform pool
	Amount     BigInt    `json:"amount" gorm:"type:numeric(78,0)"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for CryptoFeeBalance
func (CryptoFeeBalance) TableName() string {
	return "crypto_fee_balances"
}
