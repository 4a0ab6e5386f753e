package ledger

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

// GormLedger persists the fee pools in PostgreSQL. Atomicity of one
// bridge request comes from running all credits inside a single database
// transaction; the database's row locks provide the no-lost-update
// guarantee for concurrent requests.
type GormLedger struct {
	db *gorm.DB
}

// NewGormLedger creates a Ledger backed by the given gorm handle.
func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

// gormTx issues the credit upserts against the transaction handle.
type gormTx struct {
	tx *gorm.DB
}

func checkCredit(amount *big.Int) (skip bool, err error) {
	if amount == nil || amount.Sign() < 0 {
		return false, ErrNegativeCredit
	}
	return amount.Sign() == 0, nil
}

func (t *gormTx) CreditPlatformToken(asset common.Address, amount *big.Int) error {
	skip, err := checkCredit(amount)
	if err != nil || skip {
		return err
	}
	row := models.PlatformFeeBalance{
		Asset:     assetKey(asset),
		Amount:    models.NewBigInt(amount),
		UpdatedAt: time.Now(),
	}
	err = t.tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "asset"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount":     gorm.Expr("platform_fee_balances.amount + EXCLUDED.amount"),
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to credit platform token fee: %w", err)
	}
	return nil
}

func (t *gormTx) CreditIntegratorToken(asset, integrator common.Address, amount *big.Int) error {
	skip, err := checkCredit(amount)
	if err != nil || skip {
		return err
	}
	row := models.IntegratorFeeBalance{
		Asset:      assetKey(asset),
		Integrator: assetKey(integrator),
		Amount:     models.NewBigInt(amount),
		UpdatedAt:  time.Now(),
	}
	err = t.tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "asset"}, {Name: "integrator"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount":     gorm.Expr("integrator_fee_balances.amount + EXCLUDED.amount"),
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to credit integrator token fee: %w", err)
	}
	return nil
}

func (t *gormTx) creditCrypto(integrator string, amount *big.Int) error {
	skip, err := checkCredit(amount)
	if err != nil || skip {
		return err
	}
	row := models.CryptoFeeBalance{
		Integrator: integrator,
		Amount:     models.NewBigInt(amount),
		UpdatedAt:  time.Now(),
	}
	err = t.tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "integrator"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount":     gorm.Expr("crypto_fee_balances.amount + EXCLUDED.amount"),
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to credit crypto fee: %w", err)
	}
	return nil
}

func (t *gormTx) CreditPlatformCrypto(amount *big.Int) error {
	return t.creditCrypto("", amount)
}

func (t *gormTx) CreditIntegratorCrypto(integrator common.Address, amount *big.Int) error {
	return t.creditCrypto(assetKey(integrator), amount)
}

// WithinTx wraps fn in one database transaction; an error from fn rolls
// back every credit it staged.
func (l *GormLedger) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{tx: tx})
	})
}

// PlatformTokenBalance returns the platform token-fee pool for asset.
func (l *GormLedger) PlatformTokenBalance(ctx context.Context, asset common.Address) (*big.Int, error) {
	var row models.PlatformFeeBalance
	err := l.db.WithContext(ctx).Where("asset = ?", assetKey(asset)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("failed to read platform fee balance: %w", err)
	}
	return new(big.Int).Set(&row.Amount.Int), nil
}

// IntegratorTokenBalance returns the (asset, integrator) token-fee pool.
func (l *GormLedger) IntegratorTokenBalance(ctx context.Context, asset, integrator common.Address) (*big.Int, error) {
	var row models.IntegratorFeeBalance
	err := l.db.WithContext(ctx).
		Where("asset = ? AND integrator = ?", assetKey(asset), assetKey(integrator)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("failed to read integrator fee balance: %w", err)
	}
	return new(big.Int).Set(&row.Amount.Int), nil
}

func (l *GormLedger) cryptoBalance(ctx context.Context, integrator string) (*big.Int, error) {
	var row models.CryptoFeeBalance
	err := l.db.WithContext(ctx).Where("integrator = ?", integrator).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("failed to read crypto fee balance: %w", err)
	}
	return new(big.Int).Set(&row.Amount.Int), nil
}

// PlatformCryptoBalance returns the platform's fixed crypto fee pool.
func (l *GormLedger) PlatformCryptoBalance(ctx context.Context) (*big.Int, error) {
	return l.cryptoBalance(ctx, "")
}

// IntegratorCryptoBalance returns the integrator's fixed crypto fee pool.
func (l *GormLedger) IntegratorCryptoBalance(ctx context.Context, integrator common.Address) (*big.Int, error) {
	return l.cryptoBalance(ctx, assetKey(integrator))
}

// collect zeroes one row under a row lock and returns what it held.
func collectRow(tx *gorm.DB, model interface{}, query string, args ...interface{}) (*big.Int, error) {
	amount := new(big.Int)
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(query, args...).First(model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return amount, nil
		}
		return nil, err
	}
	switch row := model.(type) {
	case *models.PlatformFeeBalance:
		amount.Set(&row.Amount.Int)
	case *models.IntegratorFeeBalance:
		amount.Set(&row.Amount.Int)
	case *models.CryptoFeeBalance:
		amount.Set(&row.Amount.Int)
	}
	if err := tx.Model(model).Updates(map[string]interface{}{
		"amount":     "0",
		"updated_at": time.Now(),
	}).Error; err != nil {
		return nil, err
	}
	return amount, nil
}

// CollectPlatformToken zeroes the platform pool for asset and returns
// what it held.
func (l *GormLedger) CollectPlatformToken(ctx context.Context, asset common.Address) (*big.Int, error) {
	var out *big.Int
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = collectRow(tx, &models.PlatformFeeBalance{}, "asset = ?", assetKey(asset))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect platform token fee: %w", err)
	}
	return out, nil
}

// CollectIntegratorToken zeroes the (asset, integrator) pool and returns
// what it held.
func (l *GormLedger) CollectIntegratorToken(ctx context.Context, asset, integrator common.Address) (*big.Int, error) {
	var out *big.Int
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = collectRow(tx, &models.IntegratorFeeBalance{},
			"asset = ? AND integrator = ?", assetKey(asset), assetKey(integrator))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect integrator token fee: %w", err)
	}
	return out, nil
}

// CollectPlatformCrypto zeroes the platform crypto pool and returns what
// it held.
func (l *GormLedger) CollectPlatformCrypto(ctx context.Context) (*big.Int, error) {
	var out *big.Int
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = collectRow(tx, &models.CryptoFeeBalance{}, "integrator = ?", "")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect platform crypto fee: %w", err)
	}
	return out, nil
}

// CollectIntegratorCrypto zeroes the integrator crypto pool and returns
// what it held.
func (l *GormLedger) CollectIntegratorCrypto(ctx context.Context, integrator common.Address) (*big.Int, error) {
	var out *big.Int
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = collectRow(tx, &models.CryptoFeeBalance{}, "integrator = ?", assetKey(integrator))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect integrator crypto fee: %w", err)
	}
	return out, nil
}
