package db

import (
	"log"
	"math/big"
	"time"

	"multichain-proxy/internal/config"
	"multichain-proxy/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB connects to postgres, migrates the fee accounting schema and
// seeds the global fee config row on first start. Fatal on any failure:
// the service cannot run without its ledger tables.
func InitDB() {
	var err error

	if config.AppConfig == nil || config.AppConfig.Database.DSN == "" {
		log.Fatalf("Database DSN is required")
	}

	dsn := config.AppConfig.Database.DSN

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		PrepareStmt:                              true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	log.Println("✅ Database connected successfully")

	if err := DB.AutoMigrate(
		&models.IntegratorProfile{},
		&models.GlobalFeeConfig{},
		&models.PlatformFeeBalance{},
		&models.IntegratorFeeBalance{},
		&models.CryptoFeeBalance{},
	); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	initGlobalFeeConfig(DB)

	log.Println("✅ Database schema migrated successfully")
}

// initGlobalFeeConfig seeds the single global fee config row from the
// yaml defaults on first start. Existing rows are left alone so admin
// updates survive restarts.
func initGlobalFeeConfig(db *gorm.DB) {
	var existing models.GlobalFeeConfig
	if err := db.First(&existing, "id = ?", 1).Error; err == nil {
		return
	}

	fixedFee := new(big.Int)
	if config.AppConfig != nil && config.AppConfig.Fees.FixedCryptoFee != "" {
		if _, ok := fixedFee.SetString(config.AppConfig.Fees.FixedCryptoFee, 10); !ok {
			log.Fatalf("Invalid fees.fixedCryptoFee value: %q", config.AppConfig.Fees.FixedCryptoFee)
		}
	}

	seed := models.GlobalFeeConfig{
		ID:             1,
		FixedCryptoFee: models.NewBigInt(fixedFee),
		UpdatedBy:      "system",
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if config.AppConfig != nil {
		seed.PlatformTokenFeeRate = config.AppConfig.Fees.PlatformTokenFeeRate
	}

	if err := db.Create(&seed).Error; err != nil {
		log.Printf("⚠️ Failed to seed global fee config: %v", err)
		return
	}
	log.Printf("✅ Seeded global fee config: fixedCryptoFee=%s, platformTokenFeeRate=%d ppm",
		fixedFee.String(), seed.PlatformTokenFeeRate)
}
