package main

import (
	"flag"
	"fmt"
	"math/big"
	"os"

	"multichain-proxy/internal/bridge"
	"multichain-proxy/internal/clients"
	"multichain-proxy/internal/config"
	"multichain-proxy/internal/db"
	"multichain-proxy/internal/events"
	"multichain-proxy/internal/feeconfig"
	"multichain-proxy/internal/fees"
	"multichain-proxy/internal/handlers"
	"multichain-proxy/internal/ledger"
	"multichain-proxy/internal/router"

	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default config.yaml)")
	flag.Parse()

	setupLogging()

	if err := config.LoadConfig(*configPath); err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	feeStore, feeLedger := buildStorage()

	treasury := clients.NewTreasuryClient(config.AppConfig.Collaborators.Treasury.BaseURL)
	swapAdapter := clients.NewSwapAdapterClient(config.AppConfig.Collaborators.SwapAdapter.BaseURL)
	relayRouter := clients.NewRouterClient(config.AppConfig.Collaborators.Router.BaseURL)

	publisher, err := events.InitNATSPublisher()
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize NATS publisher")
	}
	defer events.CloseNATS()

	calculator := fees.NewCalculator(feeStore)
	dispatcher := bridge.NewDispatcher(calculator, feeLedger, treasury, swapAdapter, relayRouter, publisher)
	collector := bridge.NewCollector(feeLedger, treasury)

	r := router.SetupRouter(
		handlers.NewBridgeHandler(dispatcher),
		handlers.NewFeeQueryHandler(feeLedger),
		handlers.NewAdminAuthHandler(),
		handlers.NewAdminConfigHandler(feeStore, collector),
	)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Server.Host, config.AppConfig.Server.Port)
	logrus.WithFields(logrus.Fields{
		"addr":  addr,
		"chain": config.AppConfig.Chain.Name,
	}).Info("starting multichain proxy")

	if err := r.Run(addr); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}

func setupLogging() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	level := logrus.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := logrus.ParseLevel(lvl); err == nil {
			level = parsed
		}
	}
	logrus.SetLevel(level)
}

// buildStorage selects the fee config store and ledger backend. The
// memory driver serves single-process deployments and local development;
// postgres is the production path.
func buildStorage() (feeconfig.Store, ledger.Ledger) {
	if config.AppConfig.Database.Driver == "memory" {
		logrus.Warn("using in-memory storage, fee balances will not survive restarts")
		return feeconfig.NewMemoryStore(memoryGlobalDefaults()), ledger.NewMemoryLedger()
	}

	db.InitDB()
	return feeconfig.NewGormStore(db.DB), ledger.NewGormLedger(db.DB)
}

func memoryGlobalDefaults() feeconfig.Global {
	global := feeconfig.Global{FixedCryptoFee: new(big.Int)}
	if config.AppConfig.Fees.FixedCryptoFee != "" {
		if _, ok := global.FixedCryptoFee.SetString(config.AppConfig.Fees.FixedCryptoFee, 10); !ok {
			logrus.Fatalf("invalid fees.fixedCryptoFee value: %q", config.AppConfig.Fees.FixedCryptoFee)
		}
	}
	global.PlatformTokenFeeRate = config.AppConfig.Fees.PlatformTokenFeeRate
	return global
}
