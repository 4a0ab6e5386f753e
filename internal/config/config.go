package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	NATS          NATSConfig          `yaml:"nats"`
	Fees          FeeConfig           `yaml:"fees"`
	Collaborators CollaboratorsConfig `yaml:"collaborators"`
	Admin         AdminConfig         `yaml:"admin"`
	CORS          CORSConfig          `yaml:"cors"`
	Chain         ChainConfig         `yaml:"chain"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"` // "postgres" or "memory"
}

// NATSConfig NATS message server configuration
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"`
	ReconnectWait int    `yaml:"reconnect_wait"`
	MaxReconnects int    `yaml:"max_reconnects"`
	StreamName    string `yaml:"stream_name"`
	Subject       string `yaml:"subject"` // RequestSent publish subject
}

// FeeConfig initial fee defaults, seeded into the global fee config row
// on first start. Later changes go through the admin API.
type FeeConfig struct {
	FixedCryptoFee       string `yaml:"fixedCryptoFee"`       // native wei, decimal string
	PlatformTokenFeeRate uint32 `yaml:"platformTokenFeeRate"` // ppm
}

// CollaboratorsConfig base URLs of the external collaborator services
type CollaboratorsConfig struct {
	SwapAdapter CollaboratorEndpoint `yaml:"swapAdapter"`
	Router      CollaboratorEndpoint `yaml:"router"`
	Treasury    CollaboratorEndpoint `yaml:"treasury"`
}

// CollaboratorEndpoint one collaborator HTTP endpoint
type CollaboratorEndpoint struct {
	BaseURL string `yaml:"baseUrl"`
	Timeout int    `yaml:"timeout"` // seconds
}

// AdminConfig operator access control for the fee-config surface
type AdminConfig struct {
	JWTSecret        string `yaml:"jwtSecret"`
	OperatorPassHash string `yaml:"operatorPassHash"` // bcrypt hash of the operator secret
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// ChainConfig identifies the source chain this proxy runs against
type ChainConfig struct {
	Name    string `yaml:"name"`
	ChainID uint64 `yaml:"chainId"`
}

var AppConfig *Config

// LoadConfig loads the yaml configuration file and applies env overrides
func LoadConfig(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	overrideFromEnv(&config)

	if config.Database.Driver == "" {
		config.Database.Driver = "postgres"
	}
	if config.NATS.Subject == "" {
		config.NATS.Subject = fmt.Sprintf("bridge.%s.RequestSent", config.Chain.Name)
	}

	AppConfig = &config
	return nil
}

// overrideFromEnv applies environment variable overrides on top of the yaml file
func overrideFromEnv(config *Config) {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}
	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}
	if subject := os.Getenv("NATS_SUBJECT"); subject != "" {
		config.NATS.Subject = subject
	}

	if fee := os.Getenv("FIXED_CRYPTO_FEE"); fee != "" {
		config.Fees.FixedCryptoFee = fee
	}
	if rate := os.Getenv("PLATFORM_TOKEN_FEE_RATE"); rate != "" {
		if r, err := strconv.ParseUint(rate, 10, 32); err == nil {
			config.Fees.PlatformTokenFeeRate = uint32(r)
		}
	}

	if swapURL := os.Getenv("SWAP_ADAPTER_BASE_URL"); swapURL != "" {
		config.Collaborators.SwapAdapter.BaseURL = swapURL
	}
	if routerURL := os.Getenv("ROUTER_BASE_URL"); routerURL != "" {
		config.Collaborators.Router.BaseURL = routerURL
	}
	if treasuryURL := os.Getenv("TREASURY_BASE_URL"); treasuryURL != "" {
		config.Collaborators.Treasury.BaseURL = treasuryURL
	}

	if secret := os.Getenv("ADMIN_JWT_SECRET"); secret != "" {
		config.Admin.JWTSecret = secret
	}
	if hash := os.Getenv("ADMIN_OPERATOR_PASS_HASH"); hash != "" {
		config.Admin.OperatorPassHash = hash
	}
}
