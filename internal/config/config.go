// Package config loads the verifier configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/pkg/logger"
)

// DefaultPath is consulted when no explicit path is given.
const DefaultPath = "config.yaml"

// Config is the full configuration surface of the verifier.
type Config struct {
	Server       ServerConfig         `yaml:"server"`
	Logging      logger.LoggingConfig `yaml:"logging"`
	Oracle       OracleConfig         `yaml:"oracle"`
	Ledger       LedgerConfig         `yaml:"ledger"`
	Verification VerificationConfig   `yaml:"verification"`
	DatabaseURL  string               `yaml:"database_url"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// OracleConfig describes the external scoring service and model.
type OracleConfig struct {
	Endpoint string   `yaml:"endpoint"`
	APIKey   string   `yaml:"api_key"`
	Model    string   `yaml:"model"`
	Prompt   string   `yaml:"prompt"`
	Scale    string   `yaml:"scale"`
	Timeout  Duration `yaml:"timeout"`
}

// LedgerConfig describes the external ledger RPC endpoint and contracts.
// When RPCURL or either contract address is empty the gateway runs in stub
// mode: writes succeed immediately with receipts tagged degraded.
type LedgerConfig struct {
	RPCURL           string   `yaml:"rpc_url"`
	TokenContract    string   `yaml:"token_contract"`
	RegistryContract string   `yaml:"registry_contract"`
	WriterAccount    string   `yaml:"writer_account"`
	Timeout          Duration `yaml:"timeout"`
	AutoRemediate    bool     `yaml:"auto_remediate"`
}

// VerificationConfig carries the decision and pricing policy.
type VerificationConfig struct {
	MinScoreThreshold int   `yaml:"min_score_threshold"`
	Price             int64 `yaml:"price"`
}

// Load reads configuration from path, falling back to defaults for absent
// fields, then applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults plus environment only.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Logging: logger.LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Oracle: OracleConfig{
			Model:   "verichain-classifier",
			Prompt:  "Rate the likelihood that this image is AI-generated.",
			Scale:   "unit",
			Timeout: Duration(30 * time.Second),
		},
		Ledger: LedgerConfig{
			Timeout: Duration(30 * time.Second),
		},
		Verification: VerificationConfig{
			MinScoreThreshold: 5000,
			Price:             100,
		},
	}
}

func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
	setString(&c.Oracle.Endpoint, "ORACLE_ENDPOINT")
	setString(&c.Oracle.APIKey, "ORACLE_API_KEY")
	setString(&c.Oracle.Model, "ORACLE_MODEL")
	setString(&c.Oracle.Scale, "ORACLE_SCALE")
	setString(&c.Ledger.RPCURL, "LEDGER_RPC_URL")
	setString(&c.Ledger.TokenContract, "LEDGER_TOKEN_CONTRACT")
	setString(&c.Ledger.RegistryContract, "LEDGER_REGISTRY_CONTRACT")
	setString(&c.Ledger.WriterAccount, "LEDGER_WRITER_ACCOUNT")
	setString(&c.DatabaseURL, "DATABASE_URL")

	if raw, ok := os.LookupEnv("MIN_SCORE_THRESHOLD"); ok {
		if v, err := strconv.Atoi(raw); err == nil {
			c.Verification.MinScoreThreshold = v
		}
	}
	if raw, ok := os.LookupEnv("VERIFICATION_PRICE"); ok {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			c.Verification.Price = v
		}
	}
	if raw, ok := os.LookupEnv("LEDGER_AUTO_REMEDIATE"); ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			c.Ledger.AutoRemediate = v
		}
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	if c.Verification.MinScoreThreshold < 0 || c.Verification.MinScoreThreshold > 10000 {
		return fmt.Errorf("verification.min_score_threshold %d outside [0, 10000]", c.Verification.MinScoreThreshold)
	}
	if c.Verification.Price < 0 {
		return fmt.Errorf("verification.price must not be negative")
	}
	switch c.Oracle.Scale {
	case "unit", "percent":
	default:
		return fmt.Errorf("oracle.scale %q: must be \"unit\" or \"percent\"", c.Oracle.Scale)
	}
	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("oracle.timeout must be positive")
	}
	if c.Ledger.Timeout <= 0 {
		return fmt.Errorf("ledger.timeout must be positive")
	}
	return nil
}

// LoadOrDefault loads configuration, returning defaults on any error.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return Default()
	}
	return cfg
}
