package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config is the engine configuration.
type Config struct {
	Network    Network `json:"network" mapstructure:"network" validate:"required,oneof=pubnet testnet futurenet standalone"`
	RPCURL     string  `json:"rpcUrl" mapstructure:"rpc_url" validate:"required,url"`
	ContractID string  `json:"contractId" mapstructure:"contract_id" validate:"required"`

	// TokenContract is the default fungible asset, used when a call does not
	// name one explicitly.
	TokenContract string `json:"tokenContract,omitempty" mapstructure:"token_contract"`

	RequestTimeout  time.Duration `json:"requestTimeout,omitempty" mapstructure:"request_timeout"`
	RefreshInterval time.Duration `json:"refreshInterval,omitempty" mapstructure:"refresh_interval"`

	LogLevel      string `json:"logLevel,omitempty" mapstructure:"log_level"`
	EnableMetrics bool   `json:"enableMetrics,omitempty" mapstructure:"enable_metrics"`

	// RedisURL switches the query cache to Redis when set; the in-process
	// cache is the default.
	RedisURL string `json:"redisUrl,omitempty" mapstructure:"redis_url"`
}

// Validate checks the configuration and applies defaults for the optional
// timing knobs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &Error{Code: ErrConfigError, Message: fmt.Sprintf("invalid config: %v", err)}
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 10 * time.Second
	}
	return nil
}

// ParseConfig parses and validates a Config from JSON.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &Error{Code: ErrConfigError, Message: fmt.Sprintf("failed to parse config: %v", err)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateParams runs struct-tag validation on call parameter structs.
func ValidateParams(v any) error {
	if err := validate.Struct(v); err != nil {
		return &Error{Code: ErrInvalidParameters, Message: fmt.Sprintf("validation failed: %v", err)}
	}
	return nil
}
