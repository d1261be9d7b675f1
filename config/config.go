package config

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Load loads the configuration from the environment and, optionally, a
// config file. Environment variables use the FMC_ prefix with nested keys
// joined by underscores (FMC_HOST, FMC_RATE_LIMIT, FMC_LOG_LEVEL, ...).
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Viper only reflects env vars into Unmarshal for keys it knows about.
	bindEnvKeys(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// FMC defaults. SSL verification is off by default to accommodate
	// lab deployments with self-signed certificates.
	v.SetDefault("fmc.verify_ssl", false)
	v.SetDefault("fmc.timeout", 60)
	v.SetDefault("fmc.rate_limit", 120)
	v.SetDefault("fmc.max_connections", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "auto")
	v.SetDefault("logging.color", true)
}

func bindEnvKeys(v *viper.Viper) {
	bindings := map[string]string{
		"fmc.host":            "FMC_HOST",
		"fmc.username":        "FMC_USERNAME",
		"fmc.password":        "FMC_PASSWORD",
		"fmc.verify_ssl":      "FMC_VERIFY_SSL",
		"fmc.domain_uuid":     "FMC_DOMAIN_UUID",
		"fmc.timeout":         "FMC_TIMEOUT",
		"fmc.rate_limit":      "FMC_RATE_LIMIT",
		"fmc.max_connections": "FMC_MAX_CONNECTIONS",
		"logging.level":       "FMC_LOG_LEVEL",
		"logging.format":      "FMC_LOG_FORMAT",
		"logging.color":       "FMC_LOG_COLOR",
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.FMC.Host == "" {
		return fmt.Errorf("fmc.host is required (FMC_HOST)")
	}
	if cfg.FMC.Username == "" {
		return fmt.Errorf("fmc.username is required (FMC_USERNAME)")
	}
	if cfg.FMC.Password == "" {
		return fmt.Errorf("fmc.password is required (FMC_PASSWORD)")
	}
	if cfg.FMC.Timeout <= 0 {
		return fmt.Errorf("fmc.timeout must be positive, got %d", cfg.FMC.Timeout)
	}
	if cfg.FMC.RateLimit <= 0 {
		return fmt.Errorf("fmc.rate_limit must be positive, got %d", cfg.FMC.RateLimit)
	}
	if cfg.FMC.MaxConnections <= 0 {
		return fmt.Errorf("fmc.max_connections must be positive, got %d", cfg.FMC.MaxConnections)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	validFormats := map[string]bool{
		"auto":    true,
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}

// LogConfig logs the effective FMC settings. The password is never logged.
func (c *Config) LogConfig(logger zerolog.Logger) {
	evt := logger.Info().
		Str("host", c.FMC.Host).
		Str("username", c.FMC.Username).
		Bool("verify_ssl", c.FMC.VerifySSL).
		Int("timeout_s", c.FMC.Timeout).
		Int("rate_limit_per_min", c.FMC.RateLimit).
		Int("max_connections", c.FMC.MaxConnections)
	if c.FMC.DomainUUID != "" {
		evt = evt.Str("domain_uuid", c.FMC.DomainUUID)
	} else {
		evt = evt.Str("domain_uuid", "(auto-discover)")
	}
	evt.Msg("FMC configuration")

	if !c.FMC.VerifySSL {
		logger.Warn().Msg("SSL verification is DISABLED. This is insecure for production use.")
	}
}
