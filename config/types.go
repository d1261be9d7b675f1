package config

// Config represents the complete configuration structure
type Config struct {
	FMC     FMCConfig     `mapstructure:"fmc"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// FMCConfig holds FMC connection details and client limits
type FMCConfig struct {
	Host           string `mapstructure:"host"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	VerifySSL      bool   `mapstructure:"verify_ssl"`
	DomainUUID     string `mapstructure:"domain_uuid"`
	Timeout        int    `mapstructure:"timeout"`
	RateLimit      int    `mapstructure:"rate_limit"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
