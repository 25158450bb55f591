package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Gmail    GmailConfig    `mapstructure:"gmail"`
	App      AppConfig      `mapstructure:"app"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GmailConfig holds Gmail API credentials for certificate delivery.
// The client id/secret/refresh token triple is exchanged for a short-lived
// access token once per delivery run.
type GmailConfig struct {
	ClientID      string `mapstructure:"client_id"`
	ClientSecret  string `mapstructure:"client_secret"`
	RefreshToken  string `mapstructure:"refresh_token"`
	SenderAddress string `mapstructure:"sender_address"`
	SenderName    string `mapstructure:"sender_name"`
}

// AppConfig holds registry-wide settings used when composing certificates
// and their emails.
type AppConfig struct {
	// BaseURL is the public application URL embedded in certificate links.
	BaseURL string `mapstructure:"base_url"`
	// Name is the registry name used in email sign-offs.
	Name string `mapstructure:"name"`
	// ProviderName is the fallback ACE provider name printed on
	// certificates when the event carries no organization name.
	ProviderName string `mapstructure:"provider_name"`
	// DefaultSubject is used when an event has no custom email subject.
	DefaultSubject string `mapstructure:"default_subject"`
	// SignatureFontURL points at the decorative script font used for
	// rendered text signatures.
	SignatureFontURL string `mapstructure:"signature_font_url"`
}

// FontURL resolves the decorative signature font reference, deriving it
// from the public base URL when not configured explicitly.
func (c AppConfig) FontURL() string {
	if c.SignatureFontURL != "" {
		return c.SignatureFontURL
	}
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/") + "/fonts/AlexBrush-Regular.ttf"
	}
	return ""
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ceureg")

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Bind environment variables
	v.SetEnvPrefix("CEUREG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "ceureg")
	v.SetDefault("database.user", "ceureg")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 25)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Gmail defaults
	v.SetDefault("gmail.client_id", "")
	v.SetDefault("gmail.client_secret", "")
	v.SetDefault("gmail.refresh_token", "")
	v.SetDefault("gmail.sender_address", "")
	v.SetDefault("gmail.sender_name", "CEU Registry")

	// App defaults
	v.SetDefault("app.base_url", "")
	v.SetDefault("app.name", "CEU Registry")
	v.SetDefault("app.provider_name", "CEU Registry")
	v.SetDefault("app.default_subject", "Your CEU Certificate is Ready!")
	v.SetDefault("app.signature_font_url", "")
}
