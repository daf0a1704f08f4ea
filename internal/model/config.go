package model

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// HTTPConfig holds settings for the buyer-facing API server.
type HTTPConfig struct {
	Addr           string   `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// IMAPConfig holds the inbound mailbox connection settings.
type IMAPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`

	// PollIntervalSec is the fallback poll cadence used between IDLE
	// notifications.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// SMTPConfig holds the outbound mail transport settings.
type SMTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`

	// FromAddress is the address RFP invitations are sent from and
	// the address vendors reply to.
	FromAddress string `mapstructure:"from_address" yaml:"from_address"`

	// SendTimeoutSec bounds a single transport call so one hanging
	// send cannot stall the rest of a dispatch.
	SendTimeoutSec int `mapstructure:"send_timeout_sec" yaml:"send_timeout_sec"`
}

// AIConfig holds settings for the extraction/analysis oracle.
type AIConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`
	Model      string `mapstructure:"model" yaml:"model"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	DBPath string     `mapstructure:"db_path" yaml:"db_path"`
	HTTP   HTTPConfig `mapstructure:"http" yaml:"http"`
	IMAP   IMAPConfig `mapstructure:"imap" yaml:"imap"`
	SMTP   SMTPConfig `mapstructure:"smtp" yaml:"smtp"`
	AI     AIConfig   `mapstructure:"ai" yaml:"ai"`
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		DBPath: "procurement.db",
		HTTP: HTTPConfig{
			Addr:           ":5000",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		IMAP: IMAPConfig{
			Port:            "993",
			TLS:             true,
			PollIntervalSec: 300,
		},
		SMTP: SMTPConfig{
			Port:           "465",
			TLS:            true,
			SendTimeoutSec: 30,
		},
		AI: AIConfig{
			BaseURL:    "https://api.openai.com/v1",
			Model:      "gpt-4-turbo-preview",
			TimeoutSec: 60,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using
// Viper, overlaying PROCUREMENT_* environment variables. A missing
// file is not an error; defaults plus environment apply.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("procurement")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db_path", "procurement.db")
	v.SetDefault("http.addr", ":5000")
	v.SetDefault("http.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("imap.host", "")
	v.SetDefault("imap.port", "993")
	v.SetDefault("imap.username", "")
	v.SetDefault("imap.password", "")
	v.SetDefault("imap.tls", true)
	v.SetDefault("imap.poll_interval_sec", 300)
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", "465")
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.tls", true)
	v.SetDefault("smtp.from_address", "")
	v.SetDefault("smtp.send_timeout_sec", 30)
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gpt-4-turbo-preview")
	v.SetDefault("ai.timeout_sec", 60)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return unmarshalConfig(v)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return unmarshalConfig(v)
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	return unmarshalConfig(v)
}

func unmarshalConfig(v *viper.Viper) (*AppConfig, error) {
	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
