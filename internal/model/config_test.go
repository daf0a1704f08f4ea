package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "procurement.db", cfg.DBPath)
	assert.Equal(t, ":5000", cfg.HTTP.Addr)
	assert.Equal(t, "993", cfg.IMAP.Port)
	assert.True(t, cfg.IMAP.TLS)
	assert.Equal(t, 300, cfg.IMAP.PollIntervalSec)
	assert.Equal(t, "465", cfg.SMTP.Port)
	assert.Equal(t, "https://api.openai.com/v1", cfg.AI.BaseURL)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
db_path: /var/lib/procurement/data.db
http:
  addr: ":8080"
imap:
  host: imap.buyer.test
  username: procurement@buyer.test
  password: secret
smtp:
  host: smtp.buyer.test
  from_address: procurement@buyer.test
ai:
  api_key: sk-test
  model: gpt-4o
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/procurement/data.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "imap.buyer.test", cfg.IMAP.Host)
	assert.Equal(t, "procurement@buyer.test", cfg.IMAP.Username)
	assert.Equal(t, "smtp.buyer.test", cfg.SMTP.Host)
	assert.Equal(t, "gpt-4o", cfg.AI.Model)

	// Unset keys keep their defaults.
	assert.Equal(t, "993", cfg.IMAP.Port)
	assert.Equal(t, 30, cfg.SMTP.SendTimeoutSec)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PROCUREMENT_AI_API_KEY", "sk-from-env")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.AI.APIKey)
}
