package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validConfig = `
feed:
  host: euro.aprs2.net
  callsign: URCAL
  ssid: "15"
  passcode: "12345"
storage:
  path: ./messages.db
mastodon:
  base_url: https://some.instance
  account: op@example.org
  password: hunter2
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "euro.aprs2.net", cfg.Feed.Host)
	assert.Equal(t, "URCAL-15", cfg.Feed.Station())
	assert.Equal(t, "https://some.instance", cfg.Mastodon.BaseURL)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, 14580, cfg.Feed.Port)
	assert.Equal(t, "t/m", cfg.Feed.Filter)
	assert.Equal(t, "md5", cfg.Storage.HashAlgorithm)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 1*time.Second, cfg.Reconnect.InitialInterval)
	assert.Equal(t, 2*time.Minute, cfg.Reconnect.MaxInterval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateStatic(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8080},
			Feed: FeedConfig{
				Host:     "euro.aprs2.net",
				Port:     14580,
				Callsign: "URCAL",
				SSID:     "15",
				Passcode: "12345",
			},
			Storage: StorageConfig{Path: "./messages.db", HashAlgorithm: "md5"},
			Mastodon: MastodonConfig{
				BaseURL:  "https://some.instance",
				Account:  "op@example.org",
				Password: "hunter2",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing feed host",
			mutate:  func(c *Config) { c.Feed.Host = "" },
			wantErr: true,
		},
		{
			name:    "feed port out of range",
			mutate:  func(c *Config) { c.Feed.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "callsign contains ssid",
			mutate:  func(c *Config) { c.Feed.Callsign = "URCAL-15" },
			wantErr: true,
		},
		{
			name:    "missing passcode",
			mutate:  func(c *Config) { c.Feed.Passcode = "" },
			wantErr: true,
		},
		{
			name:    "missing storage path",
			mutate:  func(c *Config) { c.Storage.Path = "" },
			wantErr: true,
		},
		{
			name:    "bad hash algorithm",
			mutate:  func(c *Config) { c.Storage.HashAlgorithm = "crc32" },
			wantErr: true,
		},
		{
			name:    "base url without scheme",
			mutate:  func(c *Config) { c.Mastodon.BaseURL = "some.instance" },
			wantErr: true,
		},
		{
			name:    "missing mastodon password",
			mutate:  func(c *Config) { c.Mastodon.Password = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := ValidateStatic(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
