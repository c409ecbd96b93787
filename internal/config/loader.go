package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func Load(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout_seconds", 10*time.Second)
	viper.SetDefault("server.write_timeout_seconds", 10*time.Second)

	viper.SetDefault("feed.port", 14580)
	viper.SetDefault("feed.filter", "t/m")
	viper.SetDefault("feed.dial_timeout", 15*time.Second)
	viper.SetDefault("feed.idle_timeout", 2*time.Minute)

	viper.SetDefault("storage.path", "./messages.db")
	viper.SetDefault("storage.hash_algorithm", "md5")

	viper.SetDefault("mastodon.client_secret_file", "./fedicli.secret")
	viper.SetDefault("mastodon.token_file", "./fediacc.secret")
	viper.SetDefault("mastodon.timeout", 15*time.Second)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("reconnect.initial_interval", 1*time.Second)
	viper.SetDefault("reconnect.max_interval", 2*time.Minute)
	viper.SetDefault("reconnect.multiplier", 2.0)

	viper.SetDefault("rate_limit.rps", 0.5)
	viper.SetDefault("rate_limit.burst", 3)
}

func bindEnvVariables() {
	viper.BindEnv("feed.host", "FEED_HOST")
	viper.BindEnv("feed.port", "FEED_PORT")
	viper.BindEnv("feed.callsign", "FEED_CALLSIGN")
	viper.BindEnv("feed.ssid", "FEED_SSID")
	viper.BindEnv("feed.passcode", "FEED_PASSCODE")
	viper.BindEnv("feed.filter", "FEED_FILTER")

	viper.BindEnv("storage.path", "STORAGE_PATH")

	viper.BindEnv("mastodon.base_url", "MASTODON_BASE_URL")
	viper.BindEnv("mastodon.account", "MASTODON_ACCOUNT")
	viper.BindEnv("mastodon.password", "MASTODON_PASSWORD")
	viper.BindEnv("mastodon.client_secret_file", "MASTODON_CLIENT_SECRET_FILE")
	viper.BindEnv("mastodon.token_file", "MASTODON_TOKEN_FILE")

	viper.BindEnv("server.port", "SERVER_PORT")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")
}
