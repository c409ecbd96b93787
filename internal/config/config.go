package config

import (
	"fmt"
	"time"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Feed           FeedConfig           `mapstructure:"feed"`
	Storage        StorageConfig        `mapstructure:"storage"`
	Mastodon       MastodonConfig       `mapstructure:"mastodon"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Reconnect      ReconnectConfig      `mapstructure:"reconnect"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
}

// ServerConfig covers the operational HTTP listener (health, metrics).
type ServerConfig struct {
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
}

// FeedConfig identifies the APRS-IS server and the station this bridge
// listens as. Callsign and SSID together form the addressee the parser
// matches on, e.g. URCAL-15.
type FeedConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Callsign    string        `mapstructure:"callsign"`
	SSID        string        `mapstructure:"ssid"`
	Passcode    string        `mapstructure:"passcode"`
	Filter      string        `mapstructure:"filter"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// Station returns the callsign-SSID identity used in the login line, the
// parser addressee match and outgoing acknowledgments.
func (f FeedConfig) Station() string {
	return fmt.Sprintf("%s-%s", f.Callsign, f.SSID)
}

type StorageConfig struct {
	Path          string `mapstructure:"path"`
	HashAlgorithm string `mapstructure:"hash_algorithm"`
}

type MastodonConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	Account          string        `mapstructure:"account"`
	Password         string        `mapstructure:"password"`
	ClientSecretFile string        `mapstructure:"client_secret_file"`
	TokenFile        string        `mapstructure:"token_file"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ReconnectConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}
