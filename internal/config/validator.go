package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errs []error

	if err := validateServer(cfg.Server); err != nil {
		errs = append(errs, err)
	}

	if err := validateFeed(cfg.Feed); err != nil {
		errs = append(errs, err)
	}

	if err := validateStorage(cfg.Storage); err != nil {
		errs = append(errs, err)
	}

	if err := validateMastodon(cfg.Mastodon); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}
	return nil
}

func validateFeed(cfg FeedConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "feed.host",
			Message: "APRS-IS server host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "feed.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.Callsign == "" {
		return &ValidationError{
			Field:   "feed.callsign",
			Message: "callsign is required",
		}
	}

	if strings.Contains(cfg.Callsign, "-") {
		return &ValidationError{
			Field:   "feed.callsign",
			Message: "callsign must not include the SSID, configure feed.ssid separately",
		}
	}

	if cfg.SSID == "" {
		return &ValidationError{
			Field:   "feed.ssid",
			Message: "SSID is required",
		}
	}

	if cfg.Passcode == "" {
		return &ValidationError{
			Field:   "feed.passcode",
			Message: "APRS-IS passcode is required",
		}
	}

	return nil
}

func validateStorage(cfg StorageConfig) error {
	if cfg.Path == "" {
		return &ValidationError{
			Field:   "storage.path",
			Message: "database file path is required",
		}
	}

	switch cfg.HashAlgorithm {
	case "", "md5", "sha256":
	default:
		return &ValidationError{
			Field:   "storage.hash_algorithm",
			Message: fmt.Sprintf("unsupported hash algorithm %q, want md5 or sha256", cfg.HashAlgorithm),
		}
	}

	return nil
}

func validateMastodon(cfg MastodonConfig) error {
	if cfg.BaseURL == "" {
		return &ValidationError{
			Field:   "mastodon.base_url",
			Message: "instance base URL is required",
		}
	}

	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return &ValidationError{
			Field:   "mastodon.base_url",
			Message: "base URL must start with http:// or https://",
		}
	}

	if cfg.Account == "" {
		return &ValidationError{
			Field:   "mastodon.account",
			Message: "account e-mail is required",
		}
	}

	if cfg.Password == "" {
		return &ValidationError{
			Field:   "mastodon.password",
			Message: "account password is required",
		}
	}

	return nil
}
