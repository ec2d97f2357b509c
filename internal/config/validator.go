package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// ValidateConfig validates configuration values and returns an error if any are invalid.
// This function should be called after viper has loaded the configuration.
func ValidateConfig() error {
	var errors []string

	for _, key := range []string{KeySourceTimeout, KeyCacheTTL} {
		if !viper.IsSet(key) {
			continue
		}
		if d := durationOf(key); d <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %v", key, d))
		}
	}

	if viper.IsSet(KeyServerPort) {
		port := viper.GetInt(KeyServerPort)
		if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("%s must be between 1 and 65535, got: %d", KeyServerPort, port))
		}
	}

	if viper.IsSet(KeyPageSize) {
		size := viper.GetInt(KeyPageSize)
		if size <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %d", KeyPageSize, size))
		}
	}

	// Only checked when no local file replaces the remote source.
	if viper.GetString(KeySourceFile) == "" {
		raw := viper.GetString(KeySourceURL)
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("%s must be an http(s) URL, got: %q", KeySourceURL, raw))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(errors, "\n  "))
	}

	return nil
}
