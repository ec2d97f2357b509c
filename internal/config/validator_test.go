package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name      string
		setup     func()
		wantError bool
		errMsg    string
	}{
		{
			name:      "Defaults",
			wantError: false,
		},
		{
			name: "Valid Configuration",
			setup: func() {
				viper.Set(KeySourceTimeout, "30s")
				viper.Set(KeyCacheTTL, "5m")
				viper.Set(KeyServerPort, 8080)
				viper.Set(KeyPageSize, 25)
			},
			wantError: false,
		},
		{
			name: "Invalid Timeout (Negative Duration)",
			setup: func() {
				viper.Set(KeySourceTimeout, -10*time.Second)
			},
			wantError: true,
			errMsg:    "source.timeout must be positive",
		},
		{
			name: "Invalid Timeout (Negative Int)",
			setup: func() {
				viper.Set(KeySourceTimeout, -10)
			},
			wantError: true,
			errMsg:    "source.timeout must be positive",
		},
		{
			name: "Invalid Cache TTL",
			setup: func() {
				viper.Set(KeyCacheTTL, "0s")
			},
			wantError: true,
			errMsg:    "cache.ttl must be positive",
		},
		{
			name: "Invalid Port (Too Low)",
			setup: func() {
				viper.Set(KeyServerPort, 0)
			},
			wantError: true,
			errMsg:    "server.port must be between 1 and 65535",
		},
		{
			name: "Invalid Port (Too High)",
			setup: func() {
				viper.Set(KeyServerPort, 70000)
			},
			wantError: true,
			errMsg:    "server.port must be between 1 and 65535",
		},
		{
			name: "Invalid Page Size",
			setup: func() {
				viper.Set(KeyPageSize, 0)
			},
			wantError: true,
			errMsg:    "table.page_size must be positive",
		},
		{
			name: "Invalid Source URL",
			setup: func() {
				viper.Set(KeySourceURL, "ftp://example.test/data")
			},
			wantError: true,
			errMsg:    "source.url must be an http(s) URL",
		},
		{
			name: "Source URL Ignored With File",
			setup: func() {
				viper.Set(KeySourceURL, "")
				viper.Set(KeySourceFile, "snapshot.json")
			},
			wantError: false,
		},
		{
			name: "Multiple Errors",
			setup: func() {
				viper.Set(KeySourceTimeout, -5)
				viper.Set(KeyServerPort, 80000)
			},
			wantError: true,
			errMsg:    "configuration validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			SetDefaults()

			if tt.setup != nil {
				tt.setup()
			}

			err := ValidateConfig()
			if tt.wantError {
				if err == nil {
					t.Errorf("ValidateConfig() expected error, got nil")
				} else if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ValidateConfig() error = %v, want error containing %v", err, tt.errMsg)
				}
			} else {
				if err != nil {
					t.Errorf("ValidateConfig() unexpected error: %v", err)
				}
			}
		})
	}
	viper.Reset()
}

func TestValidateConfig_ReportsEveryViolation(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()
	viper.Set(KeySourceTimeout, -1)
	viper.Set(KeyServerPort, 0)
	viper.Set(KeyPageSize, -3)

	err := ValidateConfig()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{KeySourceTimeout, KeyServerPort, KeyPageSize} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
