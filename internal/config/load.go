package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration keys.
const (
	KeySourceURL     = "source.url"
	KeySourceFile    = "source.file"
	KeySourceTimeout = "source.timeout"
	KeyCacheTTL      = "cache.ttl"
	KeyServerHost    = "server.host"
	KeyServerPort    = "server.port"
	KeyStorePath     = "store.path"
	KeyPageSize      = "table.page_size"
	KeyVerbose       = "verbose"
	KeyLogFile       = "log_file"
)

// The source defaults to the backend the dashboard was written against;
// the server listens on its own port.
const (
	DefaultSourceURL = "http://127.0.0.1:5000/fetch_data"
	DefaultTimeout   = 10 * time.Second
	DefaultCacheTTL  = 60 * time.Minute
	DefaultHost      = "127.0.0.1"
	DefaultPort      = 8080
	DefaultStorePath = ".cvedash.db"
	DefaultPageSize  = 10
)

// Settings is a typed view of the loaded configuration.
type Settings struct {
	SourceURL     string
	SourceFile    string
	SourceTimeout time.Duration
	CacheTTL      time.Duration
	ServerHost    string
	ServerPort    int
	StorePath     string
	PageSize      int
	Verbose       bool
	LogFile       string
}

// Addr is the listen address of the web server.
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.ServerHost, s.ServerPort)
}

// ReadsOwnEndpoint reports whether the remote source is this server's own
// /fetch_data, which would make every fetch wait on itself.
func (s Settings) ReadsOwnEndpoint() bool {
	if s.SourceFile != "" {
		return false
	}
	u, err := url.Parse(s.SourceURL)
	if err != nil || strings.TrimSuffix(u.Path, "/") != "/fetch_data" {
		return false
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	if port != strconv.Itoa(s.ServerPort) {
		return false
	}
	host := u.Hostname()
	return strings.EqualFold(host, s.ServerHost) || (isLocalHost(host) && isLocalHost(s.ServerHost))
}

func isLocalHost(host string) bool {
	switch strings.ToLower(host) {
	case "", "localhost", "0.0.0.0", "::":
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault(KeySourceURL, DefaultSourceURL)
	viper.SetDefault(KeySourceFile, "")
	viper.SetDefault(KeySourceTimeout, DefaultTimeout)
	viper.SetDefault(KeyCacheTTL, DefaultCacheTTL)
	viper.SetDefault(KeyServerHost, DefaultHost)
	viper.SetDefault(KeyServerPort, DefaultPort)
	viper.SetDefault(KeyStorePath, DefaultStorePath)
	viper.SetDefault(KeyPageSize, DefaultPageSize)
	viper.SetDefault(KeyVerbose, false)
	viper.SetDefault(KeyLogFile, "")
}

// Load initializes the configuration from file and environment variables.
// A missing config file is not an error; an unreadable one is.
func Load(cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("CVEDASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if cfgFile == "" && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	return nil
}

// Current returns the settings as currently resolved by viper.
func Current() Settings {
	return Settings{
		SourceURL:     viper.GetString(KeySourceURL),
		SourceFile:    viper.GetString(KeySourceFile),
		SourceTimeout: durationOf(KeySourceTimeout),
		CacheTTL:      durationOf(KeyCacheTTL),
		ServerHost:    viper.GetString(KeyServerHost),
		ServerPort:    viper.GetInt(KeyServerPort),
		StorePath:     viper.GetString(KeyStorePath),
		PageSize:      viper.GetInt(KeyPageSize),
		Verbose:       viper.GetBool(KeyVerbose),
		LogFile:       viper.GetString(KeyLogFile),
	}
}

// durationOf reads a duration, accepting bare integers as seconds.
func durationOf(key string) time.Duration {
	switch v := viper.Get(key).(type) {
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return viper.GetDuration(key)
}
