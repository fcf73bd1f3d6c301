// Package config loads settings from the environment (optionally seeded from
// a .env file) with a persisted-store fallback for provider credentials.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/showgate/showgate/internal/store"
	"github.com/showgate/showgate/internal/xtream"
)

// Config holds relay server + provider settings.
type Config struct {
	// Provider (Xtream panel). Empty fields fall back to the admin store.
	ProviderURL  string
	ProviderUser string
	ProviderPass string

	// Relay server
	Addr    string // listen address, e.g. :8084
	BaseURL string // public base URL clients use, e.g. https://gate.example.com

	// Paths
	StorePath   string // SQLite admin settings db
	CatalogPath string // saved catalog JSON for the fetch subcommand

	// Behavior
	RequestTimeout time.Duration // per provider call; panels are often slow
	PageSize       int           // default page size when the client sends none
	NativeHost     bool          // true when running inside the native shell
}

// Load reads config from environment. Call LoadEnvFile(".env") before Load()
// to use a .env file.
func Load() *Config {
	c := &Config{
		ProviderURL:    os.Getenv("SHOWGATE_PROVIDER_URL"),
		ProviderUser:   os.Getenv("SHOWGATE_PROVIDER_USER"),
		ProviderPass:   os.Getenv("SHOWGATE_PROVIDER_PASS"),
		Addr:           getEnv("SHOWGATE_ADDR", ":8084"),
		BaseURL:        getEnv("SHOWGATE_BASE_URL", "http://localhost:8084"),
		StorePath:      getEnv("SHOWGATE_STORE", "./showgate.db"),
		CatalogPath:    getEnv("SHOWGATE_CATALOG", "./catalog.json"),
		RequestTimeout: getEnvDuration("SHOWGATE_REQUEST_TIMEOUT", xtream.DefaultTimeout),
		PageSize:       getEnvInt("SHOWGATE_PAGE_SIZE", 20),
		NativeHost:     getEnvBool("SHOWGATE_NATIVE_HOST", false),
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = xtream.DefaultTimeout
	}
	if c.PageSize <= 0 {
		c.PageSize = 20
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	return c
}

// ProxyEndpoint is the public URL of the transport relay, used for the
// insecure-source rewrite.
func (c *Config) ProxyEndpoint() string {
	return c.BaseURL + "/proxy"
}

// Credentials resolves provider credentials: environment first, persisted
// admin store for whatever the environment leaves empty. st may be nil.
func (c *Config) Credentials(st *store.Store) (xtream.Credentials, error) {
	creds := xtream.Credentials{
		BaseURL:  c.ProviderURL,
		Username: c.ProviderUser,
		Password: c.ProviderPass,
	}.Normalize()
	if creds.Complete() || st == nil {
		return creds, nil
	}
	stored, err := st.Credentials()
	if err != nil {
		return creds, err
	}
	if creds.BaseURL == "" {
		creds.BaseURL = stored.BaseURL
	}
	if creds.Username == "" {
		creds.Username = stored.Username
	}
	if creds.Password == "" {
		creds.Password = stored.Password
	}
	return creds.Normalize(), nil
}

// IsNativeHost reports whether we run inside the native shell, where the
// client reaches the provider directly instead of through the relay.
func (c *Config) IsNativeHost() bool {
	return c.NativeHost
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, _ := strconv.Atoi(v)
		return n
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
