// Package config loads the handover service configuration from a .env file
// and the process environment.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Placeholder values shipped in the sample .env; they mean "not configured".
const (
	PlaceholderURL = "https://your-project-id.supabase.co"
	PlaceholderKey = "your-anon-key"
)

// Environment variable names.
const (
	EnvStoreURL       = "HANDOVER_STORE_URL"
	EnvStoreKey       = "HANDOVER_STORE_KEY"
	EnvAddr           = "HANDOVER_ADDR"
	EnvAutoMigrate    = "DB_AUTO_MIGRATE"
	EnvPhotoMaxWidth  = "HANDOVER_PHOTO_MAX_WIDTH"
	EnvSessionTTL     = "HANDOVER_SESSION_TTL"
	EnvRequestTimeout = "HANDOVER_REQUEST_TIMEOUT"
)

var (
	urlFallbacks = []string{"SUPABASE_URL", "VITE_SUPABASE_URL"}
	keyFallbacks = []string{"SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY"}
)

type Config struct {
	StoreURL       string
	StoreKey       string
	Addr           string
	AutoMigrate    bool
	PhotoMaxWidth  int
	SessionTTL     time.Duration
	RequestTimeout time.Duration
	EnvFile        string
}

// Default returns a Config with every optional setting filled in and no
// store credentials.
func Default() Config {
	return Config{
		Addr:           ":8081",
		AutoMigrate:    true,
		PhotoMaxWidth:  1280,
		SessionTTL:     30 * time.Minute,
		RequestTimeout: 10 * time.Second,
		EnvFile:        ".env",
	}
}

// IsConfigured reports whether both store values are present and neither is
// a known placeholder.
func IsConfigured(url, key string) bool {
	return url != "" && key != "" && url != PlaceholderURL && key != PlaceholderKey
}

func (c Config) Configured() bool {
	return IsConfigured(c.StoreURL, c.StoreKey)
}

// Load applies envFile (if present) to the environment without overriding
// variables that are already set, then builds a Config from the environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := LoadDotEnv(envFile); err != nil {
			return Config{}, err
		}
	}
	cfg := FromEnv()
	cfg.EnvFile = envFile
	if err := cfg.applyOptional(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv reads the store credentials and address; optional numeric settings
// keep their defaults.
func FromEnv() Config {
	cfg := Default()
	cfg.StoreURL = lookup(EnvStoreURL, urlFallbacks...)
	cfg.StoreKey = lookup(EnvStoreKey, keyFallbacks...)
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		cfg.Addr = v
	}
	return cfg
}

func (c *Config) applyOptional() error {
	if v := os.Getenv(EnvAutoMigrate); v != "" {
		lv := strings.ToLower(strings.TrimSpace(v))
		if lv == "false" || lv == "0" || lv == "no" {
			c.AutoMigrate = false
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvPhotoMaxWidth)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: invalid width %q", EnvPhotoMaxWidth, v)
		}
		c.PhotoMaxWidth = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvSessionTTL)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSessionTTL, err)
		}
		c.SessionTTL = d
	}
	if v := strings.TrimSpace(os.Getenv(EnvRequestTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRequestTimeout, err)
		}
		c.RequestTimeout = d
	}
	return nil
}

func lookup(name string, fallbacks ...string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	for _, f := range fallbacks {
		if v := strings.TrimSpace(os.Getenv(f)); v != "" {
			return v
		}
	}
	return ""
}

// dotenvKeys records the variables LoadDotEnv set itself, so a reload may
// replace or unset them while variables from the real environment win.
var (
	dotenvMu   sync.Mutex
	dotenvKeys = map[string]bool{}
)

// LoadDotEnv loads key=value pairs from path into the environment without
// overwriting variables that came from the process environment. A missing
// file is not an error. Lines starting with # are ignored and surrounding
// quotes are stripped.
func LoadDotEnv(path string) error {
	vals, err := parseDotEnv(path)
	if err != nil {
		return err
	}
	dotenvMu.Lock()
	defer dotenvMu.Unlock()
	for key := range dotenvKeys {
		if _, ok := vals[key]; !ok {
			_ = os.Unsetenv(key)
			delete(dotenvKeys, key)
		}
	}
	for key, val := range vals {
		if _, exists := os.LookupEnv(key); exists && !dotenvKeys[key] {
			continue
		}
		_ = os.Setenv(key, val)
		dotenvKeys[key] = true
	}
	return nil
}

func parseDotEnv(path string) (map[string]string, error) {
	vals := map[string]string{}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return vals, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		// split on first '='
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			vals[key] = unquote(strings.TrimSpace(line[eq+1:]))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return vals, nil
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}
