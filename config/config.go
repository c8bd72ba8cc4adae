// Package config loads runtime settings for the server, relay and browser
// pool.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before mapping them to
// keys: LMSASSIST_SERVER_ADDR -> server.addr.
const EnvPrefix = "LMSASSIST_"

type Config struct {
	Server  Server  `koanf:"server"`
	Redis   Redis   `koanf:"redis"`
	Browser Browser `koanf:"browser"`
	Fetch   Fetch   `koanf:"fetch"`
	Log     Log     `koanf:"log"`
}

type Server struct {
	Addr           string   `koanf:"addr" validate:"required"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type Redis struct {
	Addr     string `koanf:"addr" validate:"required"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"min=0"`
	Channel  string `koanf:"channel" validate:"required"`
}

type Browser struct {
	PoolSize        int           `koanf:"pool_size" validate:"min=1,max=32"`
	Headless        bool          `koanf:"headless"`
	ExecPath        string        `koanf:"exec_path"`
	UserAgent       string        `koanf:"user_agent"`
	NavigateTimeout time.Duration `koanf:"navigate_timeout" validate:"min=1s"`
	AcquireTimeout  time.Duration `koanf:"acquire_timeout" validate:"min=1ms"`
}

type Fetch struct {
	Timeout   time.Duration `koanf:"timeout" validate:"min=1ms"`
	UserAgent string        `koanf:"user_agent"`
}

type Log struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:           ":8000",
			AllowedOrigins: []string{"*"},
		},
		Redis: Redis{
			Addr:    "localhost:6379",
			Channel: "lmsassist:requests",
		},
		Browser: Browser{
			PoolSize:        2,
			Headless:        true,
			UserAgent:       userAgent,
			NavigateTimeout: 15 * time.Second,
			AcquireTimeout:  3 * time.Second,
		},
		Fetch: Fetch{
			Timeout:   30 * time.Second,
			UserAgent: userAgent,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load layers defaults, the optional YAML file at path, a .env file in the
// working directory and LMSASSIST_* environment variables, in that order,
// then validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// envKey maps LMSASSIST_BROWSER_POOL_SIZE to browser.pool_size: the first
// segment names the section, the rest is the field.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, found := strings.Cut(lower, "_")
	if !found {
		return lower
	}
	return section + "." + field
}
