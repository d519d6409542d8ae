package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/natserract/aukro/pkg/aukro"
	httpclient "github.com/natserract/aukro/pkg/http"
	"github.com/natserract/aukro/pkg/postgres"
	"github.com/natserract/aukro/pkg/session"
	"github.com/natserract/aukro/pkg/soap"
)

const (
	DefaultCountry     = "CZ"
	DefaultSessionFile = ".aukro-session.json"
	DefaultRedisAddr   = "localhost:6379"
	DefaultLogLevel    = "info"
)

type Config struct {
	Username     string
	APIKey       string
	PasswordHash string
	Country      aukro.CountryCode
	// VersionKey is optional; an empty key is fetched with doQuerySysStatus at startup
	VersionKey string
	SOAP       soap.Config
	Session    session.Config
	LogLevel   string
}

// fileConfig is the optional YAML file. Every value can be overridden by its environment variable.
type fileConfig struct {
	Aukro struct {
		Username     string `yaml:"username"`
		APIKey       string `yaml:"api_key"`
		PasswordHash string `yaml:"password_hash"`
		Password     string `yaml:"password"`
		Country      string `yaml:"country"`
		VersionKey   string `yaml:"version_key"`
		Endpoint     string `yaml:"endpoint"`
		Namespace    string `yaml:"namespace"`
		Timeout      string `yaml:"timeout"`
		MaxRetries   string `yaml:"max_retries"`
	} `yaml:"aukro"`
	Session struct {
		Store string `yaml:"store"`
		Name  string `yaml:"name"`
		File  string `yaml:"file"`
		TTL   string `yaml:"ttl"`
	} `yaml:"session"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       string `yaml:"db"`
	} `yaml:"redis"`
	LogLevel string `yaml:"log_level"`
}

// Load reads .env (if present), the YAML file at path (or CONFIG_PATH when path is empty)
// and the environment, in increasing order of precedence.
func Load(path string) (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var file fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg, err := build(&file)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func build(file *fileConfig) (*Config, error) {
	cfg := &Config{
		Username:     value("AUKRO_USERNAME", file.Aukro.Username, ""),
		APIKey:       value("AUKRO_API_KEY", file.Aukro.APIKey, ""),
		PasswordHash: value("AUKRO_PASSWORD_HASH", file.Aukro.PasswordHash, ""),
		VersionKey:   value("AUKRO_VERSION_KEY", file.Aukro.VersionKey, ""),
		SOAP: soap.Config{
			Endpoint:  value("AUKRO_ENDPOINT", file.Aukro.Endpoint, soap.DefaultEndpoint),
			Namespace: value("AUKRO_NAMESPACE", file.Aukro.Namespace, soap.DefaultNamespace),
		},
		LogLevel: value("LOG_LEVEL", file.LogLevel, DefaultLogLevel),
	}

	if cfg.PasswordHash == "" {
		if plain := value("AUKRO_PASSWORD", file.Aukro.Password, ""); plain != "" {
			cfg.PasswordHash = aukro.HashPassword(plain)
		}
	}

	country, err := aukro.ParseCountryCode(value("AUKRO_COUNTRY", file.Aukro.Country, DefaultCountry))
	if err != nil {
		return nil, fmt.Errorf("invalid AUKRO_COUNTRY: %w", err)
	}
	cfg.Country = country

	if cfg.SOAP.Timeout, err = parseDuration("AUKRO_TIMEOUT", file.Aukro.Timeout, soap.DefaultTimeout); err != nil {
		return nil, err
	}
	if cfg.SOAP.MaxRetries, err = parseInt("AUKRO_MAX_RETRIES", file.Aukro.MaxRetries, 0); err != nil {
		return nil, err
	}

	defaultName := fmt.Sprintf("%s@%d", cfg.Username, country.Value())
	cfg.Session = session.Config{
		Store: value("SESSION_STORE", file.Session.Store, session.StoreMemory),
		Name:  value("SESSION_NAME", file.Session.Name, defaultName),
		File:  value("SESSION_FILE", file.Session.File, DefaultSessionFile),
		Redis: session.RedisConfig{
			Addr:     value("REDIS_ADDR", file.Redis.Addr, DefaultRedisAddr),
			Password: value("REDIS_PASSWORD", file.Redis.Password, ""),
		},
	}
	if cfg.Session.TTL, err = parseDuration("SESSION_TTL", file.Session.TTL, 0); err != nil {
		return nil, err
	}
	if cfg.Session.Redis.DB, err = parseInt("REDIS_DB", file.Redis.DB, 0); err != nil {
		return nil, err
	}
	if cfg.Session.Store == session.StorePostgres {
		cfg.Session.Postgres = postgres.NewConfig()
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("AUKRO_USERNAME is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("AUKRO_API_KEY is required")
	}
	if c.PasswordHash == "" {
		return fmt.Errorf("AUKRO_PASSWORD_HASH or AUKRO_PASSWORD is required")
	}
	if _, err := httpclient.ParseEndpoint(c.SOAP.Endpoint); err != nil {
		return fmt.Errorf("invalid AUKRO_ENDPOINT: %w", err)
	}
	if c.SOAP.Timeout <= 0 {
		return fmt.Errorf("AUKRO_TIMEOUT must be positive")
	}
	if c.SOAP.MaxRetries < 0 {
		return fmt.Errorf("AUKRO_MAX_RETRIES must not be negative")
	}
	switch c.Session.Store {
	case session.StoreMemory, session.StoreFile, session.StoreRedis, session.StorePostgres:
	default:
		return fmt.Errorf("SESSION_STORE %q is not one of memory, file, redis, postgres", c.Session.Store)
	}
	return nil
}

// Identity returns the credentials as an aukro.Identity
func (c *Config) Identity() aukro.Identity {
	return aukro.NewIdentity(c.Username, c.APIKey, c.PasswordHash)
}

// value returns the environment variable key, else fileValue, else def
func value(key, fileValue, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if fileValue != "" {
		return fileValue
	}
	return def
}

func parseDuration(key, fileValue string, def time.Duration) (time.Duration, error) {
	raw := value(key, fileValue, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseInt(key, fileValue string, def int) (int, error) {
	raw := value(key, fileValue, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
