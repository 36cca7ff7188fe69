package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all server configuration
type Config struct {
	ServerPort    int
	TransportMode string
	LogLevel      string
	LogFormat     string
	MetricsAddr   string
	ExportDir     string
	QuestDB       QuestDBConfig
	Ingest        IngestConfig
	Exchanges     map[string]ExchangeConfig
}

// QuestDBConfig holds the database connection settings. QuestDB serves its
// REST API and PostgreSQL wire protocol on separate ports.
type QuestDBConfig struct {
	Transport    string // "rest" or "pgwire"
	Host         string
	HTTPPort     int
	PGPort       int
	User         string
	Password     string
	Name         string
	QueryTimeout time.Duration
}

// IngestConfig controls the price collection pipeline
type IngestConfig struct {
	Symbols     []string
	Exchanges   []string
	Interval    time.Duration
	HTTPTimeout time.Duration
	UserAgent   string
}

// ExchangeConfig overrides per-exchange settings. Normally only set from the
// TOML config file.
type ExchangeConfig struct {
	BaseURL   string            `toml:"base_url"`
	RateLimit float64           `toml:"rate_limit"`
	SymbolMap map[string]string `toml:"symbols"`
}

type fileConfig struct {
	Exchanges map[string]ExchangeConfig `toml:"exchanges"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// LoadConfig loads the configuration from a .env file (if present),
// environment variables and an optional TOML file named by CONFIG_FILE.
func LoadConfig() (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 9092)
	if err != nil {
		return nil, err
	}
	httpPort, err := getEnvInt("QUESTDB_HTTP_PORT", 9000)
	if err != nil {
		return nil, err
	}
	pgPort, err := getEnvInt("QUESTDB_PG_PORT", 8812)
	if err != nil {
		return nil, err
	}
	queryTimeout, err := getEnvDuration("QUERY_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	interval, err := getEnvDuration("INGEST_INTERVAL", 0)
	if err != nil {
		return nil, err
	}
	httpTimeout, err := getEnvDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:    port,
		TransportMode: getEnv("TRANSPORT_MODE", "stdio"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9101"),
		ExportDir:     getEnv("EXPORT_DIR", "."),
		QuestDB: QuestDBConfig{
			Transport:    strings.ToLower(getEnv("QUESTDB_TRANSPORT", "rest")),
			Host:         getEnv("QUESTDB_HOST", "localhost"),
			HTTPPort:     httpPort,
			PGPort:       pgPort,
			User:         getEnv("QUESTDB_USER", "admin"),
			Password:     getEnv("QUESTDB_PASSWORD", "quest"),
			Name:         getEnv("QUESTDB_DATABASE", "qdb"),
			QueryTimeout: queryTimeout,
		},
		Ingest: IngestConfig{
			Symbols:     splitList(getEnv("SYMBOLS", "BTC,ETH,ADA,SOL"), true),
			Exchanges:   splitList(getEnv("EXCHANGES", "binance,coinbase,coingecko,kraken"), false),
			Interval:    interval,
			HTTPTimeout: httpTimeout,
			UserAgent:   getEnv("USER_AGENT", defaultUserAgent),
		},
		Exchanges: map[string]ExchangeConfig{},
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	for name, ex := range fc.Exchanges {
		c.Exchanges[strings.ToLower(name)] = ex
	}
	return nil
}

// Validate checks option values that would otherwise fail much later
func (c *Config) Validate() error {
	switch c.TransportMode {
	case "stdio", "sse":
	default:
		return fmt.Errorf("unknown transport mode: %s", c.TransportMode)
	}
	switch c.QuestDB.Transport {
	case "rest", "pgwire":
	default:
		return fmt.Errorf("unknown QuestDB transport: %s", c.QuestDB.Transport)
	}
	if len(c.Ingest.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	if c.Ingest.Interval < 0 {
		return fmt.Errorf("ingest interval must not be negative")
	}
	return nil
}

// QuestDBURL returns the base URL of the QuestDB REST API
func (c *Config) QuestDBURL() string {
	return fmt.Sprintf("http://%s:%d", c.QuestDB.Host, c.QuestDB.HTTPPort)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func splitList(raw string, upper bool) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if upper {
			part = strings.ToUpper(part)
		} else {
			part = strings.ToLower(part)
		}
		out = append(out, part)
	}
	return out
}
