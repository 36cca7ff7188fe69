// Package database opens the QuestDB backend selected in the configuration.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/FreePeak/crypto-mcp-server/internal/config"
	"github.com/FreePeak/crypto-mcp-server/internal/domain"
	"github.com/FreePeak/crypto-mcp-server/internal/logger"
	"github.com/FreePeak/crypto-mcp-server/pkg/db"
	"github.com/FreePeak/crypto-mcp-server/pkg/questdb"
)

// Transport names
const (
	TransportREST   = "rest"
	TransportPGWire = "pgwire"
)

// Backend runs SQL against QuestDB
type Backend interface {
	Exec(ctx context.Context, query string) (*domain.ResultSet, error)
	Ping(ctx context.Context) error
	Close() error
}

// Factory manages the creation of QuestDB backends
type Factory struct {
	connect func(db.Database) error
}

// NewFactory creates a new backend factory
func NewFactory() *Factory {
	return &Factory{connect: func(d db.Database) error { return d.Connect() }}
}

// CreateBackend opens the backend for the configured transport
func (f *Factory) CreateBackend(cfg config.QuestDBConfig) (Backend, error) {
	switch cfg.Transport {
	case TransportREST, "":
		url := fmt.Sprintf("http://%s:%d", cfg.Host, cfg.HTTPPort)
		logger.Info("Using QuestDB REST API at %s", url)
		return questdb.New(questdb.Config{
			BaseURL:  url,
			Timeout:  cfg.QueryTimeout,
			User:     cfg.User,
			Password: cfg.Password,
		}), nil

	case TransportPGWire:
		d, err := db.NewDatabase(db.Config{
			Host:     cfg.Host,
			Port:     cfg.PGPort,
			User:     cfg.User,
			Password: cfg.Password,
			Name:     cfg.Name,
		})
		if err != nil {
			return nil, err
		}
		if err := f.connect(d); err != nil {
			return nil, err
		}
		return withTimeout(d, cfg.QueryTimeout), nil

	default:
		return nil, fmt.Errorf("unsupported QuestDB transport: %s", cfg.Transport)
	}
}

// Open creates the backend from a loaded configuration
func Open(cfg *config.Config) (Backend, error) {
	return NewFactory().CreateBackend(cfg.QuestDB)
}

// timeoutBackend bounds every statement on the PG wire backend, which has no
// client-wide timeout of its own
type timeoutBackend struct {
	db.Database
	timeout time.Duration
}

func withTimeout(d db.Database, timeout time.Duration) Backend {
	if timeout <= 0 {
		return d
	}
	return &timeoutBackend{Database: d, timeout: timeout}
}

func (b *timeoutBackend) Exec(ctx context.Context, query string) (*domain.ResultSet, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.Database.Exec(ctx, query)
}
