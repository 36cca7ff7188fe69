package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// QuestDB speaks the PostgreSQL wire protocol
	_ "github.com/lib/pq"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
	"github.com/FreePeak/crypto-mcp-server/internal/logger"
)

// Common database errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNoDatabase   = errors.New("no database connection")
)

// Config represents database connection configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// SetDefaults sets default values for the configuration if they are not set
func (c *Config) SetDefaults() {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 10
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 2
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
}

// Database is a QuestDB connection over the PostgreSQL wire protocol
type Database interface {
	Exec(ctx context.Context, query string) (*domain.ResultSet, error)
	Connect() error
	Close() error
	Ping(ctx context.Context) error
	ConnectionString() string
	DB() *sql.DB
}

type database struct {
	config Config
	db     *sql.DB
	dsn    string
}

// NewDatabase creates a database handle. Connect must be called before use.
func NewDatabase(config Config) (Database, error) {
	if config.Host == "" || config.Port == 0 {
		return nil, fmt.Errorf("%w: host and port are required", ErrInvalidInput)
	}
	config.SetDefaults()

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		config.Host, config.Port, config.User, config.Password, config.Name)

	return &database{
		config: config,
		dsn:    dsn,
	}, nil
}

// NewFromDB wraps an already opened *sql.DB
func NewFromDB(sqlDB *sql.DB) Database {
	return &database{db: sqlDB}
}

// Connect establishes a connection to the database
func (d *database) Connect() error {
	db, err := sql.Open("postgres", d.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(d.config.MaxOpenConns)
	db.SetMaxIdleConns(d.config.MaxIdleConns)
	db.SetConnMaxLifetime(d.config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(d.config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Warn("Error closing database connection: %v", closeErr)
		}
		return fmt.Errorf("failed to ping database: %w", err)
	}

	d.db = db
	logger.Info("Connected to QuestDB (pgwire) at %s:%d/%s", d.config.Host, d.config.Port, d.config.Name)
	return nil
}

// Close closes the database connection
func (d *database) Close() error {
	if d.db == nil {
		return nil
	}
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("error closing database connection: %w", err)
	}
	return nil
}

// Ping checks if the database connection is still alive
func (d *database) Ping(ctx context.Context) error {
	if d.db == nil {
		return ErrNoDatabase
	}
	return d.db.PingContext(ctx)
}

// Exec runs a statement and collects any rows into a ResultSet
func (d *database) Exec(ctx context.Context, query string) (*domain.ResultSet, error) {
	if d.db == nil {
		return nil, ErrNoDatabase
	}
	logger.QueryLog("pgwire", query, 500)

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logger.Debug("error closing rows: %v", closeErr)
		}
	}()

	rs, err := scanResultSet(rows)
	if err != nil {
		return nil, err
	}
	rs.Query = query
	return rs, nil
}

// DB returns the underlying database connection
func (d *database) DB() *sql.DB {
	return d.db
}

// ConnectionString returns the connection string (with password masked)
func (d *database) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=*** dbname=%s sslmode=disable",
		d.config.Host, d.config.Port, d.config.User, d.config.Name)
}

func scanResultSet(rows *sql.Rows) (*domain.ResultSet, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	rs := &domain.ResultSet{Columns: make([]domain.Column, len(types))}
	for i, ct := range types {
		rs.Columns[i] = domain.Column{Name: ct.Name(), Type: ct.DatabaseTypeName()}
	}

	for rows.Next() {
		values := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			values[i] = normalize(v)
		}
		rs.Dataset = append(rs.Dataset, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	rs.Count = len(rs.Dataset)
	return rs, nil
}

// normalize maps driver values onto the types the REST API would return
func normalize(v any) any {
	switch val := v.(type) {
	case []byte:
		if f, ok := domain.ToFloat(val); ok {
			return f
		}
		return string(val)
	case int64:
		return float64(val)
	case time.Time:
		return val.UTC().Format("2006-01-02T15:04:05.000000Z")
	default:
		return val
	}
}
