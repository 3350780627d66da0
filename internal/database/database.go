package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/emilythestrangee/ystore/backend/internal/auth"
	"github.com/emilythestrangee/ystore/backend/internal/comments"
	"github.com/emilythestrangee/ystore/backend/internal/config"
)

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Migrate creates tables or indexes the stores rely on. It is idempotent.
	Migrate(ctx context.Context) error

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error
}

// Backend is one storage driver serving both collections.
type Backend interface {
	Service
	comments.Store
	auth.UserStore
}

var (
	_ Backend = (*PostgresStore)(nil)
	_ Backend = (*MongoStore)(nil)
	_ Backend = (*MemoryStore)(nil)
)

// New opens the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.DatabaseConfig, develop bool) (Backend, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg, develop)
	case config.DriverMongo:
		return OpenMongo(ctx, cfg)
	case config.DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, errors.Errorf("database:New: unknown driver %q", cfg.Driver)
	}
}
