package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"homestock/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// New opens a Postgres connection pool using the pgx stdlib driver and
// verifies connectivity before returning.
func New(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.Schema,
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Health reports basic connectivity and pool statistics.
func Health(ctx context.Context, db *sql.DB) map[string]string {
	health := map[string]string{"status": "up"}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		health["status"] = "down"
		health["error"] = err.Error()
		return health
	}

	stats := db.Stats()
	health["open_connections"] = fmt.Sprintf("%d", stats.OpenConnections)
	health["in_use"] = fmt.Sprintf("%d", stats.InUse)
	health["idle"] = fmt.Sprintf("%d", stats.Idle)

	return health
}
