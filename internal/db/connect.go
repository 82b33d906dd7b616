package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Spok95/curriculum-sync/internal/ctxutil"
	"github.com/Spok95/curriculum-sync/internal/metrics"
)

// Open открывает пул через pgx stdlib и сразу проверяет соединение.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("db: empty DATABASE_URL")
	}
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	database.SetMaxOpenConns(10)
	database.SetMaxIdleConns(5)
	database.SetConnMaxLifetime(30 * time.Minute)

	if err := Ping(ctx, database); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}

// Ping с DB-таймаутом, латентность пишем в метрики.
func Ping(ctx context.Context, database *sql.DB) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	t0 := time.Now()
	if err := database.PingContext(ctx); err != nil {
		return fmt.Errorf("db: ping: %w", err)
	}
	metrics.ObserveDBPing(time.Since(t0))
	return nil
}
