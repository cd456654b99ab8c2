//go:build integration

// Package repotest starts a throwaway postgres for repository integration tests.
package repotest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/news-mobile-core/internal/migrations"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Postgres starts a container, applies migrations and returns a pool plus a
// shutdown function.
func Postgres(ctx context.Context) (*pgxpool.Pool, func(), error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "root"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start container: %w", err)
	}

	shutdown := func() {
		_ = c.Terminate(context.Background())
	}

	host, err := c.Host(ctx)
	if err != nil {
		shutdown()
		return nil, nil, fmt.Errorf("failed to get host: %w", err)
	}

	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		shutdown()
		return nil, nil, fmt.Errorf("failed to map port: %w", err)
	}

	dsn := fmt.Sprintf("postgres://postgres:root@%s:%d/postgres?sslmode=disable", host, port.Int())

	if err := migrations.Up(ctx, dsn); err != nil {
		shutdown()
		return nil, nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		shutdown()
		return nil, nil, fmt.Errorf("failed to create pool: %w", err)
	}

	return pool, func() {
		pool.Close()
		shutdown()
	}, nil
}
