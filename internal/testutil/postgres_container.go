package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

// GetPostgresDSN returns a DSN for a shared PostgreSQL container, starting
// it on first use. The test is skipped if the container cannot start.
func GetPostgresDSN(t *testing.T) string {
	t.Helper()
	containersDisabled(t)

	pgOnce.Do(startPostgres)
	skipUnlessStarted(t, "postgres", pgErr)
	return pgDSN
}

func startPostgres() {
	// Give generous timeout in CI environments
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	postgresC, err := testcontainers.Run(
		ctx, "postgres:16",
		testcontainers.WithExposedPorts("5432/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("ready to accept connections"),
				// Verify SQL connectivity through the mapped host:port.
				wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
					return fmt.Sprintf("postgres://stepform:stepform@%s:%s/stepform_test?sslmode=disable", host, port.Port())
				}).WithQuery("SELECT 1"),
			).WithDeadline(2*time.Minute),
		),
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_USER":     "stepform",
			"POSTGRES_PASSWORD": "stepform",
			"POSTGRES_DB":       "stepform_test",
		}),
	)
	if err != nil {
		pgErr = err
		return
	}

	endpoint, err := postgresC.Endpoint(ctx, "")
	if err != nil {
		_ = postgresC.Terminate(context.Background()) // best-effort cleanup
		pgErr = err
		return
	}

	pgDSN = fmt.Sprintf("postgres://stepform:stepform@%s/stepform_test?sslmode=disable", endpoint)
}
