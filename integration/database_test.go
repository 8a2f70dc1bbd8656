//go:build database

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestSferrorWithPostgres runs the CLI against a PostgreSQL results backend.
func TestSferrorWithPostgres(t *testing.T) {
	ctx := context.Background()

	pgC, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("sferror"),
		postgres.WithUsername("sferror"),
		postgres.WithPassword("secret123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	connStr, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	_ = os.Setenv("SFERROR_RESULT_BACKEND", "postgresql")
	_ = os.Setenv("SFERROR_RESULT_DB_CONNECT", connStr)
	defer func() { _ = os.Unsetenv("SFERROR_RESULT_BACKEND") }()
	defer func() { _ = os.Unsetenv("SFERROR_RESULT_DB_CONNECT") }()

	dbDir := t.TempDir()
	outDir := t.TempDir()
	writeOpSimFixture(t, dbDir, "baseline_v3.4_10yrs")

	require.NoError(t, runSferrorCommand(t, "run", dbDir, "--out", outDir, "--nside", "8"))
	require.NoError(t, runSferrorCommand(t, "summary", "--out", outDir))
}

// TestSferrorWithMySQL runs the CLI against a MySQL results backend.
func TestSferrorWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "sferror",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(30 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/sferror?multiStatements=true", host, port.Port())

	_ = os.Setenv("SFERROR_RESULT_BACKEND", "mysql")
	_ = os.Setenv("SFERROR_RESULT_DB_CONNECT", connStr)
	defer func() { _ = os.Unsetenv("SFERROR_RESULT_BACKEND") }()
	defer func() { _ = os.Unsetenv("SFERROR_RESULT_DB_CONNECT") }()

	dbDir := t.TempDir()
	outDir := t.TempDir()
	writeOpSimFixture(t, dbDir, "baseline_v3.4_10yrs")

	require.NoError(t, runSferrorCommand(t, "run", dbDir, "--out", outDir, "--nside", "8"))
	require.NoError(t, runSferrorCommand(t, "summary", "--out", outDir))
}
