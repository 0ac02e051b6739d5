// Package testutil provides shared test utilities for docstore integration
// tests.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mariadb"
)

// Image is the MariaDB image used for integration tests.
const Image = "mariadb:11.4"

// Singleton container state
var (
	singletonOnce sync.Once
	singletonCfg  *mysql.Config
	singletonErr  error
)

// ensureSingleton lazily starts the shared MariaDB container, or connects to
// the server named by DOCSTORE_TEST_DSN.
func ensureSingleton() (*mysql.Config, error) {
	singletonOnce.Do(func() {
		if cfg, ok, err := GetDatabaseConfig(); ok || err != nil {
			singletonCfg, singletonErr = cfg, err
			return
		}

		ctx := context.Background()
		container, err := mariadb.Run(ctx,
			Image,
			mariadb.WithDatabase("docstore"),
			mariadb.WithUsername("root"),
			mariadb.WithPassword("test"),
			testcontainers.WithEnv(map[string]string{
				"MARIADB_INITDB_SKIP_TZINFO": "1",
			}),
		)
		if err != nil {
			singletonErr = fmt.Errorf("failed to start MariaDB container: %w", err)
			return
		}

		dsn, err := container.ConnectionString(ctx)
		if err != nil {
			_ = container.Terminate(ctx)
			singletonErr = fmt.Errorf("failed to get MariaDB connection string: %w", err)
			return
		}
		singletonCfg, singletonErr = mysql.ParseDSN(dsn)
		// Container is not stored - ryuk will handle cleanup automatically
	})
	return singletonCfg, singletonErr
}

// DB returns a connection to a fresh, empty database. The database is
// dropped when the test completes. Integration tests are skipped with
// -short.
func DB(tb testing.TB) *sql.DB {
	tb.Helper()
	if testing.Short() {
		tb.Skip("skipping integration test in short mode")
	}

	adminCfg, err := ensureSingleton()
	require.NoError(tb, err, "failed to start MariaDB")

	name := uniqueDBName("test")
	require.NoError(tb, createDatabase(adminCfg, name), "failed to create test database")

	cfg := adminCfg.Clone()
	cfg.DBName = name
	db, err := open(cfg)
	require.NoError(tb, err, "failed to connect to test database")
	require.NoError(tb, db.Ping(), "failed to ping test database")

	registerCleanup(tb, db, adminCfg, name)
	return db
}

// Config returns the driver configuration of a database opened by DB.
func Config(tb testing.TB, db *sql.DB) *mysql.Config {
	tb.Helper()
	adminCfg, err := ensureSingleton()
	require.NoError(tb, err)
	var name string
	require.NoError(tb, db.QueryRow("SELECT DATABASE()").Scan(&name))
	cfg := adminCfg.Clone()
	cfg.DBName = name
	return cfg
}

// registerCleanup closes the connection and drops the database in the
// background.
func registerCleanup(tb testing.TB, db *sql.DB, adminCfg *mysql.Config, name string) {
	tb.Cleanup(func() {
		_ = db.Close()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = dropDatabase(ctx, adminCfg, name)
		}()
	})
}

// uniqueDBName generates a unique database name with the given prefix.
func uniqueDBName(prefix string) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))
}

func open(cfg *mysql.Config) (*sql.DB, error) {
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}

func createDatabase(adminCfg *mysql.Config, name string) error {
	db, err := open(adminCfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	_, err = db.Exec(fmt.Sprintf("CREATE DATABASE `%s` CHARACTER SET utf8mb4", name))
	return err
}

func dropDatabase(ctx context.Context, adminCfg *mysql.Config, name string) error {
	db, err := open(adminCfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", name))
	return err
}
