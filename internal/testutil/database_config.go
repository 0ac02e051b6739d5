package testutil

import (
	"fmt"
	"os"

	"github.com/go-sql-driver/mysql"
)

// GetDatabaseConfig reads the server to test against from the environment.
// If DOCSTORE_TEST_DSN is set it is parsed and ok is true. Otherwise ok is
// false, which signals to use testcontainers.
func GetDatabaseConfig() (cfg *mysql.Config, ok bool, err error) {
	dsn := os.Getenv("DOCSTORE_TEST_DSN")
	if dsn == "" {
		return nil, false, nil
	}
	cfg, err = mysql.ParseDSN(dsn)
	if err != nil {
		return nil, true, fmt.Errorf("parsing DOCSTORE_TEST_DSN: %w", err)
	}
	return cfg, true, nil
}
