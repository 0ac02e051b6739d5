package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"

	"github.com/pthm/docstore/internal/sqlgen"
	"github.com/pthm/docstore/pkg/backend"
)

const (
	maxWalkDepth = 25

	// DefaultFetchSize is the batch size of find when none is configured.
	DefaultFetchSize = 100
)

// configNames are the file names tried in each directory, in order.
var configNames = []string{"docstore.yaml", "docstore.yml"}

// Config represents the docstore configuration from docstore.yaml.
type Config struct {
	// Schema is the path of the YAML schema file.
	Schema string `mapstructure:"schema" json:"schema"`

	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Storage  StorageConfig  `mapstructure:"storage" json:"storage"`

	// Per-command configuration
	Migrate  MigrateConfig  `mapstructure:"migrate" json:"migrate"`
	Doctor   DoctorConfig   `mapstructure:"doctor" json:"doctor"`
	Generate GenerateConfig `mapstructure:"generate" json:"generate"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	DSN      string            `mapstructure:"dsn" json:"dsn,omitempty"`
	Host     string            `mapstructure:"host" json:"host,omitempty"`
	Port     int               `mapstructure:"port" json:"port"`
	Name     string            `mapstructure:"name" json:"name,omitempty"`
	User     string            `mapstructure:"user" json:"user,omitempty"`
	Password string            `mapstructure:"password" json:"password,omitempty"`
	Params   map[string]string `mapstructure:"params" json:"params,omitempty"`
}

// StorageConfig holds the naming and table options of the generated SQL.
type StorageConfig struct {
	TablePrefix    string `mapstructure:"table_prefix" json:"table_prefix"`
	Engine         string `mapstructure:"engine" json:"engine"`
	FullTextParser string `mapstructure:"fulltext_parser" json:"fulltext_parser"`
	FetchSize      int    `mapstructure:"fetch_size" json:"fetch_size"`
}

// MigrateConfig holds migration settings.
type MigrateConfig struct {
	DryRun bool `mapstructure:"dry_run" json:"dry_run"`
}

// DoctorConfig holds doctor command settings.
type DoctorConfig struct {
	Verbose bool `mapstructure:"verbose" json:"verbose"`
}

// GenerateConfig holds model code generation settings.
type GenerateConfig struct {
	Runtime string `mapstructure:"runtime" json:"runtime"`
	Output  string `mapstructure:"output" json:"output,omitempty"`
	Package string `mapstructure:"package" json:"package"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("DOCSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("schema", "docstore.schema.yaml")

	// Defaults must exist for every key so AutomaticEnv can see it.
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.params", map[string]string{})

	v.SetDefault("storage.table_prefix", sqlgen.DefaultTablePrefix)
	v.SetDefault("storage.engine", "")
	v.SetDefault("storage.fulltext_parser", sqlgen.DefaultFullTextParser)
	v.SetDefault("storage.fetch_size", DefaultFetchSize)

	v.SetDefault("migrate.dry_run", false)

	v.SetDefault("doctor.verbose", false)

	v.SetDefault("generate.runtime", "go")
	v.SetDefault("generate.output", "")
	v.SetDefault("generate.package", "models")
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for docstore.yaml or docstore.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for range maxWalkDepth {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break // repository root
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// MySQLConfig returns the driver configuration for the database.
// If database.dsn is set it is parsed and returned. Otherwise the
// configuration is built from discrete fields.
func (c *Config) MySQLConfig() (*mysql.Config, error) {
	db := c.Database

	if db.DSN != "" {
		return backend.ParseDSN(db.DSN)
	}

	var missing []string
	if db.Host == "" {
		missing = append(missing, "database.host")
	}
	if db.Name == "" {
		missing = append(missing, "database.name")
	}
	if db.User == "" {
		missing = append(missing, "database.user")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s required when database.dsn is not set", strings.Join(missing, ", "))
	}

	return backend.Config(db.Host, db.Port, db.Name, db.User, db.Password, db.Params), nil
}

// DSN returns the database connection string in driver format.
func (c *Config) DSN() (string, error) {
	cfg, err := c.MySQLConfig()
	if err != nil {
		return "", err
	}
	return cfg.FormatDSN(), nil
}

// Validate checks values that cannot be expressed as defaults.
func (c *Config) Validate() error {
	var errs []error
	if c.Storage.FetchSize < 0 {
		errs = append(errs, fmt.Errorf("storage.fetch_size must not be negative, got %d", c.Storage.FetchSize))
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Errorf("database.port out of range: %d", c.Database.Port))
	}
	return errors.Join(errs...)
}
