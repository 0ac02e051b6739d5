package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pthm/docstore"
	"github.com/pthm/docstore/internal/cli"
	"github.com/pthm/docstore/pkg/backend"
	"github.com/pthm/docstore/pkg/parser"
	"github.com/pthm/docstore/schema"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string
	logger     *slog.Logger

	// Persistent flags
	cfgFile    string
	schemaFlag string
	dsnFlag    string
	verbose    int
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "docstore",
	Short: "JSON documents projected onto MariaDB tables",
	Long: `docstore - JSON documents projected onto MariaDB tables

docstore stores typed JSON documents in MariaDB. Declared fields are
projected onto generated columns, part documents and array fields onto
their own tables, and queries are compiled to joins over them.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = cli.NewLogger(cli.LogLevel(verbose, quiet))

		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}
		if err := cfg.Validate(); err != nil {
			return cli.ConfigError("invalid configuration", err)
		}
		logger.Debug("configuration loaded", slog.String("path", configPath))
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Command group IDs
const (
	groupSchema    = "schema"
	groupDatabase  = "database"
	groupDocuments = "documents"
	groupUtility   = "utility"
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: auto-discover docstore.yaml)")
	pf.StringVar(&schemaFlag, "schema", "", "schema file (default: schema from config)")
	pf.StringVar(&dsnFlag, "db", "", "database DSN, e.g. user:pass@tcp(localhost:3306)/db")
	pf.CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupSchema, Title: "Schema:"},
		&cobra.Group{ID: groupDatabase, Title: "Database:"},
		&cobra.Group{ID: groupDocuments, Title: "Documents:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	for _, c := range []*cobra.Command{validateCmd, planCmd, ddlCmd, generateCmd} {
		c.GroupID = groupSchema
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{migrateCmd, statusCmd, doctorCmd, purgeCmd} {
		c.GroupID = groupDatabase
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{upsertCmd, findCmd, deleteCmd} {
		c.GroupID = groupDocuments
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{configCmd, versionCmd} {
		c.GroupID = groupUtility
		rootCmd.AddCommand(c)
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.ExitWithError(err)
	}
}

// resolveString returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveBool returns true if any of the provided values is true.
func resolveBool(values ...bool) bool {
	for _, v := range values {
		if v {
			return true
		}
	}
	return false
}

// schemaPath returns the schema file from flag or config.
func schemaPath() string {
	return resolveString(schemaFlag, cfg.Schema)
}

// loadRegistry parses and registers the schema file.
func loadRegistry() (*schema.Registry, error) {
	path := schemaPath()
	if path == "" {
		return nil, cli.ConfigError("schema file is required (use --schema or set in config)", nil)
	}
	reg := schema.NewRegistry()
	if err := parser.LoadSchema(reg, path); err != nil {
		return nil, cli.SchemaParseError("loading schema "+path, err)
	}
	return reg, nil
}

// storeOptions maps the storage configuration to store options.
func storeOptions() []docstore.Option {
	s := cfg.Storage
	opts := []docstore.Option{
		docstore.WithLogger(logger),
		docstore.WithTablePrefix(s.TablePrefix),
		docstore.WithEngine(s.Engine),
		docstore.WithFullTextParser(s.FullTextParser),
	}
	if s.FetchSize > 0 {
		opts = append(opts, docstore.WithFetchSize(s.FetchSize))
	}
	return opts
}

// openPool connects to the configured database.
func openPool(ctx context.Context) (*backend.Pool, error) {
	if dsnFlag != "" {
		cfg.Database.DSN = dsnFlag
	}
	mc, err := cfg.MySQLConfig()
	if err != nil {
		return nil, cli.ConfigError("database configuration", err)
	}
	pool, err := backend.Open(ctx, mc, backend.WithLogger(logger))
	if err != nil {
		return nil, cli.DBConnectError("connecting to database", err)
	}
	return pool, nil
}

// openStore loads the schema and connects to the database. The caller
// closes the returned pool.
func openStore(ctx context.Context) (*docstore.Store, *backend.Pool, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, nil, err
	}
	pool, err := openPool(ctx)
	if err != nil {
		return nil, nil, err
	}
	return docstore.New(pool.DB(), reg, storeOptions()...), pool, nil
}

// offlineStore builds a store for commands that only generate SQL.
func offlineStore() (*docstore.Store, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, err
	}
	return docstore.New(nil, reg, storeOptions()...), nil
}
