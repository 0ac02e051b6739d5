package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pthm/docstore/internal/cli"
	"github.com/pthm/docstore/pkg/clientgen"
)

var (
	genRuntime string
	genOutput  string
	genPackage string
)

var generateCmd = &cobra.Command{
	Use:   "generate [type...]",
	Short: "Generate typed models from the schema",
	Long: `Generate typed models from the schema file: Go structs carrying docstore
tags, or TypeScript interfaces of the stored JSON. Naming types limits the
output to them and their parts.

Supported runtimes: ` + strings.Join(clientgen.ListRuntimes(), ", "),
	Example: `  # Go models to stdout
  docstore generate

  # Go models into a package directory
  docstore generate --output internal/models --package models

  # TypeScript interfaces of one tree
  docstore generate Container --runtime typescript --output web/src/models`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runtime := resolveString(genRuntime, cfg.Generate.Runtime)
		output := resolveString(genOutput, cfg.Generate.Output)

		if !clientgen.Registered(runtime) {
			return cli.ConfigError(
				fmt.Sprintf("unknown runtime %q", runtime),
				fmt.Errorf("supported runtimes: %s", strings.Join(clientgen.ListRuntimes(), ", ")),
			)
		}

		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		genCfg := clientgen.DefaultConfig(runtime)
		genCfg.Package = resolveString(genPackage, cfg.Generate.Package, genCfg.Package)
		genCfg.Types = args
		files, err := clientgen.Generate(runtime, reg.Types(), genCfg)
		if err != nil {
			return cli.GeneralError("generation failed", err)
		}

		names := make([]string, 0, len(files))
		for name := range files {
			names = append(names, name)
		}
		slices.Sort(names)

		if output == "" {
			if len(files) > 1 {
				return cli.ConfigError("--output is required for multi-file generation", nil)
			}
			for _, name := range names {
				if _, err := os.Stdout.Write(files[name]); err != nil {
					return cli.GeneralError("writing to stdout", err)
				}
			}
			return nil
		}

		if err := os.MkdirAll(output, 0o755); err != nil {
			return cli.GeneralError("creating output directory", err)
		}
		for _, name := range names {
			outPath := filepath.Join(output, name)
			if err := os.WriteFile(outPath, files[name], 0o644); err != nil {
				return cli.GeneralError(fmt.Sprintf("writing %s", outPath), err)
			}
			if !quiet {
				fmt.Printf("Generated %s\n", outPath)
			}
		}
		return nil
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genRuntime, "runtime", "", "target runtime: "+strings.Join(clientgen.ListRuntimes(), ", ")+" (default: go)")
	f.StringVar(&genOutput, "output", "", "output directory (default: stdout)")
	f.StringVar(&genPackage, "package", "", "Go package name (default: models)")
}
