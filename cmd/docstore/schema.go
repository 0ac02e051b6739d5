package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/docstore/internal/cli"
	"github.com/pthm/docstore/schema"
)

var validateJSONSchema bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the schema file",
	Long:  `Parse the schema file and register its types, checking container links, paths and references.`,
	Example: `  # Validate the configured schema
  docstore validate

  # Validate a specific file and print the JSON Schema of every type
  docstore validate --schema models.yaml --json-schema`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		if validateJSONSchema {
			return printJSONSchemas(reg)
		}

		if quiet {
			return nil
		}
		types := reg.Types()
		fmt.Printf("Schema is valid. Found %d types:\n", len(types))
		for _, t := range types {
			line := fmt.Sprintf("  - %s (%d fields", t.Name, len(t.Fields))
			if t.IsPart() {
				line += ", part of " + t.Container
			}
			fmt.Println(line + ")")
		}
		return nil
	},
}

func printJSONSchemas(reg *schema.Registry) error {
	out := make(map[string]any)
	for _, t := range reg.Types() {
		s, err := reg.JSONSchema(t.Name)
		if err != nil {
			return cli.SchemaParseError("building JSON Schema for "+t.Name, err)
		}
		out[t.Name] = s
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

var planFormat string

var planCmd = &cobra.Command{
	Use:   "plan [type...]",
	Short: "Show the table layout of the schema",
	Long:  `Show the relations of every type, or of the given types and their container and part closure, in creation order.`,
	Example: `  # Show the layout of every type
  docstore plan

  # Layout of one tree as YAML
  docstore plan Container --format yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := offlineStore()
		if err != nil {
			return err
		}
		names := args
		if len(names) == 0 {
			names = typeNames(s.Registry())
		}
		layouts, err := s.Compiler().PlanAll(names...)
		if err != nil {
			return cli.SchemaParseError("planning tables", err)
		}

		entries := make([]planEntry, len(layouts))
		for i, l := range layouts {
			e := planEntry{Type: l.Type, Container: l.Container, Root: l.Root}
			for _, t := range l.Tables() {
				e.Tables = append(e.Tables, planTable{Name: t.Name, Kind: t.Kind.String(), Field: t.Field})
			}
			entries[i] = e
		}

		switch planFormat {
		case "yaml":
			out, err := yaml.Marshal(entries)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
		case "text":
			printPlan(entries)
		default:
			return cli.ConfigError(fmt.Sprintf("unknown format %q (use text or yaml)", planFormat), nil)
		}
		return nil
	},
}

type planEntry struct {
	Type      string      `json:"type"`
	Container string      `json:"container,omitempty"`
	Root      string      `json:"root"`
	Tables    []planTable `json:"tables"`
}

type planTable struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

func printPlan(entries []planEntry) {
	for _, e := range entries {
		if e.Container != "" {
			fmt.Printf("%s (in %s)\n", e.Type, e.Container)
		} else {
			fmt.Println(e.Type)
		}
		for _, t := range e.Tables {
			name := t.Name
			if t.Field != "" {
				name += " [" + t.Field + "]"
			}
			fmt.Printf("  %-11s %s\n", t.Kind, name)
		}
	}
}

var ddlCmd = &cobra.Command{
	Use:   "ddl [type...]",
	Short: "Print CREATE statements",
	Long:  `Print the CREATE TABLE and CREATE VIEW statements of every type, or of the given types and their closure.`,
	Example: `  # Statements for every type
  docstore ddl

  # Statements for one tree
  docstore ddl Container`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := offlineStore()
		if err != nil {
			return err
		}
		stmts, err := s.DDL(args...)
		if err != nil {
			return cli.SchemaParseError("generating DDL", err)
		}
		var b strings.Builder
		for _, st := range stmts {
			b.WriteString(st.SQL)
			b.WriteString(";\n\n")
		}
		fmt.Print(b.String())
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSONSchema, "json-schema", false, "print the JSON Schema of every type")
	planCmd.Flags().StringVar(&planFormat, "format", "text", "output format: text or yaml")
}

// typeNames lists every registered type.
func typeNames(reg *schema.Registry) []string {
	types := reg.Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name
	}
	return names
}
