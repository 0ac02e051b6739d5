package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pthm/docstore"
	"github.com/pthm/docstore/internal/cli"
	"github.com/pthm/docstore/internal/sqlgen"
	"github.com/pthm/docstore/schema"
)

var (
	docType string

	upsertFile string

	findWhere   []string
	findMatch   []string
	findFields  []string
	findOrderBy []string
	findJoin    []string
	findLimit   int
	findOffset  int
)

var upsertCmd = &cobra.Command{
	Use:   "upsert --type T --file docs.json",
	Short: "Insert or update documents",
	Long: `Upsert a JSON document, or an array of documents, of one root type.
Missing identifiers are assigned and printed as one JSON line per document.`,
	Example: `  # Upsert documents from a file
  docstore upsert --type Container --file containers.json

  # Read from stdin
  echo '{"name": "c1"}' | docstore upsert --type Container --file -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(upsertFile)
		if err != nil {
			return cli.GeneralError("reading documents", err)
		}
		docs, err := splitDocuments(data)
		if err != nil {
			return cli.GeneralError("parsing documents", err)
		}

		ctx := context.Background()
		s, pool, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = pool.Close() }()

		t, err := s.Registry().Lookup(docType)
		if err != nil {
			return cli.SchemaParseError("unknown type", err)
		}

		enc := json.NewEncoder(os.Stdout)
		for i, raw := range docs {
			doc, err := s.UpsertJSON(ctx, docType, raw)
			if err != nil {
				return cli.GeneralError(fmt.Sprintf("upserting document %d", i), err)
			}
			out := schema.Identifiers(t, doc.Data)
			out["__row_id"] = doc.RowID
			if err := enc.Encode(out); err != nil {
				return err
			}
		}
		return nil
	},
}

var findCmd = &cobra.Command{
	Use:   "find --type T",
	Short: "Query documents",
	Long: `Query documents of one type and print them as JSON lines.

Filters are written field<op>value with op one of =, !=, <>, <, <=, >, >=
or ~ (LIKE). Fields may be reference paths such as code.name. Full-text
filters are written fields=query with a comma separated field list, or
=query to search every full-text field. With --fields the selected columns
are printed instead of whole documents.`,
	Example: `  # Parts of a container
  docstore find --type Part --where container_name=c1

  # Full-text search ordered by relevance
  docstore find --type Part --match 'name=+sub1 -part2' --fields name,__relevance --order-by '__relevance desc'

  # Second page
  docstore find --type StartModel --order-by 'order desc' --limit 10 --offset 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := findOptions()
		if err != nil {
			return cli.GeneralError("parsing filters", err)
		}

		ctx := context.Background()
		s, pool, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = pool.Close() }()

		enc := json.NewEncoder(os.Stdout)
		if len(findFields) > 0 {
			opts = append(opts, docstore.Fields(findFields...))
			for rec, err := range s.Records(ctx, docType, opts...) {
				if err != nil {
					return cli.GeneralError("querying", err)
				}
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
			return nil
		}

		for doc, err := range s.FindDocuments(ctx, docType, opts...) {
			if err != nil {
				return cli.GeneralError("querying", err)
			}
			if err := enc.Encode(doc.Data); err != nil {
				return err
			}
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete --type T --where f=v",
	Short: "Delete documents",
	Long: `Delete the root documents of one type that match every filter. Part rows
are left to 'docstore purge'.`,
	Example: `  # Delete one container
  docstore delete --type Container --where name=c1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(findWhere) == 0 {
			return cli.ConfigError("at least one --where filter is required", nil)
		}
		where, err := parseConditions(findWhere)
		if err != nil {
			return cli.GeneralError("parsing filters", err)
		}

		ctx := context.Background()
		s, pool, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = pool.Close() }()

		n, err := s.Delete(ctx, docType, where...)
		if err != nil {
			return cli.GeneralError("deleting", err)
		}
		if !quiet {
			fmt.Printf("Deleted %d documents.\n", n)
		}
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge [type...]",
	Short: "Delete orphaned part rows",
	Long:  `Delete part and side table rows whose root document no longer exists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, pool, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = pool.Close() }()

		purged, err := s.PurgeOrphans(ctx, args...)
		if err != nil {
			return cli.GeneralError("purging", err)
		}
		if quiet {
			return nil
		}
		tables := make([]string, 0, len(purged))
		for table := range purged {
			tables = append(tables, table)
		}
		slices.Sort(tables)
		for _, table := range tables {
			fmt.Printf("%-40s %d\n", table, purged[table])
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{upsertCmd, findCmd, deleteCmd} {
		c.Flags().StringVarP(&docType, "type", "t", "", "document type")
		_ = c.MarkFlagRequired("type")
	}

	upsertCmd.Flags().StringVarP(&upsertFile, "file", "f", "-", "JSON file, - for stdin")

	f := findCmd.Flags()
	f.StringArrayVarP(&findWhere, "where", "w", nil, "filter field<op>value (repeatable)")
	f.StringArrayVarP(&findMatch, "match", "m", nil, "full-text filter fields=query (repeatable)")
	f.StringSliceVar(&findFields, "fields", nil, "columns to print instead of documents")
	f.StringSliceVar(&findOrderBy, "order-by", nil, "ordering, e.g. 'order desc'")
	f.StringSliceVar(&findJoin, "join", nil, "namespaces to join")
	f.IntVar(&findLimit, "limit", 0, "maximum number of rows (0 = no limit)")
	f.IntVar(&findOffset, "offset", 0, "rows to skip")

	deleteCmd.Flags().StringArrayVarP(&findWhere, "where", "w", nil, "filter field<op>value (repeatable)")
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// splitDocuments accepts one JSON object or an array of them.
func splitDocuments(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("no documents")
	}
	if data[0] != '[' {
		return []json.RawMessage{data}, nil
	}
	var docs []json.RawMessage
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func findOptions() ([]docstore.FindOption, error) {
	where, err := parseConditions(findWhere)
	if err != nil {
		return nil, err
	}
	opts := []docstore.FindOption{docstore.Conditions(where...)}
	for _, m := range findMatch {
		fields, query, ok := strings.Cut(m, "=")
		if !ok {
			return nil, fmt.Errorf("match %q: want fields=query", m)
		}
		opts = append(opts, docstore.Match(fields, query))
	}
	return append(opts,
		docstore.OrderBy(findOrderBy...),
		docstore.Join(findJoin...),
		docstore.Limit(findLimit),
		docstore.Offset(findOffset),
	), nil
}

func parseConditions(filters []string) ([]sqlgen.Condition, error) {
	out := make([]sqlgen.Condition, 0, len(filters))
	for _, f := range filters {
		c, err := parseCondition(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// operators lists filter operators, longest first.
var operators = []struct{ token, op string }{
	{">=", ">="},
	{"<=", "<="},
	{"<>", "<>"},
	{"!=", "!="},
	{"=", "="},
	{"<", "<"},
	{">", ">"},
	{"~", "LIKE"},
}

// parseCondition splits "field<op>value" at the first operator character.
func parseCondition(s string) (sqlgen.Condition, error) {
	i := strings.IndexAny(s, "=<>!~")
	if i <= 0 {
		return sqlgen.Condition{}, fmt.Errorf("filter %q: want field<op>value", s)
	}
	field, rest := strings.TrimSpace(s[:i]), s[i:]
	for _, o := range operators {
		if value, ok := strings.CutPrefix(rest, o.token); ok {
			return sqlgen.Condition{Field: field, Op: o.op, Value: value}, nil
		}
	}
	return sqlgen.Condition{}, fmt.Errorf("filter %q: unknown operator", s)
}
