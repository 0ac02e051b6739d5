package doctor_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/docstore"
	"github.com/pthm/docstore/internal/doctor"
	"github.com/pthm/docstore/internal/testutil"
	"github.com/pthm/docstore/pkg/migrator"
	"github.com/pthm/docstore/pkg/parser"
	"github.com/pthm/docstore/schema"
)

const schemaYAML = `
types:
  - name: Container
    fields:
      - {name: id, type: string, capabilities: [id]}
      - {name: name, type: string(100), capabilities: [index, fulltext]}
    parts:
      - {name: parts, type: Part, collection: true}
  - name: Part
    container: Container
    fields:
      - {name: name, type: string(100), capabilities: [fulltext]}
      - {name: codes, type: "string[]", capabilities: [array]}
`

func writeSchema(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docstore.schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func check(t *testing.T, report *doctor.Report, name string) doctor.CheckResult {
	t.Helper()
	for _, c := range report.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not in report", name)
	return doctor.CheckResult{}
}

func TestReport_Print(t *testing.T) {
	r := &doctor.Report{}
	r.AddCheck(doctor.CheckResult{Category: "Tables", Name: "exist", Status: doctor.StatusPass, Message: "All 3 relations exist", Details: "a\nb"})
	r.AddCheck(doctor.CheckResult{Category: "Data Health", Name: "orphans", Status: doctor.StatusWarn, Message: "2 orphaned rows", FixHint: "Run 'docstore purge'"})

	var buf bytes.Buffer
	r.Print(&buf, false)
	out := buf.String()
	assert.Contains(t, out, "Tables\n  ✓ All 3 relations exist")
	assert.NotContains(t, out, "      a")
	assert.Contains(t, out, "⚠ 2 orphaned rows\n      Fix: Run 'docstore purge'")
	assert.Contains(t, out, "Summary: 1 passed, 1 warnings, 0 errors")
	assert.False(t, r.HasErrors())

	buf.Reset()
	r.Print(&buf, true)
	assert.Contains(t, buf.String(), "      a\n      b\n")
}

func TestRun_MissingSchema(t *testing.T) {
	d := doctor.New(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	report, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.HasErrors())
	assert.Equal(t, doctor.StatusFail, check(t, report, "exists").Status)
}

func TestRun_InvalidSchema(t *testing.T) {
	path := writeSchema(t, `
types:
  - name: Part
    container: Missing
    fields:
      - {name: name, type: string}
`)
	report, err := doctor.New(nil, path).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, doctor.StatusPass, check(t, report, "valid").Status)
	assert.Equal(t, doctor.StatusFail, check(t, report, "registered").Status)
}

func TestRun(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	path := writeSchema(t, schemaYAML)

	report, err := doctor.New(db, path).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, doctor.StatusFail, check(t, report, "exist").Status)
	assert.Equal(t, doctor.StatusWarn, check(t, report, "migrated").Status)
	assert.Equal(t, doctor.StatusWarn, check(t, report, "orphans").Status)

	reg := schema.NewRegistry()
	require.NoError(t, parser.LoadSchema(reg, path))
	s := docstore.New(db, reg)
	_, err = s.Migrate(ctx, migrator.Options{})
	require.NoError(t, err)

	report, err = doctor.New(db, path).Run(ctx)
	require.NoError(t, err)
	assert.False(t, report.HasErrors())
	assert.Zero(t, report.Warnings)
	assert.Equal(t, doctor.StatusPass, check(t, report, "schema_sync").Status)

	_, err = s.UpsertJSON(ctx, "Container", []byte(`{"name":"c1","parts":[{"name":"p1","codes":["a","b"]}]}`))
	require.NoError(t, err)
	n, err := s.DeleteObjects(ctx, "Container", docstore.Where("name", "c1"))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	report, err = doctor.New(db, path).Run(ctx)
	require.NoError(t, err)
	orphans := check(t, report, "orphans")
	assert.Equal(t, doctor.StatusWarn, orphans.Status)
	assert.Equal(t, "3 orphaned rows in 2 tables", orphans.Message)
}

func TestRun_SchemaChanged(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	path := writeSchema(t, schemaYAML)

	reg := schema.NewRegistry()
	require.NoError(t, parser.LoadSchema(reg, path))
	_, err := docstore.New(db, reg).Migrate(ctx, migrator.Options{})
	require.NoError(t, err)

	// Same tables, different table options
	report, err := doctor.New(db, path, docstore.WithFullTextParser("TokenDelimit")).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, doctor.StatusWarn, check(t, report, "schema_sync").Status)
}
