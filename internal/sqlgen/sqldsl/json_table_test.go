package sqldsl

import "testing"

func TestJSONTable_TableSQL(t *testing.T) {
	jt := JSONTable{
		Doc:  Col{Table: "CONTAINER", Column: "__json"},
		Path: "$",
		Columns: []JSONColumn{
			PathColumn{Name: "container_name", Type: "VARCHAR(200)", Path: "$.name"},
			NestedPath{Path: "$.parts[*]", Columns: []JSONColumn{
				OrdinalityColumn{Name: "__part_order"},
				PathColumn{Name: "name", Type: "TEXT", Path: "$.name"},
			}},
		},
		Alias: "DATA",
	}

	want := "JSON_TABLE(\n" +
		"  `CONTAINER`.`__json`,\n" +
		"  '$' COLUMNS (\n" +
		"    `container_name` VARCHAR(200) PATH '$.name',\n" +
		"    NESTED PATH '$.parts[*]' COLUMNS (\n" +
		"      `__part_order` FOR ORDINALITY,\n" +
		"      `name` TEXT PATH '$.name'\n" +
		"    )\n" +
		"  )\n" +
		") AS `DATA`"

	if got := jt.TableSQL(); got != want {
		t.Errorf("TableSQL() =\n%s\nwant\n%s", got, want)
	}
	if jt.TableAlias() != "DATA" {
		t.Errorf("TableAlias() = %q", jt.TableAlias())
	}
}
