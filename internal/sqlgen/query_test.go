package sqlgen

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestRead_SingleNamespace(t *testing.T) {
	c := testCompiler(t, Config{})
	q := Query{Type: "Container", Where: []Condition{{Field: "name", Op: "=", Value: "sample"}}}
	stmt, err := c.Read(q)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	core := lines(
		"SELECT",
		"  `MAIN`.`__row_id`",
		"FROM `model_Container` AS `MAIN`",
		"WHERE",
		"  `MAIN`.`name` = %(NAME)s",
	)
	base := lines(
		"SELECT",
		"  `CORE0`.`__row_id` AS `__row_id`,",
		"  ROW_NUMBER() OVER (ORDER BY `CORE0`.`__row_id`) AS `__base_order`",
		"FROM (",
		indent(2, core),
		") AS `CORE0`",
		"ORDER BY",
		"  `CORE0`.`__row_id`",
		"LIMIT 18446744073709551615 OFFSET 0",
	)
	want := lines(
		"SELECT",
		"  `T0`.`__json` AS `__json`,",
		"  `T0`.`__row_id` AS `__row_id`",
		"FROM (",
		indent(2, base),
		") AS `BASE`",
		"  JOIN `model_Container` AS `T0` ON `T0`.`__row_id` = `BASE`.`__row_id`",
		"ORDER BY",
		"  `BASE`.`__base_order`",
	)
	if stmt.SQL != want {
		t.Errorf("Read() =\n%s\nwant\n%s", stmt.SQL, want)
	}
	if got := stmt.Bind(q.Where); !reflect.DeepEqual(got, map[string]any{"NAME": "sample"}) {
		t.Errorf("Bind() = %v", got)
	}
}

func TestRead_OrderAndPaging(t *testing.T) {
	c := testCompiler(t, Config{})
	stmt, err := c.Read(Query{
		Type:    "StartModel",
		Fields:  []string{"code"},
		OrderBy: []string{"order desc", "code"},
		Limit:   3,
		Offset:  6,
	})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	for _, fragment := range []string{
		"      `MAIN`.`__row_id`,\n      `MAIN`.`order`,\n      `MAIN`.`code`\n",
		"ROW_NUMBER() OVER (ORDER BY `CORE0`.`order` DESC, `CORE0`.`code`, `CORE0`.`__row_id`) AS `__base_order`",
		"  ORDER BY\n    `CORE0`.`order` DESC,\n    `CORE0`.`code`,\n    `CORE0`.`__row_id`\n  LIMIT 3 OFFSET 6\n",
		"  `T0`.`code` AS `code`\n",
	} {
		if !strings.Contains(stmt.SQL, fragment) {
			t.Errorf("Read() missing %q in\n%s", fragment, stmt.SQL)
		}
	}
	if len(stmt.Params) != 0 {
		t.Errorf("Params = %v, want none", stmt.Params)
	}
}

func TestRead_ReferenceChain(t *testing.T) {
	c := testCompiler(t, Config{})
	q := Query{
		Type:   "StartModel",
		Fields: []string{"id", "code.name", "code.name.score"},
		Where:  []Condition{{Field: "code.name.name", Op: "=", Value: "n1"}},
	}
	stmt, err := c.Read(q)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	for _, fragment := range []string{
		// every namespace on the path is restricted in the base stage
		"  JOIN (\n",
		") AS `CORE1` ON `CORE1`.`code` = `CORE0`.`code`",
		") AS `CORE2` ON `CORE2`.`name` = `CORE1`.`name`",
		"`MAIN`.`name` = %(CODE_NAME_NAME)s",
		// projected namespaces are joined back by row id
		"`CORE1`.`__row_id` AS `code.__row_id`",
		"`CORE2`.`__row_id` AS `code.name.__row_id`",
		"  JOIN `model_ReferencedByCode` AS `T1` ON `T1`.`__row_id` = `BASE`.`code.__row_id`",
		"  JOIN `model_ReferencedByName` AS `T2` ON `T2`.`__row_id` = `BASE`.`code.name.__row_id`",
		"  `T1`.`name` AS `code.name`,",
		"  `T2`.`score` AS `code.name.score`",
	} {
		if !strings.Contains(stmt.SQL, fragment) {
			t.Errorf("Read() missing %q in\n%s", fragment, stmt.SQL)
		}
	}
	if !reflect.DeepEqual(stmt.Params, []string{"CODE_NAME_NAME"}) {
		t.Errorf("Params = %v", stmt.Params)
	}
}

func TestRead_IntermediateNamespaceIsJoined(t *testing.T) {
	c := testCompiler(t, Config{})
	stmt, err := c.Read(Query{Type: "StartModel", Fields: []string{"code.name.score"}})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !strings.Contains(stmt.SQL, "AS `CORE1` ON") || !strings.Contains(stmt.SQL, "AS `CORE2` ON") {
		t.Errorf("intermediate namespace missing from base stage:\n%s", stmt.SQL)
	}
	if strings.Contains(stmt.SQL, "AS `T1`") {
		t.Errorf("namespace without projected fields joined in the outer stage:\n%s", stmt.SQL)
	}
}

func TestRead_FullText(t *testing.T) {
	c := testCompiler(t, Config{})
	q := Query{
		Type:   "Part",
		Fields: []string{"name", "__relevance"},
		Where: []Condition{
			{Field: "name", Op: "match", Value: "+sub1 -part2"},
			{Field: "container_name,name", Op: "MATCH", Value: "sample"},
		},
	}
	stmt, err := c.Read(q)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	for _, fragment := range []string{
		"MATCH (`MAIN`.`name`) AGAINST (%(NAME)s IN BOOLEAN MODE) AND",
		"MATCH (`MAIN`.`container_name`,`MAIN`.`name`) AGAINST (%(CONTAINER_NAME_NAME)s IN BOOLEAN MODE)\n",
		"(MATCH (`MAIN`.`name`) AGAINST (%(NAME)s IN BOOLEAN MODE) + MATCH (`MAIN`.`container_name`,`MAIN`.`name`) AGAINST (%(CONTAINER_NAME_NAME)s IN BOOLEAN MODE)) AS `__relevance`",
		"`CORE0`.`__relevance` AS `__relevance`",
		"ROW_NUMBER() OVER (ORDER BY `CORE0`.`__relevance` DESC, `CORE0`.`__row_id`)",
		"`BASE`.`__relevance` AS `__relevance`",
		"FROM `model_Part` AS `MAIN`",
	} {
		if !strings.Contains(stmt.SQL, fragment) {
			t.Errorf("Read() missing %q in\n%s", fragment, stmt.SQL)
		}
	}
	want := map[string]any{"NAME": "+sub1 -part2", "CONTAINER_NAME_NAME": "sample"}
	if got := stmt.Bind(q.Where); !reflect.DeepEqual(got, want) {
		t.Errorf("Bind() = %v, want %v", got, want)
	}
}

func TestRead_EmptyMatchUsesAllFullTextFields(t *testing.T) {
	c := testCompiler(t, Config{})
	stmt, err := c.Read(Query{Type: "Part", Where: []Condition{{Op: "match", Value: "sample"}}})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !strings.Contains(stmt.SQL, "MATCH (`MAIN`.`container_name`,`MAIN`.`name`) AGAINST (%(CONTAINER_NAME_NAME)s IN BOOLEAN MODE)") {
		t.Errorf("empty match field not expanded:\n%s", stmt.SQL)
	}
}

func TestRead_ArrayFilterUnwinds(t *testing.T) {
	c := testCompiler(t, Config{})
	q := Query{
		Type: "Part",
		Where: []Condition{
			{Field: "codes", Op: "=", Value: "a"},
			{Field: "codes", Op: "=", Value: "b"},
		},
	}
	stmt, err := c.Read(q)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	for _, fragment := range []string{
		"SELECT DISTINCT",
		"LEFT JOIN `model_Part_codes` AS `UNWIND0` ON `UNWIND0`.`__row_id` = `MAIN`.`__row_id`",
		"LEFT JOIN `model_Part_codes` AS `UNWIND1` ON `UNWIND1`.`__row_id` = `MAIN`.`__row_id`",
		"`UNWIND0`.`codes` = %(CODES)s AND",
		"`UNWIND1`.`codes` = %(CODES_2)s",
	} {
		if !strings.Contains(stmt.SQL, fragment) {
			t.Errorf("Read() missing %q in\n%s", fragment, stmt.SQL)
		}
	}
	want := map[string]any{"CODES": "a", "CODES_2": "b"}
	if got := stmt.Bind(q.Where); !reflect.DeepEqual(got, want) {
		t.Errorf("Bind() = %v, want %v", got, want)
	}
}

func TestRead_Operators(t *testing.T) {
	c := testCompiler(t, Config{})
	tests := []struct {
		op   string
		want string
	}{
		{"!=", "`MAIN`.`order` != %(ORDER)s"},
		{"<>", "`MAIN`.`order` != %(ORDER)s"},
		{"<", "`MAIN`.`order` < %(ORDER)s"},
		{">=", "`MAIN`.`order` >= %(ORDER)s"},
		{"like", "`MAIN`.`order` LIKE %(ORDER)s"},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			stmt, err := c.Read(Query{Type: "StartModel", Where: []Condition{{Field: "order", Op: tt.op, Value: 1}}})
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !strings.Contains(stmt.SQL, tt.want) {
				t.Errorf("Read() missing %q in\n%s", tt.want, stmt.SQL)
			}
		})
	}
}

func TestRead_Errors(t *testing.T) {
	c := testCompiler(t, Config{})
	tests := []struct {
		name    string
		query   Query
		wantErr error
	}{
		{"unknown field", Query{Type: "StartModel", Fields: []string{"missing"}}, ErrInvalidQuery},
		{"unknown operator", Query{Type: "StartModel", Where: []Condition{{Field: "code", Op: "~", Value: 1}}}, ErrInvalidQuery},
		{"field list without match", Query{Type: "Part", Where: []Condition{{Field: "name,container_name", Op: "="}}}, ErrInvalidQuery},
		{"match across namespaces", Query{Type: "StartModel", Where: []Condition{{Field: "title,code.name", Op: "match"}}}, ErrInvalidQuery},
		{"bad direction", Query{Type: "StartModel", OrderBy: []string{"order sideways"}}, ErrInvalidQuery},
		{"relevance without match", Query{Type: "StartModel", Fields: []string{"__relevance"}}, ErrInvalidQuery},
		{"negative limit", Query{Type: "StartModel", Limit: -1}, ErrInvalidQuery},
		{"negative offset", Query{Type: "StartModel", Limit: 10, Offset: -1}, ErrInvalidQuery},
		{"join through non reference", Query{Type: "StartModel", Fields: []string{"order.name"}}, ErrJoinResolution},
		{"join through missing field", Query{Type: "StartModel", Fields: []string{"nope.name"}}, ErrJoinResolution},
		{"explicit join through non reference", Query{Type: "StartModel", Joins: []string{"title"}}, ErrJoinResolution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Read(tt.query)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Read() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestQuery_Shape(t *testing.T) {
	a := Query{Type: "T", Where: []Condition{{Field: "a", Op: "=", Value: 1}}}
	b := Query{Type: "T", Where: []Condition{{Field: "a", Op: "=", Value: 2}}}
	if a.Shape() != b.Shape() {
		t.Errorf("shapes differ only by value: %q vs %q", a.Shape(), b.Shape())
	}
	b.Limit = 2
	if a.Shape() == b.Shape() {
		t.Error("limit must change the shape")
	}
}

func TestWhere(t *testing.T) {
	got := Where(map[string]any{"b": 2, "a": 1})
	want := []Condition{{Field: "a", Op: "=", Value: 1}, {Field: "b", Op: "=", Value: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Where() = %v, want %v", got, want)
	}
}

func TestParamName(t *testing.T) {
	tests := map[string]string{
		"name":                "NAME",
		"code.name":           "CODE_NAME",
		"container_name,name": "CONTAINER_NAME_NAME",
		"a, b":                "A_B",
	}
	for in, want := range tests {
		if got := ParamName(in); got != want {
			t.Errorf("ParamName(%q) = %q, want %q", in, got, want)
		}
	}
}
