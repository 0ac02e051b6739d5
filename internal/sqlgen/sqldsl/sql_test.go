package sqldsl

import "testing"

func TestSqlf(t *testing.T) {
	got := Sqlf(`
		SELECT %s
		FROM %s

		WHERE 1
	`, "a", "t")
	want := "SELECT a\nFROM t\nWHERE 1"
	if got != want {
		t.Errorf("Sqlf() = %q, want %q", got, want)
	}
}

func TestOptf(t *testing.T) {
	if got := Optf(false, "x %d", 1); got != "" {
		t.Errorf("Optf(false) = %q", got)
	}
	if got := Optf(true, "x %d", 1); got != "x 1" {
		t.Errorf("Optf(true) = %q", got)
	}
}

func TestSelectStmt_SQL(t *testing.T) {
	tests := []struct {
		name string
		stmt SelectStmt
		want string
	}{
		{
			name: "minimal",
			stmt: SelectStmt{Columns: []Expr{Raw("LAST_INSERT_ID()")}},
			want: "SELECT\n  LAST_INSERT_ID()",
		},
		{
			name: "distinct with where and order",
			stmt: SelectStmt{
				Distinct: true,
				Columns:  []Expr{Col{Column: "__row_id"}, Col{Column: "name"}},
				From:     TableRef{Name: "model_Container"},
				Where: []Expr{
					Eq{Left: Col{Column: "name"}, Right: Param("NAME")},
					Gt{Left: Col{Column: "__row_id"}, Right: Int(3)},
				},
				OrderBy: []Expr{OrderBy{Expr: Col{Column: "name"}, Dir: "DESC"}, OrderBy{Expr: Col{Column: "__row_id"}}},
				Limit:   Uint(10),
				Offset:  Int(0),
			},
			want: "SELECT DISTINCT\n" +
				"  `__row_id`,\n" +
				"  `name`\n" +
				"FROM `model_Container`\n" +
				"WHERE\n" +
				"  `name` = %(NAME)s AND\n" +
				"  `__row_id` > 3\n" +
				"ORDER BY\n" +
				"  `name` DESC,\n" +
				"  `__row_id`\n" +
				"LIMIT 10 OFFSET 0",
		},
		{
			name: "joins and group by",
			stmt: SelectStmt{
				Columns: []Expr{Col{Table: "A", Column: "x"}},
				From:    TableAs("a", "A"),
				Joins: []JoinClause{
					{Table: TableAs("b", "B"), On: Eq{Left: Col{Table: "A", Column: "id"}, Right: Col{Table: "B", Column: "id"}}},
					{Type: "LEFT", Table: TableRef{Name: "c"}, On: Raw("TRUE")},
				},
				GroupBy: []Expr{Col{Table: "A", Column: "x"}},
				Limit:   Int(5),
			},
			want: "SELECT\n" +
				"  `A`.`x`\n" +
				"FROM `a` AS `A`\n" +
				"  JOIN `b` AS `B` ON `A`.`id` = `B`.`id`\n" +
				"  LEFT JOIN `c` ON TRUE\n" +
				"GROUP BY\n" +
				"  `A`.`x`\n" +
				"LIMIT 5",
		},
		{
			name: "table list",
			stmt: SelectStmt{
				Columns: []Expr{Star{}},
				From:    TableList{TableAs("t", "S"), TableRef{Name: "u"}},
			},
			want: "SELECT\n  *\nFROM\n  `t` AS `S`,\n  `u`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stmt.SQL(); got != tt.want {
				t.Errorf("SQL() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestSubquery_TableSQL(t *testing.T) {
	sub := Subquery{Query: SelectStmt{Columns: []Expr{Int(1)}}, Alias: "CORE0"}
	want := "(\n  SELECT\n    1\n) AS `CORE0`"
	if got := sub.TableSQL(); got != want {
		t.Errorf("TableSQL() = %q, want %q", got, want)
	}
}

func TestStatements_SQL(t *testing.T) {
	tests := []struct {
		name string
		stmt SQLer
		want string
	}{
		{
			name: "create table",
			stmt: CreateTable{
				Name:        "model_Container",
				Definitions: []string{"`a` BIGINT", "KEY `a_index` (`a`)"},
				Suffix:      " ENGINE=Mroonga",
			},
			want: "CREATE TABLE IF NOT EXISTS `model_Container` (\n  `a` BIGINT,\n  KEY `a_index` (`a`)\n) ENGINE=Mroonga",
		},
		{
			name: "create view",
			stmt: CreateView{Name: "model_Part", Query: SelectStmt{Columns: []Expr{Star{}}, From: TableRef{Name: "model_Part_pbase"}}},
			want: "CREATE VIEW IF NOT EXISTS `model_Part` AS (\n  SELECT\n    *\n  FROM `model_Part_pbase`\n)",
		},
		{
			name: "insert on duplicate key",
			stmt: InsertValues{
				Table:   "model_Container",
				Columns: []string{"__json", "id"},
				Values:  []Expr{Param("__JSON"), Param("ID")},
				OnUpdate: []Assign{
					{Column: "__json", Value: Param("__JSON")},
					{Column: "__row_id", Value: Func{Name: "LAST_INSERT_ID", Args: []Expr{Col{Column: "__row_id"}}}},
				},
			},
			want: "INSERT INTO `model_Container` (\n" +
				"  `__json`,\n" +
				"  `id`\n" +
				")\n" +
				"VALUES (\n" +
				"  %(__JSON)s,\n" +
				"  %(ID)s\n" +
				")\n" +
				"ON DUPLICATE KEY UPDATE\n" +
				"  `__json` = %(__JSON)s,\n" +
				"  `__row_id` = LAST_INSERT_ID(`__row_id`)",
		},
		{
			name: "insert select",
			stmt: InsertSelect{
				Table:   "t",
				Columns: []string{"a"},
				Query:   SelectStmt{Columns: []Expr{Int(1)}},
			},
			want: "INSERT INTO `t` (\n  `a`\n)\nSELECT\n  1",
		},
		{
			name: "delete",
			stmt: DeleteStmt{Table: "model_Part_pbase", Where: []Expr{Eq{Left: Col{Column: "__root_row_id"}, Right: Param("__ROOT_ROW_ID")}}},
			want: "DELETE FROM `model_Part_pbase`\nWHERE\n  `__root_row_id` = %(__ROOT_ROW_ID)s",
		},
		{
			name: "delete all",
			stmt: DeleteStmt{Table: "t"},
			want: "DELETE FROM `t`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stmt.SQL(); got != tt.want {
				t.Errorf("SQL() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}
