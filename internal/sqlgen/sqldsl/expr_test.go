package sqldsl

import "testing"

func TestExpr_SQL(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"ident", Col{Column: "name"}, "`name`"},
		{"qualified", Col{Table: "T0", Column: "__row_id"}, "`T0`.`__row_id`"},
		{"backtick escaped", Col{Column: "we`ird"}, "`we``ird`"},
		{"param", Param("CODE_NAME"), "%(CODE_NAME)s"},
		{"literal quoted", Lit("it's"), "'it''s'"},
		{"literal backslash", Lit(`a\b`), `'a\\b'`},
		{"int", Int(-3), "-3"},
		{"uint max", Uint(18446744073709551615), "18446744073709551615"},
		{"func", Func{Name: "COUNT", Args: []Expr{Raw("*")}}, "COUNT(*)"},
		{"alias", SelectAs(Col{Table: "T1", Column: "name"}, "code.name"), "`T1`.`name` AS `code.name`"},
		{"star", Star{}, "*"},
		{"table star", Star{Table: "T0"}, "`T0`.*"},
		{"concat", Concat{Parts: []Expr{Lit("$.parts["), Raw("1"), Lit("]")}}, "CONCAT('$.parts[', 1, ']')"},
		{"empty concat", Concat{}, "''"},
		{"json value", JSONValue(Col{Column: "__json"}, "$.name"), "JSON_VALUE(`__json`, '$.name')"},
		{"json extract", JSONExtract(Col{Table: "C", Column: "__json"}, Col{Table: "P", Column: "__json_path"}), "JSON_EXTRACT(`C`.`__json`, `P`.`__json_path`)"},
		{"json arrayagg", JSONArrayAgg(Col{Column: "codes"}), "JSON_ARRAYAGG(`codes`)"},
		{"json arrayagg ordered", JSONArrayAgg(Col{Column: "codes"}, Col{Column: "a"}, Col{Column: "b"}), "JSON_ARRAYAGG(`codes` ORDER BY `a`, `b`)"},
		{"coalesce", Coalesce(Col{Column: "codes"}, Func{Name: "JSON_ARRAY"}), "COALESCE(`codes`, JSON_ARRAY())"},
		{
			"match",
			Match{Columns: []Expr{Col{Column: "name"}, Col{Column: "title"}}, Query: Param("NAME_TITLE")},
			"MATCH (`name`,`title`) AGAINST (%(NAME_TITLE)s IN BOOLEAN MODE)",
		},
		{"sum empty", Sum(), "0"},
		{"sum one", Sum(Col{Column: "a"}), "`a`"},
		{"sum many", Sum(Col{Column: "a"}, nil, Col{Column: "b"}), "(`a` + `b`)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.SQL(); got != tt.want {
				t.Errorf("SQL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		op   string
		want string
		ok   bool
	}{
		{"=", "`a` = %(A)s", true},
		{"==", "`a` = %(A)s", true},
		{"!=", "`a` != %(A)s", true},
		{"<>", "`a` != %(A)s", true},
		{"<", "`a` < %(A)s", true},
		{"<=", "`a` <= %(A)s", true},
		{">", "`a` > %(A)s", true},
		{">=", "`a` >= %(A)s", true},
		{"LIKE", "`a` LIKE %(A)s", true},
		{"match", "", false},
		{"~", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got, ok := Compare(tt.op, Col{Column: "a"}, Param("A"))
			if ok != tt.ok {
				t.Fatalf("Compare(%q) ok = %v, want %v", tt.op, ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.SQL() != tt.want {
				t.Errorf("Compare(%q) = %q, want %q", tt.op, got.SQL(), tt.want)
			}
		})
	}
}

func TestLogical_SQL(t *testing.T) {
	a := Eq{Left: Col{Column: "a"}, Right: Int(1)}
	b := IsNotNull{Expr: Col{Column: "b"}}

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"and empty", And(), "TRUE"},
		{"and one", And(a), "`a` = 1"},
		{"and skips nil", And(a, nil, b), "(`a` = 1 AND `b` IS NOT NULL)"},
		{"is not null", IsNotNull{Expr: Col{Column: "x"}}, "`x` IS NOT NULL"},
		{"sub", Sub{Left: Col{Column: "n"}, Right: Int(1)}, "`n` - 1"},
		{
			"not exists",
			NotExists{Query: SelectStmt{From: TableRef{Name: "t"}}},
			"NOT EXISTS (\n  SELECT\n    1\n  FROM `t`\n)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.SQL(); got != tt.want {
				t.Errorf("SQL() = %q, want %q", got, tt.want)
			}
		})
	}
}
