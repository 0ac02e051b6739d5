package sqlgen

import (
	"errors"
	"strings"
	"testing"

	"github.com/pthm/docstore/schema"
)

const ftComment = `COMMENT 'parser "TokenBigramIgnoreBlankSplitSymbolAlphaDigit"'`

func TestDDL_ContainerTree(t *testing.T) {
	c := testCompiler(t, Config{})
	stmts, err := c.DDL("Container")
	if err != nil {
		t.Fatalf("DDL() error = %v", err)
	}

	want := []string{
		lines(
			"CREATE TABLE IF NOT EXISTS `model_Container` (",
			"  `__row_id` BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,",
			"  `__json` LONGTEXT CHARACTER SET utf8mb4 COLLATE utf8mb4_bin CHECK (JSON_VALID(`__json`)),",
			"  `id` VARCHAR(36),",
			"  `name` VARCHAR(200) AS (JSON_VALUE(`__json`, '$.name')) STORED,",
			"  UNIQUE KEY `id_index` (`id`),",
			"  KEY `name_index` (`name`),",
			"  FULLTEXT INDEX `ft_index` (`name`) "+ftComment,
			")",
		),
		lines(
			"CREATE TABLE IF NOT EXISTS `model_Part_pbase` (",
			"  `__row_id` BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,",
			"  `__root_row_id` BIGINT,",
			"  `__container_row_id` BIGINT,",
			"  `__json_path` VARCHAR(255),",
			"  `container_name` VARCHAR(200),",
			"  `name` VARCHAR(200),",
			"  `codes` TEXT,",
			"  KEY `__root_row_id_index` (`__root_row_id`),",
			"  FULLTEXT INDEX `ft_index` (`container_name`,`name`) "+ftComment,
			")",
		),
		lines(
			"CREATE VIEW IF NOT EXISTS `model_Part` AS (",
			"  SELECT",
			"    JSON_EXTRACT(`model_Container`.`__json`, `model_Part_pbase`.`__json_path`) AS `__json`,",
			"    `model_Part_pbase`.`__row_id`,",
			"    `model_Part_pbase`.`__root_row_id`,",
			"    `model_Part_pbase`.`__container_row_id`,",
			"    `model_Part_pbase`.`__json_path`,",
			"    `model_Part_pbase`.`container_name`,",
			"    `model_Part_pbase`.`name`,",
			"    `model_Part_pbase`.`codes`",
			"  FROM `model_Part_pbase`",
			"    JOIN `model_Container` ON `model_Container`.`__row_id` = `model_Part_pbase`.`__container_row_id`",
			")",
		),
		lines(
			"CREATE TABLE IF NOT EXISTS `model_Part_codes` (",
			"  `__row_id` BIGINT UNSIGNED NOT NULL,",
			"  `__root_row_id` BIGINT,",
			"  `codes` VARCHAR(200),",
			"  KEY `__row_id_index` (`__row_id`),",
			"  KEY `__root_row_id_index` (`__root_row_id`),",
			"  KEY `codes_index` (`codes`)",
			")",
		),
		lines(
			"CREATE TABLE IF NOT EXISTS `model_SubPart_pbase` (",
			"  `__row_id` BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,",
			"  `__root_row_id` BIGINT,",
			"  `__container_row_id` BIGINT,",
			"  `__json_path` VARCHAR(255),",
			"  `name` VARCHAR(200),",
			"  KEY `__root_row_id_index` (`__root_row_id`),",
			"  KEY `name_index` (`name`),",
			"  FULLTEXT INDEX `ft_index` (`name`) "+ftComment,
			")",
		),
		lines(
			"CREATE VIEW IF NOT EXISTS `model_SubPart` AS (",
			"  SELECT",
			"    JSON_EXTRACT(`model_Part`.`__json`, `model_SubPart_pbase`.`__json_path`) AS `__json`,",
			"    `model_SubPart_pbase`.`__row_id`,",
			"    `model_SubPart_pbase`.`__root_row_id`,",
			"    `model_SubPart_pbase`.`__container_row_id`,",
			"    `model_SubPart_pbase`.`__json_path`,",
			"    `model_SubPart_pbase`.`name`",
			"  FROM `model_SubPart_pbase`",
			"    JOIN `model_Part` ON `model_Part`.`__row_id` = `model_SubPart_pbase`.`__container_row_id`",
			")",
		),
	}

	if len(stmts) != len(want) {
		t.Fatalf("DDL() returned %d statements, want %d", len(stmts), len(want))
	}
	for i, s := range stmts {
		if s.SQL != want[i] {
			t.Errorf("statement %d (%s) =\n%s\nwant\n%s", i, s.Table.Name, s.SQL, want[i])
		}
	}
}

func TestDDL_EngineAndParser(t *testing.T) {
	c := testCompiler(t, Config{Engine: "ENGINE=Mroonga", FullTextParser: "TokenMecab"})
	stmts, err := c.DDL("StartModel")
	if err != nil {
		t.Fatalf("DDL() error = %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("DDL() returned %d statements, want 1", len(stmts))
	}
	got := stmts[0].SQL
	for _, fragment := range []string{
		"  `code` VARCHAR(20) AS (JSON_VALUE(`__json`, '$.code')) STORED,",
		"  `order` BIGINT AS (JSON_VALUE(`__json`, '$.order')) STORED,",
		"  `title` TEXT AS (JSON_VALUE(`__json`, '$.title')) STORED,",
		"  KEY `order_index` (`order`),",
		"  FULLTEXT INDEX `ft_index` (`title`) COMMENT 'parser \"TokenMecab\"'",
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("DDL missing %q in\n%s", fragment, got)
		}
	}
	if !strings.HasSuffix(got, ") ENGINE=Mroonga") {
		t.Errorf("DDL does not end with engine suffix:\n%s", got)
	}
}

func TestDDL_ArrayColumnOnRoot(t *testing.T) {
	c := testCompiler(t, Config{})
	stmts, err := c.DDL("ReferencedByCode")
	if err != nil {
		t.Fatalf("DDL() error = %v", err)
	}
	if len(stmts) != 2 {
		t.Fatalf("DDL() returned %d statements, want 2", len(stmts))
	}
	if !strings.Contains(stmts[0].SQL, "`tags` TEXT AS (JSON_EXTRACT(`__json`, '$.tags[*]')) STORED") {
		t.Errorf("array column not extracted as JSON:\n%s", stmts[0].SQL)
	}
	if strings.Contains(stmts[0].SQL, "`tags_index`") {
		t.Errorf("array column must not be keyed on the primary table:\n%s", stmts[0].SQL)
	}
	if stmts[1].Table.Name != "model_ReferencedByCode_tags" {
		t.Errorf("side table = %q", stmts[1].Table.Name)
	}
}

func TestColumnType(t *testing.T) {
	tests := []struct {
		name string
		ft   schema.FieldType
		want string
	}{
		{"default varchar", schema.FieldType{Kind: schema.KindString}, "VARCHAR(200)"},
		{"bounded varchar", schema.FieldType{Kind: schema.KindString, MaxLength: 36}, "VARCHAR(36)"},
		{"varchar capped", schema.FieldType{Kind: schema.KindString, MaxLength: 1000}, "VARCHAR(200)"},
		{"text", schema.FieldType{Kind: schema.KindText}, "TEXT"},
		{"decimal default", schema.FieldType{Kind: schema.KindDecimal}, "DECIMAL(65)"},
		{"decimal digits", schema.FieldType{Kind: schema.KindDecimal, Precision: 10}, "DECIMAL(10)"},
		{"decimal scale", schema.FieldType{Kind: schema.KindDecimal, Precision: 10, Scale: 2}, "DECIMAL(10,2)"},
		{"int", schema.FieldType{Kind: schema.KindInt}, "BIGINT"},
		{"date", schema.FieldType{Kind: schema.KindDate}, "DATE"},
		{"datetime", schema.FieldType{Kind: schema.KindDateTime}, "DATETIME(6)"},
		{"bool", schema.FieldType{Kind: schema.KindBool}, "BOOL"},
		{"array", schema.FieldType{Kind: schema.KindInt, Array: true}, "TEXT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ColumnType(tt.ft)
			if err != nil {
				t.Fatalf("ColumnType() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ColumnType() = %q, want %q", got, tt.want)
			}
		})
	}

	_, err := ColumnType(schema.FieldType{})
	if !errors.Is(err, schema.ErrUnsupportedType) {
		t.Errorf("ColumnType(unknown) error = %v, want ErrUnsupportedType", err)
	}
}
