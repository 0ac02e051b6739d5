package sqlgen

import (
	"fmt"

	"github.com/pthm/docstore/schema"
)

// Column sizing limits of the dialect.
const (
	maxVarcharLength = 200
	maxDecimalDigits = 65
	keyPrefixLength  = 255
	jsonPathLength   = 255
)

const (
	jsonColumnType = "LONGTEXT CHARACTER SET utf8mb4 COLLATE utf8mb4_bin"
	rowIDType      = "BIGINT UNSIGNED NOT NULL"
	refRowIDType   = "BIGINT"
)

// ColumnType maps a field type to its column type. Array types are stored as
// JSON text.
func ColumnType(ft schema.FieldType) (string, error) {
	if ft.Array {
		return "TEXT", nil
	}
	switch ft.Kind {
	case schema.KindBool:
		return "BOOL", nil
	case schema.KindInt:
		return "BIGINT", nil
	case schema.KindDecimal:
		digits := maxDecimalDigits
		if ft.Precision > 0 && ft.Precision < maxDecimalDigits {
			digits = ft.Precision
		}
		if ft.Scale > 0 {
			return fmt.Sprintf("DECIMAL(%d,%d)", digits, min(ft.Scale, digits)), nil
		}
		return fmt.Sprintf("DECIMAL(%d)", digits), nil
	case schema.KindDateTime:
		return "DATETIME(6)", nil
	case schema.KindDate:
		return "DATE", nil
	case schema.KindString:
		length := maxVarcharLength
		if ft.MaxLength > 0 && ft.MaxLength < maxVarcharLength {
			length = ft.MaxLength
		}
		return fmt.Sprintf("VARCHAR(%d)", length), nil
	case schema.KindText:
		return "TEXT", nil
	default:
		return "", fmt.Errorf("%w: no column type for %s", schema.ErrUnsupportedType, ft.Kind)
	}
}

// needsKeyPrefix reports whether an index on the column needs a prefix length.
func needsKeyPrefix(ft schema.FieldType) bool {
	return ft.Array || ft.Kind == schema.KindText
}
