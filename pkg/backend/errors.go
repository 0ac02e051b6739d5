package backend

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// Server error numbers.
const (
	ErNoSuchTable = 1146
	ErDupEntry    = 1062
	ErBadDB       = 1049
)

// ErrorNumber returns the server error number carried by err, or 0.
func ErrorNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// IsMissingTableErr reports whether err is a "table doesn't exist" error.
func IsMissingTableErr(err error) bool {
	return ErrorNumber(err) == ErNoSuchTable
}

// IsDuplicateKeyErr reports whether err is a unique key violation.
func IsDuplicateKeyErr(err error) bool {
	return ErrorNumber(err) == ErDupEntry
}

// IsUnknownDatabaseErr reports whether err names a database that does not
// exist.
func IsUnknownDatabaseErr(err error) bool {
	return ErrorNumber(err) == ErBadDB
}
