package sqlite

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// containsFoldFunc is a SQL function reporting whether its first argument
// contains the second under Unicode case folding. SQLite's LIKE folds ASCII only.
const containsFoldFunc = "contains_fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(containsFoldFunc, 2, containsFold)
}

func containsFold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	haystack, ok := textValue(args[0])
	if !ok {
		return int64(0), nil
	}
	needle, ok := textValue(args[1])
	if !ok {
		return int64(0), nil
	}
	if strings.Contains(strings.ToLower(haystack), strings.ToLower(needle)) {
		return int64(1), nil
	}
	return int64(0), nil
}

func textValue(v driver.Value) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}
