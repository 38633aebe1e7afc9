package internal

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Column describes one column as reported by the database catalog.
type Column struct {
	Type     string
	Nullable bool
}

// Columns maps column names to their description.
type Columns map[string]Column

// CheckColumns reports every column of want that is missing from got or
// differs in type or nullability. Extra columns in got are allowed.
func CheckColumns(table string, want, got Columns) error {
	var missing, mismatched []string

	for _, name := range slices.Sorted(maps.Keys(want)) {
		expected := want[name]
		actual, ok := got[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if !strings.EqualFold(actual.Type, expected.Type) {
			mismatched = append(mismatched, fmt.Sprintf("%s: expected %s, got %s", name, expected.Type, actual.Type))
		}
		if actual.Nullable != expected.Nullable {
			mismatched = append(mismatched, fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", name, expected.Nullable, actual.Nullable))
		}
	}

	if len(missing) == 0 && len(mismatched) == 0 {
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "table %s does not match the catalog schema", table)
	if len(missing) > 0 {
		fmt.Fprintf(&msg, "; missing columns: %s", strings.Join(missing, ", "))
	}
	if len(mismatched) > 0 {
		fmt.Fprintf(&msg, "; mismatched columns: %s", strings.Join(mismatched, "; "))
	}
	return errors.New(msg.String())
}

