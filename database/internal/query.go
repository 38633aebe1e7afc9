// Package internal holds SQL helpers shared by the catalog backends.
package internal

import (
	"math"
	"strings"
)

// EscapeLikePattern escapes special LIKE characters (%, _, \) so user input matches literally.
// Callers must use backslash as the LIKE escape character.
func EscapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}

// ContainsPattern returns a LIKE pattern matching any value containing s.
func ContainsPattern(s string) string {
	return "%" + EscapeLikePattern(s) + "%"
}

// Offset returns the row offset of a 1-indexed page. Offsets that would
// overflow saturate at math.MaxInt, which lies past the last row.
func Offset(page, pageSize int) int {
	if page < 1 || pageSize < 1 {
		return 0
	}
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}
