package photoblog

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DefaultKeyPrefix is the namespace new object keys are created under.
const DefaultKeyPrefix = "photos"

var validExtensionRegex = regexp.MustCompile(`^[a-z0-9]{1,16}$`)

// KeyScheme generates collision-free object keys of the form <prefix>/<uuid>.<ext>.
type KeyScheme struct {
	Prefix string
	// NewID is used to generate the unique part of a key. Defaults to uuid.NewRandom.
	NewID func() (uuid.UUID, error)
}

// NewKeyScheme returns a KeyScheme for prefix, or DefaultKeyPrefix when prefix is empty.
func NewKeyScheme(prefix string) (KeyScheme, error) {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if !IsValidKey(prefix) {
		return KeyScheme{}, fmt.Errorf("new key scheme: invalid prefix %q: %w", prefix, ErrValidationFailed)
	}
	return KeyScheme{Prefix: prefix, NewID: uuid.NewRandom}, nil
}

// NewKey returns a fresh key for an object with the given extension.
// The extension may carry a leading dot and is lowercased.
func (k KeyScheme) NewKey(ext string) (string, error) {
	ext = NormalizeExtension(ext)
	if !validExtensionRegex.MatchString(ext) {
		return "", fmt.Errorf("new key: invalid extension %q: %w", ext, ErrValidationFailed)
	}

	newID := k.NewID
	if newID == nil {
		newID = uuid.NewRandom
	}
	id, err := newID()
	if err != nil {
		return "", fmt.Errorf("new key: %w", err)
	}

	prefix := k.Prefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return prefix + "/" + id.String() + "." + ext, nil
}

// NormalizeExtension lowercases ext and strips a leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// ExtensionOf returns the normalized extension of an upload filename, or "" if it has none.
func ExtensionOf(filename string) string {
	return NormalizeExtension(path.Ext(strings.TrimSpace(filename)))
}

// IsValidKey validates that a key is safe to use as an object key.
// It checks that the key:
//   - is not empty, ".", or "/"
//   - is relative (does not start with "/")
//   - does not end with "/"
//   - does not contain ".." (path traversal)
//   - does not contain "//" (empty segments)
//   - does not contain invalid characters: \ ? # ~
//   - is valid UTF-8
//   - does not contain "." segments
//   - does not contain control characters or whitespace
func IsValidKey(p string) bool {
	if p == "" || p == "/" || p == "." {
		return false
	}

	if p[0] == '/' || strings.HasSuffix(p, "/") {
		return false
	}

	if strings.Contains(p, "..") || strings.Contains(p, "//") {
		return false
	}

	if strings.ContainsAny(p, `\?#~`) {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	if strings.HasPrefix(p, "./") || strings.Contains(p, "/./") || strings.HasSuffix(p, "/.") {
		return false
	}

	for _, r := range p {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
