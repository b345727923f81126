// Package blob stores rendered report artifacts. Keys are opaque to callers;
// every implementation hands out keys of the form reports/<uuid>/<file name>.
package blob

import (
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const keyPrefix = "reports"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// NewKey builds a unique storage key that still carries a readable file name.
func NewKey(fileName string) string {
	return path.Join(keyPrefix, uuid.NewString(), cleanFileName(fileName))
}

func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "artifact"
	}
	return name
}

// validKey rejects keys that could escape the store's root.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
