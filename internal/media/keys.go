package media

import (
	"path"
	"regexp"
	"strings"

	"github.com/oklog/ulid/v2"
)

const maxNameLen = 64

var unsafeChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// ObjectKey builds products/<field>/<ULID>-<sanitized filename>. The ULID
// prefix keeps keys unique and ordered by upload time.
func ObjectKey(field, filename string) string {
	return path.Join("products", field, ulid.Make().String()+"-"+SanitizeFilename(filename))
}

// SanitizeFilename reduces a client supplied filename to a safe path segment.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.ToLower(path.Base(strings.TrimSpace(name)))
	name = unsafeChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, ".-")
	if len(name) > maxNameLen {
		name = strings.Trim(name[len(name)-maxNameLen:], ".-")
	}
	if name == "" {
		return "file"
	}
	return name
}
