package storage

import (
	"path"
	"regexp"
	"strings"
)

const maxObjectNameLength = 200

var (
	// Characters that break object keys or the public URLs built from them
	invalidNameChars = regexp.MustCompile(`[<>:"|?*#%{}^~\[\]` + "`" + `]`)
	// Runs of whitespace become a single underscore
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// SanitizeObjectName reduces an uploaded filename to a safe final key
// segment. Directories are dropped and the extension is kept. An empty
// result falls back to "upload" plus the original extension.
func SanitizeObjectName(name string) string {
	name = path.Base("/" + strings.ReplaceAll(name, "\\", "/"))
	if name == "/" || name == "." || name == ".." {
		name = ""
	}

	name = invalidNameChars.ReplaceAllString(name, "")
	name = whitespaceRuns.ReplaceAllString(strings.TrimSpace(name), "_")

	ext := path.Ext(name)
	stem := strings.Trim(strings.TrimSuffix(name, ext), "._")
	if stem == "" {
		stem = "upload"
	}
	if len(stem)+len(ext) > maxObjectNameLength {
		stem = stem[:maxObjectNameLength-len(ext)]
	}
	return stem + strings.ToLower(ext)
}
