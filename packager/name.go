package packager

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// InferFromName extracts target and version from an archive name in format "Target-Version-....ext".
//
// For example, "jre-7u60-linux-x64.tar.gz" yields target "jre" and version "7u60". Either return value is empty if
// the name does not have enough dashes: "jre-7u60.tar.gz" only yields target "jre".
func InferFromName(name string) (target, version string) {
	base := path.Base(filepath.ToSlash(name))

	i := strings.IndexByte(base, '-')
	if i <= 0 {
		return "", ""
	}
	target = base[:i]

	rest := base[i+1:]
	if j := strings.IndexByte(rest, '-'); j > 0 {
		version = rest[:j]
	}

	return
}

// ValidateName checks that the target or version value can be used as a path component.
//
// The value must start with an ASCII letter or digit, and may only contain ASCII letters, digits, '.', '_', and '-'.
// kind is only used in the error message.
func ValidateName(kind, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", kind)
	}

	for i, c := range []byte(value) {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		case i > 0 && (c == '.' || c == '_' || c == '-'):
		default:
			return fmt.Errorf(`invalid %s "%s": unexpected character %q at index %d`, kind, value, c, i)
		}
	}

	return nil
}
