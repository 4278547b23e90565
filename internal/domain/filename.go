package domain

import (
	"path/filepath"
	"strings"
)

var allowedExtensions = map[string]bool{
	"jpeg": true,
	"png":  true,
}

// NormalizeExtension returns the lower-cased suffix of filename without the
// dot, or "" when there is none.
func NormalizeExtension(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExtension reports whether filename ends in .jpeg or .png,
// ignoring case.
func IsAllowedExtension(filename string) bool {
	return allowedExtensions[NormalizeExtension(filename)]
}

// ContentType is application/<extension>.
func ContentType(filename string) string {
	return "application/" + NormalizeExtension(filename)
}

// ParseDisplayName splits the filename stem "first_last" into its two parts.
// The stem must contain exactly one underscore with text on both sides.
func ParseDisplayName(filename string) (first, last string, err error) {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.Split(stem, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrBadRequest.WithMessage(
			"filename %q must be in the form firstname_lastname.ext", base)
	}
	return parts[0], parts[1], nil
}
