package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateDocumentName validates the human name given to a new document.
// Names end up in filenames (via a slug) and in frontmatter, so the rules
// reject anything that could escape the workspace:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 200 characters
func ValidateDocumentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "document name cannot be empty")
	}

	if len(name) > 200 {
		return New(ErrCodeInvalidName, "document name too long (max 200 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "document name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidName, "document name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidatePath validates a document path relative to the workspace root.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal segments (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}

var classifierRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateClassifier validates a node classifier supplied by a user. An
// empty classifier is valid and selects the default shape.
func ValidateClassifier(classifier string) error {
	if classifier == "" {
		return nil
	}
	if !classifierRegex.MatchString(classifier) {
		return New(ErrCodeInvalidInput, "invalid classifier %q (letters, digits, '_' and '-' only)", classifier)
	}
	return nil
}
