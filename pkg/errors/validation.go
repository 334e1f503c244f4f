package errors

import (
	"strings"
	"unicode"
)

// MaxLabelLength bounds slot and text labels.
const MaxLabelLength = 256

// ValidateLabel validates a slot or text label from a plan or a template.
// Labels are compared byte-for-byte after normalization, so anything that
// cannot round-trip through a layout application's label field is rejected:
//   - No control characters or null bytes
//   - No leading or trailing whitespace
//   - Maximum length of 256 characters
//
// The empty label is valid and means "unlabeled".
func ValidateLabel(label string) error {
	if label == "" {
		return nil
	}

	if len(label) > MaxLabelLength {
		return New(ErrCodeInvalidLabel, "label too long (max %d characters)", MaxLabelLength)
	}

	for _, r := range label {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidLabel, "label %q contains control characters", label)
		}
	}

	if strings.TrimSpace(label) != label {
		return New(ErrCodeInvalidLabel, "label %q has surrounding whitespace", label)
	}

	return nil
}

// ValidateFilePath validates a local file path taken from a plan.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidateFilePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// NormalizePath converts Windows separators to forward slashes.
// Plans produced on Windows hosts carry backslash paths.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
