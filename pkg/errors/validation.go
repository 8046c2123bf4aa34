package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateNodeID validates a graph node identifier for safety and
// correctness. Identifiers travel through URLs, cache keys, and database
// queries, so the rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNode, "node id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidNode, "node id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNode, "node id contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidNode, "node id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateRegion validates the raw bounds of a viewport fetch request.
// min must be strictly less than max on both axes, and the span must stay
// within a sane ceiling so one request cannot ask for the entire plane.
func ValidateRegion(minX, minY, maxX, maxY float64) error {
	const maxSpan = 1 << 20

	if minX >= maxX || minY >= maxY {
		return New(ErrCodeInvalidRegion, "region bounds are empty or inverted")
	}
	if maxX-minX > maxSpan || maxY-minY > maxSpan {
		return New(ErrCodeInvalidRegion, "region span exceeds %d world points", maxSpan)
	}
	return nil
}

// ValidatePath validates a file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// fontFamilyRegex matches the font family names the shaper accepts.
var fontFamilyRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9 _-]*$`)

// ValidateFontFamily validates a font family name before it is used as a
// face-cache key.
func ValidateFontFamily(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "font family cannot be empty")
	}

	if !fontFamilyRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid font family name: %q", name)
	}

	return nil
}
