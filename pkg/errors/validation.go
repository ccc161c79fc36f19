package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateResourceID validates a resource identifier for safety and correctness.
// It rejects identifiers that could be used for path traversal or injection.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 256 characters
//
// Format-specific validation should be done separately by the input parsers.
func ValidateResourceID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "resource identifier cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "resource identifier too long (max 256 characters)")
	}

	// Check for control characters and null bytes
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "resource identifier contains invalid control characters")
		}
	}

	// Check for path traversal patterns
	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "resource identifier contains invalid characters: %q", pattern)
		}
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

// ValidateTitle validates a diagram title.
// Titles are rendered into SVG text elements, so control characters are rejected.
func ValidateTitle(title string) error {
	const maxTitleLength = 120
	if len(title) > maxTitleLength {
		return New(ErrCodeInvalidInput, "title too long (max %d characters)", maxTitleLength)
	}

	for _, r := range title {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "title contains invalid control characters")
		}
	}

	return nil
}

// resourceAddressRegex matches Terraform resource addresses such as
// "aws_lambda_function.api" or "module.web.aws_s3_bucket.assets".
var resourceAddressRegex = regexp.MustCompile(`^(module\.[A-Za-z0-9._-]+\.)*[a-z0-9_]+\.[A-Za-z0-9._-]+$`)

// ValidateResourceAddress validates a Terraform-style resource address.
func ValidateResourceAddress(addr string) error {
	if err := ValidateResourceID(addr); err != nil {
		return err
	}

	if !resourceAddressRegex.MatchString(addr) {
		return New(ErrCodeInvalidInput, "invalid resource address: %q", addr)
	}

	return nil
}

// moduleNameRegex matches valid module names.
var moduleNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateModuleName validates a module (grouping) name.
// The reserved root grouping "_root" is always accepted.
func ValidateModuleName(name string) error {
	if name == "_root" {
		return nil
	}

	if err := ValidateResourceID(name); err != nil {
		return err
	}

	if !moduleNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid module name: %q", name)
	}

	return nil
}
