package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// identifierRegex matches a single identifier segment: a letter or underscore
// followed by letters, digits or underscores.
var identifierRegex = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)

// ValidateClassName validates a declared class name.
//
// A class name must be a single identifier segment: no dots, no whitespace,
// no control characters, at most 256 characters.
func ValidateClassName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "class name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidName, "class name too long (max 256 characters)")
	}
	if !identifierRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid class name: %q", name)
	}
	return nil
}

// ValidateModuleName validates a dotted module name such as "pkg.models".
//
// Every dot-separated segment must be an identifier. Empty segments (leading,
// trailing or doubled dots) are rejected.
func ValidateModuleName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "module name cannot be empty")
	}
	if len(name) > 512 {
		return New(ErrCodeInvalidName, "module name too long (max 512 characters)")
	}
	for _, seg := range strings.Split(name, ".") {
		if !identifierRegex.MatchString(seg) {
			return New(ErrCodeInvalidName, "invalid module name: %q", name)
		}
	}
	return nil
}

// ValidateMethodName validates a declared method name.
func ValidateMethodName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "method name cannot be empty")
	}
	if !identifierRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid method name: %q", name)
	}
	return nil
}

// ValidatePath validates a project path supplied on the command line or
// through the API.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
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
