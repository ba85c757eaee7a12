package errors

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Length limits for user-entered names.
const (
	MaxSectionNameLength = 30
	MaxMemberNameLength  = 60
	MaxTitleLength       = 120
)

// sectionNameRegex allows letters, digits, spaces and hyphens.
var sectionNameRegex = regexp.MustCompile(`^[\p{L}\p{N} -]+$`)

// colorRegex matches a #RRGGBB hex color.
var colorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// sessionCodeRegex matches session codes produced by session.GenerateCode.
var sessionCodeRegex = regexp.MustCompile(`^[A-Z2-7]{4,16}$`)

// ValidateSectionName validates a voice section name.
//
// Validation rules:
//   - 1 to 30 characters after trimming
//   - Letters, digits, spaces and hyphens only
//
// Uniqueness is checked by the caller against the current section list.
func ValidateSectionName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return New(ErrCodeInvalidSection, "section name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxSectionNameLength {
		return New(ErrCodeInvalidSection, "section name too long (max %d characters)", MaxSectionNameLength)
	}
	if !sectionNameRegex.MatchString(name) {
		return New(ErrCodeInvalidSection, "section name may only contain letters, digits, spaces and hyphens: %q", name)
	}
	return nil
}

// ValidateColor validates a #RRGGBB section color.
func ValidateColor(color string) error {
	if !colorRegex.MatchString(color) {
		return New(ErrCodeInvalidSection, "invalid color %q (want #RRGGBB)", color)
	}
	return nil
}

// ValidateMemberName validates a roster member name.
// Names are free text and need not be unique, but must be non-empty,
// reasonably short and free of control characters.
func ValidateMemberName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return New(ErrCodeInvalidMember, "member name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxMemberNameLength {
		return New(ErrCodeInvalidMember, "member name too long (max %d characters)", MaxMemberNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidMember, "member name contains invalid control characters")
		}
	}
	return nil
}

// ValidateTitle validates an optional stage or session title.
func ValidateTitle(title string) error {
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return New(ErrCodeInvalidInput, "title too long (max %d characters)", MaxTitleLength)
	}
	for _, r := range title {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "title contains invalid control characters")
		}
	}
	return nil
}

// ValidateSessionCode validates a session code supplied by a client.
// Codes are upper-case base32 strings; they also name files on disk for
// the file store, so anything else is rejected before reaching storage.
func ValidateSessionCode(code string) error {
	if code == "" {
		return New(ErrCodeInvalidCode, "session code cannot be empty")
	}
	if !sessionCodeRegex.MatchString(code) {
		return New(ErrCodeInvalidCode, "invalid session code: %q", code)
	}
	return nil
}

// ValidatePath validates a file path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
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
	return nil
}
