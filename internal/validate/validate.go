// Package validate checks user-entered text from the onboarding forms.
package validate

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// lettersOnly matches words separated by single spaces. A word is a run of
// letters, each optionally followed by combining marks (accents, vowel signs).
var lettersOnly = regexp.MustCompile(`^(?:\p{L}\p{M}*)+(?: (?:\p{L}\p{M}*)+)*$`)

// Error is a user-facing validation failure for a single form field.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// LettersOnly reports whether s consists of letters and single interior spaces.
// Input is NFC-normalized first so that decomposed accents count as letters.
func LettersOnly(s string) bool {
	return lettersOnly.MatchString(norm.NFC.String(s))
}

// Normalize returns the form in which validated input is stored: NFC with
// surrounding whitespace removed.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Name validates the introduce step input.
func Name(s string) *Error {
	if !LettersOnly(s) {
		return &Error{Field: "name", Message: "Enter a valid name (letters only)."}
	}
	return nil
}

// Location validates the city step input.
func Location(s string) *Error {
	if !LettersOnly(s) {
		return &Error{Field: "location", Message: "Enter a valid location (letters only)."}
	}
	return nil
}
