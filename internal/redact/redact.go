// Package redact strips personal and secret data from strings before they
// are logged or returned in error responses: phone numbers, e-mail
// addresses, SIM card identifiers, passcodes, connection credentials and
// filesystem paths.
package redact

import (
	"regexp"
	"strings"
	"unicode"
)

// Placeholders substituted for redacted fragments.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedPhonePlaceholder      = "[REDACTED_PHONE]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
	RedactedICCPlaceholder        = "[REDACTED_ICC]"
)

// minPhoneDigits is the shortest digit run treated as a phone number.
const minPhoneDigits = 7

type rule struct {
	re          *regexp.Regexp
	placeholder string
	// accept, when set, decides per match whether to redact it.
	accept func(match string) bool
}

// Rules run in order; earlier rules win because their output no longer
// matches later ones.
var rules = []rule{
	{
		re:          regexp.MustCompile(`(?i)(postgres|postgresql|redis|rediss)://[^@\s]+@`),
		placeholder: RedactedCredentialPlaceholder,
	},
	{
		re:          regexp.MustCompile(`(?i)(password|passwd|passcode|new_?pin|pin)(["']?\s*[=:]\s*["']?)[^"'&\s,}]+`),
		placeholder: RedactedCredentialPlaceholder,
	},
	{
		// ICCIDs are 19 or 20 digits starting with the telecom prefix 89.
		re:          regexp.MustCompile(`\b89\d{17,18}\b`),
		placeholder: RedactedICCPlaceholder,
	},
	{
		re:          regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		placeholder: RedactedEmailPlaceholder,
	},
	{
		re:          regexp.MustCompile(`\+?\(?\d[\d\s().-]*\d`),
		placeholder: RedactedPhonePlaceholder,
		accept:      func(m string) bool { return countDigits(m) >= minPhoneDigits },
	},
	{
		re:          regexp.MustCompile(`(/[\w.-]+){2,}`),
		placeholder: RedactedPathPlaceholder,
	},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		if r.accept == nil {
			result = r.re.ReplaceAllString(result, r.placeholder)
			continue
		}
		result = r.re.ReplaceAllStringFunc(result, func(m string) string {
			if r.accept(m) {
				return r.placeholder
			}
			return m
		})
	}

	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}

// Phone masks all but the last two digits of a phone number, for log lines
// that need to tell numbers apart.
func Phone(number string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, number)
	if len(digits) <= 2 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-2) + digits[len(digits)-2:]
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
