package contacts

import (
	"errors"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Contact validation errors.
var (
	// ErrContactEmpty is returned when a contact has no name, phone or e-mail.
	ErrContactEmpty = errors.New("contact needs a name, phone number or e-mail")

	// ErrContactIDEmpty is returned when a stored contact has a nil ID.
	ErrContactIDEmpty = errors.New("contact ID cannot be empty")
)

// Contact is one address-book entry.
type Contact struct {
	ID         uuid.UUID `json:"id"`
	GivenName  string    `json:"given_name,omitempty"`
	FamilyName string    `json:"family_name,omitempty"`
	Name       string    `json:"name,omitempty"`
	Tel        []string  `json:"tel,omitempty"`
	Email      []string  `json:"email,omitempty"`
	Org        string    `json:"org,omitempty"`
	Note       string    `json:"note,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate checks that the contact carries at least one identifying field.
func (c *Contact) Validate() error {
	if strings.TrimSpace(c.DisplayName()) == "" && len(c.Tel) == 0 && len(c.Email) == 0 {
		return ErrContactEmpty
	}
	return nil
}

// DisplayName returns Name, or the given and family names joined.
func (c *Contact) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return strings.TrimSpace(c.GivenName + " " + c.FamilyName)
}

// NormalizePhone strips formatting from a phone number, keeping digits and a
// leading plus sign.
func NormalizePhone(number string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(number) {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeEmail lowercases and trims an e-mail address.
func NormalizeEmail(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// NormalizedTel returns the contact's non-empty normalised phone numbers.
func (c *Contact) NormalizedTel() []string {
	out := make([]string, 0, len(c.Tel))
	for _, t := range c.Tel {
		if n := NormalizePhone(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// NormalizedEmail returns the contact's non-empty normalised e-mails.
func (c *Contact) NormalizedEmail() []string {
	out := make([]string, 0, len(c.Email))
	for _, e := range c.Email {
		if n := NormalizeEmail(e); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Matches reports whether incoming should be merged into c.
func (c *Contact) Matches(incoming *Contact) bool {
	tel := incoming.NormalizedTel()
	email := incoming.NormalizedEmail()

	if len(tel) == 0 && len(email) == 0 {
		name := strings.ToLower(incoming.DisplayName())
		return name != "" && name == strings.ToLower(c.DisplayName())
	}

	for _, t := range c.NormalizedTel() {
		if slices.Contains(tel, t) {
			return true
		}
	}
	for _, e := range c.NormalizedEmail() {
		if slices.Contains(email, e) {
			return true
		}
	}
	return false
}

// Merge folds incoming into existing and returns the result. Phone numbers
// and e-mails are unioned (compared in normalised form, original spelling of
// the first occurrence kept); empty scalar fields are filled from incoming.
// The existing ID is preserved.
func Merge(existing, incoming Contact) Contact {
	merged := existing
	merged.Tel = unionBy(existing.Tel, incoming.Tel, NormalizePhone)
	merged.Email = unionBy(existing.Email, incoming.Email, NormalizeEmail)

	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&merged.GivenName, incoming.GivenName)
	fill(&merged.FamilyName, incoming.FamilyName)
	fill(&merged.Name, incoming.Name)
	fill(&merged.Org, incoming.Org)
	fill(&merged.Note, incoming.Note)

	return merged
}

func unionBy(a, b []string, key func(string) string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range slices.Concat(a, b) {
		k := key(v)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
