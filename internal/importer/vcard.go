package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-vcard"
	"github.com/phrazzld/handset/internal/contacts"
)

// ParseVCards decodes every card in text. Empty input yields no contacts.
func ParseVCards(text string) ([]contacts.Contact, error) {
	text = strings.TrimSpace(strings.TrimPrefix(text, "\ufeff"))
	if text == "" {
		return []contacts.Contact{}, nil
	}

	dec := vcard.NewDecoder(strings.NewReader(text))
	var out []contacts.Contact
	for {
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode vCard %d: %w", len(out)+1, err)
		}
		out = append(out, fromCard(card))
	}
	if out == nil {
		out = []contacts.Contact{}
	}
	return out, nil
}

func fromCard(card vcard.Card) contacts.Contact {
	c := contacts.Contact{
		Name:  card.PreferredValue(vcard.FieldFormattedName),
		Tel:   nonEmpty(card.Values(vcard.FieldTelephone)),
		Email: nonEmpty(card.Values(vcard.FieldEmail)),
		Note:  card.Value(vcard.FieldNote),
	}
	if n := card.Name(); n != nil {
		c.GivenName = n.GivenName
		c.FamilyName = n.FamilyName
	}
	if org := card.Value(vcard.FieldOrganization); org != "" {
		// ORG is "Organization;Unit;..."; keep the organization name.
		c.Org, _, _ = strings.Cut(org, ";")
	}
	return c
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
