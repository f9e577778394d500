package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	govcard "github.com/emersion/go-vcard"

	"github.com/spachava753/pbap/phonebook"
)

// ImportVCards reads every card from r and stores it as a contact. It
// returns the number of contacts added.
func (s *Store) ImportVCards(ctx context.Context, r io.Reader) (int, error) {
	dec := govcard.NewDecoder(r)
	n := 0
	for {
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("sqlstore: decoding vcard %d failed: %w", n+1, err)
		}
		if _, err := s.AddContact(ctx, recordFromCard(card)); err != nil {
			return n, err
		}
		n++
	}
}

func recordFromCard(card govcard.Card) Record {
	r := Record{
		FullName: card.PreferredValue(govcard.FieldFormattedName),
		Nickname: card.PreferredValue(govcard.FieldNickname),
		Birthday: card.PreferredValue(govcard.FieldBirthday),
		Photo:    card.PreferredValue(govcard.FieldPhoto),
		Role:     card.PreferredValue(govcard.FieldRole),
		UID:      card.PreferredValue(govcard.FieldUID),
		Title:    card.PreferredValue(govcard.FieldTitle),
	}
	if name := card.Name(); name != nil {
		r.Family = name.FamilyName
		r.Given = name.GivenName
		r.Additional = name.AdditionalName
		r.Prefix = name.HonorificPrefix
		r.Suffix = name.HonorificSuffix
	}
	if org := card.PreferredValue(govcard.FieldOrganization); org != "" {
		company, department, _ := strings.Cut(org, ";")
		r.Company = company
		r.Department = department
	}

	for _, f := range card[govcard.FieldTelephone] {
		r.Phones = append(r.Phones, Phone{
			Number: f.Value,
			Type:   phoneType(f.Params),
			Label:  affiliation(f.Params),
		})
	}
	for _, f := range card[govcard.FieldEmail] {
		r.Emails = append(r.Emails, Value{Text: f.Value, Label: affiliation(f.Params)})
	}
	for _, f := range card[govcard.FieldURL] {
		r.URLs = append(r.URLs, Value{Text: f.Value, Label: affiliation(f.Params)})
	}
	for _, a := range card.Addresses() {
		r.Addresses = append(r.Addresses, Value{Text: a.Value, Label: affiliation(a.Params)})
	}
	return r
}

// phoneType maps vCard TYPE parameters to the store's phone type tag.
func phoneType(params govcard.Params) string {
	switch {
	case hasType(params, govcard.TypeFax):
		return phonebook.FaxNumberType
	case hasType(params, govcard.TypeCell):
		return phonebook.MobileNumberType
	default:
		return "PhoneNumber"
	}
}

func affiliation(params govcard.Params) string {
	switch {
	case hasType(params, govcard.TypeHome):
		return "Home"
	case hasType(params, govcard.TypeWork):
		return "Work"
	default:
		return ""
	}
}

// hasType matches t against TYPE values, comma lists included, and against
// the bare parameter names vCard 2.1 uses ("TEL;HOME;VOICE").
func hasType(params govcard.Params, t string) bool {
	if params.HasType(t) {
		return true
	}
	for name, values := range params {
		if strings.EqualFold(name, t) {
			return true
		}
		for _, v := range values {
			for _, part := range strings.Split(v, ",") {
				if strings.EqualFold(strings.TrimSpace(part), t) {
					return true
				}
			}
		}
	}
	return false
}
