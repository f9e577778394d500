// Package vcard renders phonebook contacts as vCard 2.1 or 3.0 text and
// renders PBAP vCard-listing documents.
//
// Rendering is deterministic: the same contacts, format and filter always
// produce the same bytes.
package vcard

import (
	"bytes"
	"strings"

	"github.com/spachava753/pbap/contact"
)

// Format is the vCard version requested by the client.
type Format int

const (
	// V21 is vCard 2.1.
	V21 Format = iota
	// V30 is vCard 3.0.
	V30
)

// String returns the VERSION value.
func (f Format) String() string {
	if f == V30 {
		return "3.0"
	}
	return "2.1"
}

// Filter is the PBAP attribute mask. A zero Filter selects every field.
type Filter uint64

// Attribute bits defined by the Phonebook Access Profile.
const (
	FilterVersion      Filter = 1 << 0
	FilterFN           Filter = 1 << 1
	FilterN            Filter = 1 << 2
	FilterPhoto        Filter = 1 << 3
	FilterBirthday     Filter = 1 << 4
	FilterAddress      Filter = 1 << 5
	FilterTel          Filter = 1 << 7
	FilterEmail        Filter = 1 << 8
	FilterTitle        Filter = 1 << 12
	FilterRole         Filter = 1 << 13
	FilterOrg          Filter = 1 << 16
	FilterURL          Filter = 1 << 20
	FilterUID          Filter = 1 << 21
	FilterNickname     Filter = 1 << 23
	FilterCallDatetime Filter = 1 << 28

	// FilterAll selects every attribute.
	FilterAll Filter = ^Filter(0)
)

// Has reports whether every bit of attr is set.
func (f Filter) Has(attr Filter) bool {
	return f&attr == attr
}

func (f Filter) effective(format Format) Filter {
	if f == 0 {
		f = FilterAll
	}
	f |= FilterVersion | FilterN | FilterTel
	if format == V30 {
		f |= FilterFN
	}
	return f
}

// Marshal renders contacts in order. Contacts without a family or given
// name are skipped.
func Marshal(contacts []*contact.Contact, format Format, filter Filter) []byte {
	var buf bytes.Buffer
	for _, c := range contacts {
		Write(&buf, c, format, filter)
	}
	return buf.Bytes()
}

// Write appends one vCard for c to buf. It reports false, writing nothing,
// when c has neither a family nor a given name.
func Write(buf *bytes.Buffer, c *contact.Contact, format Format, filter Filter) bool {
	if c == nil || !c.HasName() {
		return false
	}
	filter = filter.effective(format)
	w := writer{buf: buf, format: format}

	w.line("BEGIN:VCARD")
	w.line("VERSION:" + format.String())
	w.line("N:" + w.components(c.Family, c.Given, c.Additional, c.Prefix, c.Suffix))
	if format == V30 && filter.Has(FilterFN) {
		w.line("FN:" + w.escape(fullName(c)))
	}
	if filter.Has(FilterNickname) && c.Nickname != "" {
		w.line("NICKNAME:" + w.escape(c.Nickname))
	}
	if filter.Has(FilterPhoto) && c.Photo != "" {
		w.line(w.photoPrefix() + c.Photo)
	}
	if filter.Has(FilterBirthday) && c.Birthday != "" {
		w.line("BDAY:" + c.Birthday)
	}
	if filter.Has(FilterAddress) {
		for _, f := range c.Addresses {
			w.line("ADR" + w.params(subtypeTokens(f.Subtype)) + ":" + f.Text)
		}
	}
	for _, f := range c.Phones {
		w.line("TEL" + w.params(phoneTokens(f.Subtype)) + ":" + w.escape(f.Text))
	}
	if filter.Has(FilterEmail) {
		for _, f := range c.Emails {
			w.line("EMAIL" + w.params(append([]string{"INTERNET"}, subtypeTokens(f.Subtype)...)) + ":" + w.escape(f.Text))
		}
	}
	if filter.Has(FilterURL) {
		for _, f := range c.URLs {
			w.line("URL" + w.params(subtypeTokens(f.Subtype)) + ":" + f.Text)
		}
	}
	if filter.Has(FilterTitle) && c.Title != "" {
		w.line("TITLE:" + w.escape(c.Title))
	}
	if filter.Has(FilterRole) && c.Role != "" {
		w.line("ROLE:" + w.escape(c.Role))
	}
	if filter.Has(FilterOrg) && (c.Company != "" || c.Department != "") {
		w.line("ORG:" + w.components(c.Company, c.Department))
	}
	if filter.Has(FilterUID) && c.UID != "" {
		w.line("UID:" + w.escape(c.UID))
	}
	if filter.Has(FilterCallDatetime) && c.IsCall() && c.Call.Timestamp != "" {
		w.line("X-IRMC-CALL-DATETIME;" + c.Call.Kind.String() + ":" + c.Call.Timestamp)
	}
	w.line("END:VCARD")
	return true
}

type writer struct {
	buf    *bytes.Buffer
	format Format
}

func (w writer) line(s string) {
	w.buf.WriteString(s)
	w.buf.WriteString("\r\n")
}

// params encodes type tokens: bare tokens for 2.1, TYPE= parameters for 3.0.
func (w writer) params(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range tokens {
		b.WriteByte(';')
		if w.format == V30 {
			b.WriteString("TYPE=")
		}
		b.WriteString(t)
	}
	return b.String()
}

func (w writer) photoPrefix() string {
	if w.format == V30 {
		return "PHOTO;VALUE=uri:"
	}
	return "PHOTO;VALUE=URL:"
}

func phoneTokens(s contact.Subtype) []string {
	switch s {
	case contact.SubtypeHome:
		return []string{"HOME", "VOICE"}
	case contact.SubtypeWork:
		return []string{"WORK", "VOICE"}
	case contact.SubtypeMobile:
		return []string{"CELL"}
	case contact.SubtypeFax:
		return []string{"FAX"}
	default:
		return []string{"VOICE"}
	}
}

func subtypeTokens(s contact.Subtype) []string {
	switch s {
	case contact.SubtypeHome:
		return []string{"HOME"}
	case contact.SubtypeWork:
		return []string{"WORK"}
	default:
		return nil
	}
}

func fullName(c *contact.Contact) string {
	if c.FullName != "" {
		return c.FullName
	}
	return strings.TrimSpace(c.Given + " " + c.Family)
}

// components escapes each structured component and drops trailing empty
// ones, so "Doe", "John", "", "" becomes "Doe;John".
func (w writer) components(parts ...string) string {
	end := len(parts)
	for end > 0 && parts[end-1] == "" {
		end--
	}
	escaped := make([]string, end)
	for i := 0; i < end; i++ {
		escaped[i] = w.escape(parts[i])
	}
	return strings.Join(escaped, ";")
}

// vCard 2.1 only escapes the component separator; commas are literal.
var (
	escaper21 = strings.NewReplacer(
		";", `\;`,
		"\r\n", `\n`,
		"\n", `\n`,
	)
	escaper30 = strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\r\n", `\n`,
		"\n", `\n`,
	)
)

func (w writer) escape(s string) string {
	if w.format == V30 {
		return escaper30.Replace(s)
	}
	return escaper21.Replace(s)
}
