// Package contact holds the in-memory contact record assembled from
// phonebook query rows.
//
// A Contact is created on the first row that references its SourceID and
// is mutated by every later row carrying the same id. Multi-valued fields
// are kept in insertion order and never hold two entries with the same
// category, subtype and text.
package contact

import "strings"

// Category groups multi-valued fields.
type Category int

const (
	// CategoryPhone is a telephone number.
	CategoryPhone Category = iota
	// CategoryEmail is an email address.
	CategoryEmail
	// CategoryAddress is a postal address in "pobox;ext;street;locality;region;code;country" form.
	CategoryAddress
	// CategoryURL is a web address.
	CategoryURL
)

// String returns the lower-case category name.
func (c Category) String() string {
	switch c {
	case CategoryPhone:
		return "phone"
	case CategoryEmail:
		return "email"
	case CategoryAddress:
		return "address"
	case CategoryURL:
		return "url"
	default:
		return "unknown"
	}
}

// Subtype qualifies a field within its category.
type Subtype int

const (
	// SubtypeOther is used when the affiliation label is neither Home nor Work.
	SubtypeOther Subtype = iota
	// SubtypeHome is a home field.
	SubtypeHome
	// SubtypeWork is a work field.
	SubtypeWork
	// SubtypeMobile is a cell phone number.
	SubtypeMobile
	// SubtypeFax is a fax number.
	SubtypeFax
)

// String returns the lower-case subtype name.
func (s Subtype) String() string {
	switch s {
	case SubtypeHome:
		return "home"
	case SubtypeWork:
		return "work"
	case SubtypeMobile:
		return "mobile"
	case SubtypeFax:
		return "fax"
	default:
		return "other"
	}
}

// Field is one value of a multi-valued contact attribute.
type Field struct {
	Text     string
	Category Category
	Subtype  Subtype
}

// CallKind classifies call-log pseudo-contacts.
type CallKind int

const (
	// CallNone marks a directory entry.
	CallNone CallKind = iota
	// CallMissed is an unanswered incoming call.
	CallMissed
	// CallIncoming is an answered incoming call.
	CallIncoming
	// CallOutgoing is a dialed call.
	CallOutgoing
)

// String returns the upper-case name used in X-IRMC-CALL-DATETIME.
func (k CallKind) String() string {
	switch k {
	case CallMissed:
		return "MISSED"
	case CallIncoming:
		return "RECEIVED"
	case CallOutgoing:
		return "DIALED"
	default:
		return ""
	}
}

// CallMeta is attached to contacts produced by call-history queries.
type CallMeta struct {
	Kind CallKind
	// Timestamp is local time formatted as YYYYMMDDTHHMMSS, or empty.
	Timestamp string
}

// Contact is one consolidated phonebook record.
type Contact struct {
	SourceID string

	Family     string
	Given      string
	Additional string
	Prefix     string
	Suffix     string
	FullName   string
	Nickname   string
	Birthday   string
	Photo      string
	UID        string

	Company    string
	Department string
	Role       string
	Title      string

	Phones    []Field
	Emails    []Field
	Addresses []Field
	URLs      []Field

	Call *CallMeta
}

// New returns an empty contact for id.
func New(id string) *Contact {
	return &Contact{SourceID: id}
}

// HasName reports whether the family or given name is populated.
func (c *Contact) HasName() bool {
	return c.Family != "" || c.Given != ""
}

// IsCall reports whether c is a call-log pseudo-contact.
func (c *Contact) IsCall() bool {
	return c.Call != nil && c.Call.Kind != CallNone
}

// AddField inserts f into the set for its category. It reports false when
// the value is empty or already present with the same subtype.
func (c *Contact) AddField(f Field) bool {
	if f.Text == "" {
		return false
	}
	if f.Category == CategoryAddress && !addressPresent(f.Text) {
		return false
	}
	set := c.set(f.Category)
	if set == nil {
		return false
	}
	for _, existing := range *set {
		if existing.Text == f.Text && existing.Subtype == f.Subtype {
			return false
		}
	}
	*set = append(*set, f)
	return true
}

// Fields returns the fields of one category in insertion order.
func (c *Contact) Fields(cat Category) []Field {
	set := c.set(cat)
	if set == nil {
		return nil
	}
	return *set
}

// BackfillOrganization fills organization attributes that are still empty.
// Values already set are never overwritten.
func (c *Contact) BackfillOrganization(title, company, department, role string) {
	firstNonEmpty(&c.Title, title)
	firstNonEmpty(&c.Company, company)
	firstNonEmpty(&c.Department, department)
	firstNonEmpty(&c.Role, role)
}

func (c *Contact) set(cat Category) *[]Field {
	switch cat {
	case CategoryPhone:
		return &c.Phones
	case CategoryEmail:
		return &c.Emails
	case CategoryAddress:
		return &c.Addresses
	case CategoryURL:
		return &c.URLs
	default:
		return nil
	}
}

func firstNonEmpty(dst *string, value string) {
	if *dst != "" || value == "" {
		return
	}
	*dst = value
}

func addressPresent(address string) bool {
	for _, part := range strings.Split(address, ";") {
		if strings.TrimSpace(part) != "" {
			return true
		}
	}
	return false
}
