package phonebook

import (
	"strings"
	"time"

	"github.com/spachava753/pbap/contact"
)

// Column layout of Fetch and Entry rows.
const (
	ColPhones     = 0 // MainDelim-separated "type SubDelim number" elements
	ColFullName   = 1
	ColFamily     = 2
	ColGiven      = 3
	ColAdditional = 4
	ColPrefix     = 5
	ColSuffix     = 6
	ColAddresses  = 7 // "address SubDelim affiliation-label" elements
	ColBirthday   = 8
	ColNickname   = 9
	ColURLs       = 10 // "url SubDelim affiliation-label" elements
	ColPhoto      = 11
	ColRole       = 12
	ColUID        = 13
	ColTitle      = 14
	ColAffLabel   = 15
	ColCompany    = 16
	ColDepartment = 17
	ColEmails     = 18 // "email SubDelim affiliation-label" elements
	ColDate       = 19
	ColSent       = 20
	ColAnswered   = 21
	ColID         = 22
)

// Column layout of List rows.
const (
	ListColID         = 0
	ListColFamily     = 1
	ListColGiven      = 2
	ListColAdditional = 3
	ListColPrefix     = 4
	ListColSuffix     = 5
	ListColPhone      = 6
)

// Column layout of Scan rows.
const (
	ScanColID     = 0
	ScanColNumber = 1
	ScanColRead   = 2
)

const (
	// MainDelim separates elements of a multi-valued column.
	MainDelim = "\x18"
	// SubDelim separates the value from its type or affiliation tag.
	SubDelim = "\x19"
	// NotACall is the ColDate value of directory entries.
	NotACall = "NOTACALL"

	// FaxNumberType marks fax numbers in a phone element's type tag.
	FaxNumberType = "FaxNumber"
	// MobileNumberType marks cell numbers in a phone element's type tag.
	MobileNumberType = "CellPhoneNumber"

	affiliationHome = "Home"
	affiliationWork = "Work"

	// maxElements caps the elements taken from one multi-valued column.
	maxElements = 100
)

// JoinElements builds a multi-valued column from value/tag pairs.
func JoinElements(pairs ...[2]string) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p[0]+SubDelim+p[1])
	}
	return strings.Join(parts, MainDelim)
}

func splitElements(column string) []string {
	if column == "" {
		return nil
	}
	return strings.SplitN(column, MainDelim, maxElements)
}

func splitPair(element string) (string, string, bool) {
	first, second, ok := strings.Cut(element, SubDelim)
	if !ok {
		return "", "", false
	}
	return first, second, true
}

func affiliationSubtype(label string) contact.Subtype {
	switch label {
	case affiliationHome:
		return contact.SubtypeHome
	case affiliationWork:
		return contact.SubtypeWork
	default:
		return contact.SubtypeOther
	}
}

// phoneSubtype derives the subtype of a phone element from its type tag,
// falling back to the row's affiliation label.
func phoneSubtype(tag, affiliation string) contact.Subtype {
	switch {
	case strings.Contains(tag, FaxNumberType):
		return contact.SubtypeFax
	case strings.Contains(tag, MobileNumberType):
		return contact.SubtypeMobile
	default:
		return affiliationSubtype(affiliation)
	}
}

func addPhones(c *contact.Contact, row []string) {
	for _, element := range splitElements(row[ColPhones]) {
		tag, number, ok := splitPair(element)
		if !ok {
			continue
		}
		c.AddField(contact.Field{
			Text:     number,
			Category: contact.CategoryPhone,
			Subtype:  phoneSubtype(tag, row[ColAffLabel]),
		})
	}
}

func addAffiliated(c *contact.Contact, column string, cat contact.Category) {
	for _, element := range splitElements(column) {
		value, label, ok := splitPair(element)
		if !ok {
			continue
		}
		c.AddField(contact.Field{Text: value, Category: cat, Subtype: affiliationSubtype(label)})
	}
}

// mergeRow adds the multi-valued and organization fields of row to c.
func mergeRow(c *contact.Contact, row []string) {
	addPhones(c, row)
	addAffiliated(c, row[ColEmails], contact.CategoryEmail)
	addAffiliated(c, row[ColAddresses], contact.CategoryAddress)
	addAffiliated(c, row[ColURLs], contact.CategoryURL)
	c.BackfillOrganization(row[ColTitle], row[ColCompany], row[ColDepartment], row[ColRole])
}

// initContact populates the scalar attributes of a new contact.
func initContact(c *contact.Contact, row []string, loc *time.Location) {
	c.FullName = row[ColFullName]
	c.Family = row[ColFamily]
	c.Given = row[ColGiven]
	c.Additional = row[ColAdditional]
	c.Prefix = row[ColPrefix]
	c.Suffix = row[ColSuffix]
	c.Birthday = row[ColBirthday]
	c.Nickname = row[ColNickname]
	c.Photo = row[ColPhoto]
	c.UID = row[ColUID]
	c.Company = row[ColCompany]
	c.Department = row[ColDepartment]
	c.Role = row[ColRole]
	c.Title = row[ColTitle]
	c.Call = callMeta(row[ColDate], row[ColSent], row[ColAnswered], loc)
}

// callMeta classifies a row: sent → outgoing, unsent and answered →
// incoming, unsent and unanswered → missed. The NotACall marker yields nil.
func callMeta(date, sent, answered string, loc *time.Location) *contact.CallMeta {
	if date == NotACall {
		return nil
	}
	kind := contact.CallOutgoing
	if sent != "true" {
		kind = contact.CallMissed
		if answered == "true" {
			kind = contact.CallIncoming
		}
	}
	return &contact.CallMeta{Kind: kind, Timestamp: LocalTimestamp(date, loc)}
}

const callTimestampLayout = "20060102T150405"

// LocalTimestamp converts an ISO 8601 date to YYYYMMDDTHHMMSS in loc.
// Dates without a zone designator are taken to be local already.
// Unparsable input yields "".
func LocalTimestamp(datetime string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	datetime = strings.TrimSpace(datetime)
	if t, err := time.Parse(time.RFC3339, datetime); err == nil {
		return t.In(loc).Format(callTimestampLayout)
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", datetime, loc); err == nil {
		return t.Format(callTimestampLayout)
	}
	return ""
}

// placeholder reports whether every data column of a Fetch row is empty.
// The trailing date, sent, answered and id columns are always set.
func placeholder(row []string) bool {
	for i := 0; i < ColDate; i++ {
		if row[i] != "" {
			return false
		}
	}
	return true
}
