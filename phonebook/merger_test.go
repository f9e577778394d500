package phonebook

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/nalgeon/be"

	"github.com/spachava753/pbap/contact"
	"github.com/spachava753/pbap/vcard"
)

// fetchRow returns a directory row for id with the given name.
func fetchRow(id, family, given string) []string {
	row := make([]string, FetchColumns)
	row[ColFamily] = family
	row[ColGiven] = given
	row[ColDate] = NotACall
	row[ColSent] = "false"
	row[ColAnswered] = "false"
	row[ColID] = id
	return row
}

func withPhone(row []string, tag, number, affiliation string) []string {
	row[ColPhones] = JoinElements([2]string{tag, number})
	row[ColAffLabel] = affiliation
	return row
}

func callRow(id, family, given, date string, sent, answered bool) []string {
	row := fetchRow(id, family, given)
	row[ColDate] = date
	row[ColSent] = fmt.Sprint(sent)
	row[ColAnswered] = fmt.Sprint(answered)
	return row
}

func TestMergerJoinsRowsOfOneContact(t *testing.T) {
	m := NewMerger(DefaultParams(), "", time.UTC)
	be.Err(t, m.Add(withPhone(fetchRow("c1", "Doe", "John"), "PhoneNumber", "555-1111", "Home")), nil)
	be.Err(t, m.Add(withPhone(fetchRow("c1", "Doe", "John"), "PhoneNumber", "555-2222", "Work")), nil)

	be.Equal(t, m.Len(), 1)
	got := string(vcard.Marshal(m.Contacts(), vcard.V21, vcard.FilterAll))
	want := "BEGIN:VCARD\r\n" +
		"VERSION:2.1\r\n" +
		"N:Doe;John\r\n" +
		"TEL;HOME;VOICE:555-1111\r\n" +
		"TEL;WORK;VOICE:555-2222\r\n" +
		"END:VCARD\r\n"
	be.Equal(t, got, want)
}

func TestMergerPhoneSubtypes(t *testing.T) {
	m := NewMerger(DefaultParams(), "", time.UTC)
	row := fetchRow("c1", "Doe", "Jane")
	row[ColPhones] = JoinElements(
		[2]string{"WorkFaxNumber", "555-0001"},
		[2]string{"CellPhoneNumber", "555-0002"},
		[2]string{"PhoneNumber", "555-0003"},
		[2]string{"PhoneNumber", ""},
	)
	row[ColAffLabel] = "Other"
	row[ColEmails] = JoinElements([2]string{"jane@work.example", "Work"}, [2]string{"jane@home.example", "Home"})
	be.Err(t, m.Add(row), nil)

	phones := m.Contacts()[0].Fields(contact.CategoryPhone)
	be.Equal(t, len(phones), 3)
	be.Equal(t, phones[0].Subtype, contact.SubtypeFax)
	be.Equal(t, phones[1].Subtype, contact.SubtypeMobile)
	be.Equal(t, phones[2].Subtype, contact.SubtypeOther)

	emails := m.Contacts()[0].Fields(contact.CategoryEmail)
	be.Equal(t, emails[0].Subtype, contact.SubtypeWork)
	be.Equal(t, emails[1].Subtype, contact.SubtypeHome)
}

func TestMergerWindow(t *testing.T) {
	m := NewMerger(Params{Offset: 1, MaxCount: 2}, "", time.UTC)
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("c%d", i)
		be.Err(t, m.Add(fetchRow(id, "Family", id)), nil)
		be.Err(t, m.Add(fetchRow(id, "Family", id)), nil)
	}
	var ids []string
	for _, c := range m.Contacts() {
		ids = append(ids, c.SourceID)
	}
	be.Equal(t, ids, []string{"c2", "c3"})
}

func TestMergerAdmitsOwnerOutsideWindow(t *testing.T) {
	m := NewMerger(Params{Offset: 0, MaxCount: 1}, "owner", time.UTC)
	be.Err(t, m.Add(fetchRow("c1", "A", "A")), nil)
	be.Err(t, m.Add(fetchRow("c2", "B", "B")), nil)
	be.Err(t, m.Add(fetchRow("owner", "", "")), nil)

	be.Equal(t, m.Len(), 2)
	be.Equal(t, m.Contacts()[1].SourceID, "owner")
}

func TestMergerDropsPlaceholders(t *testing.T) {
	m := NewMerger(Params{MaxCount: 1}, "", time.UTC)
	be.Err(t, m.Add(fetchRow("empty", "", "")), nil)
	be.Err(t, m.Add(fetchRow("c1", "Doe", "John")), nil)

	be.Equal(t, m.Len(), 1)
	be.Equal(t, m.Contacts()[0].SourceID, "c1")
}

func TestEntryMergerIgnoresWindowAndPlaceholder(t *testing.T) {
	m := NewEntryMerger("", time.UTC)
	be.Err(t, m.Add(fetchRow("empty", "", "")), nil)
	be.Equal(t, m.Len(), 1)
}

func TestMergerRejectsWrongWidth(t *testing.T) {
	m := NewMerger(DefaultParams(), "", time.UTC)
	err := m.Add([]string{"c1", "Doe"})
	be.Equal(t, CodeOf(err), ErrorCodeContract)
	be.Equal(t, m.Len(), 0)
}

func TestMergerReset(t *testing.T) {
	m := NewMerger(DefaultParams(), "", time.UTC)
	be.Err(t, m.Add(fetchRow("c1", "Doe", "John")), nil)
	m.Reset()
	be.Equal(t, m.Len(), 0)
	be.Err(t, m.Add(fetchRow("c1", "Doe", "John")), nil)
	be.Equal(t, m.Len(), 1)
}

func TestCallClassification(t *testing.T) {
	m := NewMerger(DefaultParams(), "", time.UTC)
	be.Err(t, m.Add(callRow("call:1", "Out", "Going", "2024-03-01T10:00:00Z", true, false)), nil)
	be.Err(t, m.Add(callRow("call:2", "In", "Coming", "2024-03-01T11:00:00Z", false, true)), nil)
	be.Err(t, m.Add(callRow("call:3", "Miss", "Ed", "2024-03-01T12:00:00Z", false, false)), nil)

	cs := m.Contacts()
	be.Equal(t, cs[0].Call.Kind, contact.CallOutgoing)
	be.Equal(t, cs[1].Call.Kind, contact.CallIncoming)
	be.Equal(t, cs[2].Call.Kind, contact.CallMissed)
	be.Equal(t, cs[2].Call.Timestamp, "20240301T120000")

	dir := NewMerger(DefaultParams(), "", time.UTC)
	be.Err(t, dir.Add(fetchRow("c1", "Doe", "John")), nil)
	be.Equal(t, dir.Contacts()[0].IsCall(), false)
}

func TestLocalTimestamp(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	be.Equal(t, LocalTimestamp("2024-03-01T12:00:00Z", berlin), "20240301T130000")
	be.Equal(t, LocalTimestamp("2024-03-01T12:00:00+02:00", time.UTC), "20240301T100000")
	be.Equal(t, LocalTimestamp("2024-03-01T12:00:00", berlin), "20240301T120000")
	be.Equal(t, LocalTimestamp("yesterday", berlin), "")
}

func TestMissedScanner(t *testing.T) {
	s := newMissedScanner()
	rows := [][]string{
		{"call:9", "555-1", "false"},
		{"call:8", "555-1", "false"},
		{"call:7", "555-2", "true"},
		{"call:6", "555-2", "false"},
		{"call:5", "555-3", "false"},
	}
	for _, row := range rows {
		be.Err(t, s.add(row), nil)
	}
	// 555-1 counts twice: only a read row marks a number as seen.
	be.Equal(t, s.newMissed, 3)

	be.Equal(t, CodeOf(s.add([]string{"call:1"})), ErrorCodeContract)
}

func TestPropertyMergeIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("repeating a row does not change the contact", prop.ForAll(
		func(numbers []string, repeats int) bool {
			row := fetchRow("c1", "Doe", "John")
			pairs := make([][2]string, 0, len(numbers))
			for _, n := range numbers {
				pairs = append(pairs, [2]string{"PhoneNumber", n})
			}
			row[ColPhones] = JoinElements(pairs...)

			once := NewMerger(DefaultParams(), "", time.UTC)
			if once.Add(row) != nil {
				return false
			}
			many := NewMerger(DefaultParams(), "", time.UTC)
			for i := 0; i <= repeats; i++ {
				if many.Add(row) != nil {
					return false
				}
			}
			a := vcard.Marshal(once.Contacts(), vcard.V30, vcard.FilterAll)
			b := vcard.Marshal(many.Contacts(), vcard.V30, vcard.FilterAll)
			return string(a) == string(b)
		},
		gen.SliceOfN(5, gen.NumString()),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}

func TestPropertyWindowSize(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("window admits min(max, k-offset) contacts plus the owner", prop.ForAll(
		func(k, offset, maxCount int, withOwner bool) bool {
			owner := ""
			if withOwner {
				owner = "owner"
			}
			m := NewMerger(Params{Offset: uint32(offset), MaxCount: uint32(maxCount)}, owner, time.UTC)
			if withOwner {
				if m.Add(fetchRow("owner", "Me", "Myself")) != nil {
					return false
				}
			}
			for i := 0; i < k; i++ {
				id := fmt.Sprintf("c%03d", i)
				// Each contact spans two rows.
				for range 2 {
					if m.Add(fetchRow(id, "F", id)) != nil {
						return false
					}
				}
			}

			want := min(maxCount, max(k-offset, 0))
			if withOwner {
				want++
			}
			if m.Len() != want {
				return false
			}
			for _, c := range m.Contacts() {
				if c.SourceID == "owner" {
					continue
				}
				n := 0
				fmt.Sscanf(strings.TrimPrefix(c.SourceID, "c"), "%d", &n)
				if n < offset || n >= offset+maxCount {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 30),
		gen.IntRange(0, 35),
		gen.IntRange(1, 40),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
