package sqlstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nalgeon/be"

	"github.com/spachava753/pbap/phonebook"
	"github.com/spachava753/pbap/vcard"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Memory)
	be.Err(t, err, nil)
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	_, err := s.AddContact(ctx, Record{ID: "me", Owner: true, Family: "Owner", Given: "Phone"})
	be.Err(t, err, nil)
	_, err = s.AddContact(ctx, Record{
		ID:     "c1",
		Family: "Doe",
		Given:  "John",
		Phones: []Phone{
			{Number: "555-1111", Label: "Home"},
			{Number: "555-2222", Label: "Work"},
		},
		Emails: []Value{{Text: "john@example.com", Label: "Work"}},
	})
	be.Err(t, err, nil)
	_, err = s.AddContact(ctx, Record{
		ID:     "c2",
		Family: "Roe",
		Given:  "Jane",
		Phones: []Phone{{Number: "555-3333", Type: phonebook.MobileNumberType}},
	})
	be.Err(t, err, nil)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	calls := []Call{
		{Number: "555-1111", Date: base, Sent: true},
		{Number: "555-3333", Date: base.Add(time.Hour), Answered: true},
		{Number: "555-3333", Date: base.Add(2 * time.Hour)},
		{Number: "555-9999", Date: base.Add(3 * time.Hour), Read: true},
		{Number: "555-1111", Date: base.Add(4 * time.Hour)},
	}
	for _, c := range calls {
		_, err := s.AddCall(ctx, c)
		be.Err(t, err, nil)
	}
}

func collect(t *testing.T, s *Store, d phonebook.Descriptor) [][]string {
	t.Helper()
	ch, err := s.Query(context.Background(), d)
	be.Err(t, err, nil)
	var rows [][]string
	for r := range ch {
		if r.End {
			be.Err(t, r.Err, nil)
			continue
		}
		be.Equal(t, len(r.Row), d.Columns)
		rows = append(rows, r.Row)
	}
	return rows
}

func pull(t *testing.T, s *Store, name string, params phonebook.Params) (string, int, int) {
	t.Helper()
	p := phonebook.New(s, phonebook.WithLocation(time.UTC))
	buf := phonebook.NewBuffer()
	r, err := p.Pull(context.Background(), name, params, buf)
	be.Err(t, err, nil)
	defer r.Finalize()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	be.Err(t, buf.Wait(ctx), nil)
	contacts, newMissed := buf.Result()
	return string(buf.Bytes()), contacts, newMissed
}

func TestOwnerTracksOwnerContact(t *testing.T) {
	s := openTestStore(t)
	be.Equal(t, s.Owner(), "")
	seed(t, s)
	be.Equal(t, s.Owner(), "me")
}

func TestFetchRowsFollowContract(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	rows := collect(t, s, phonebook.Descriptor{Target: phonebook.TargetPhonebook, Mode: phonebook.ModeFetch, Columns: phonebook.FetchColumns})
	// Owner first, then one row per phone.
	be.Equal(t, len(rows), 4)
	be.Equal(t, rows[0][phonebook.ColID], "me")
	be.Equal(t, rows[1][phonebook.ColID], "c1")
	be.Equal(t, rows[1][phonebook.ColAffLabel], "Home")
	be.Equal(t, rows[2][phonebook.ColAffLabel], "Work")
	be.Equal(t, rows[1][phonebook.ColDate], phonebook.NotACall)
	be.Equal(t, rows[1][phonebook.ColEmails], "john@example.com"+phonebook.SubDelim+"Work")
}

func TestCountQueries(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	count := func(target phonebook.Target) string {
		rows := collect(t, s, phonebook.Descriptor{Target: target, Mode: phonebook.ModeCount, Columns: phonebook.CountColumns})
		be.Equal(t, len(rows), 1)
		return rows[0][0]
	}
	be.Equal(t, count(phonebook.TargetPhonebook), "3")
	be.Equal(t, count(phonebook.TargetIncoming), "1")
	be.Equal(t, count(phonebook.TargetOutgoing), "1")
	be.Equal(t, count(phonebook.TargetMissed), "3")
	be.Equal(t, count(phonebook.TargetCombined), "5")
}

func TestCountMatchesFetch(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()
	_, err := s.AddContact(ctx, Record{ID: "empty"})
	be.Err(t, err, nil)
	_, err = s.AddContact(ctx, Record{ID: "mail-only", Emails: []Value{{Text: "anon@example.com"}}})
	be.Err(t, err, nil)

	_, fetched, _ := pull(t, s, phonebook.ObjectPB, phonebook.DefaultParams())
	_, counted, _ := pull(t, s, phonebook.ObjectPB, phonebook.Params{})
	be.Equal(t, fetched, 4)
	be.Equal(t, counted, fetched)
}

func TestPullPhonebook(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	body, contacts, _ := pull(t, s, phonebook.ObjectPB, phonebook.DefaultParams())
	be.Equal(t, contacts, 3)
	be.True(t, strings.Contains(body, "N:Doe;John\r\nTEL;HOME;VOICE:555-1111\r\nTEL;WORK;VOICE:555-2222\r\n"))
	be.True(t, strings.Contains(body, "TEL;CELL:555-3333\r\n"))
	be.True(t, strings.Contains(body, "EMAIL;INTERNET;WORK:john@example.com\r\n"))
}

func TestPullWindowKeepsOwner(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	body, contacts, _ := pull(t, s, phonebook.ObjectPB, phonebook.Params{Offset: 1, MaxCount: 1})
	be.Equal(t, contacts, 2)
	be.True(t, strings.Contains(body, "N:Owner;Phone\r\n"))
	be.True(t, strings.Contains(body, "N:Roe;Jane\r\n"))
	be.True(t, !strings.Contains(body, "Doe"))
}

func TestPullMissedCalls(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	body, contacts, newMissed := pull(t, s, phonebook.ObjectMissed, phonebook.DefaultParams())
	be.Equal(t, contacts, 3)
	// 555-1111 and 555-3333 are unread; 555-9999 was read.
	be.Equal(t, newMissed, 2)
	be.True(t, strings.Contains(body, "X-IRMC-CALL-DATETIME;MISSED:20240301T160000\r\n"))
	// Unknown numbers have no name and are not rendered.
	be.Equal(t, strings.Count(body, "BEGIN:VCARD"), 2)

	n, err := s.MarkMissedRead(context.Background())
	be.Err(t, err, nil)
	be.Equal(t, n, int64(2))
	_, _, newMissed = pull(t, s, phonebook.ObjectMissed, phonebook.Params{})
	be.Equal(t, newMissed, 0)
}

func TestPullCombinedCallHistory(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	body, contacts, newMissed := pull(t, s, phonebook.ObjectCombined, phonebook.DefaultParams())
	be.Equal(t, contacts, 5)
	be.Equal(t, newMissed, 0)
	be.True(t, strings.Contains(body, "X-IRMC-CALL-DATETIME;DIALED:20240301T120000\r\n"))
	be.True(t, strings.Contains(body, "X-IRMC-CALL-DATETIME;RECEIVED:20240301T130000\r\n"))
	// Newest first.
	be.True(t, strings.Index(body, "20240301T160000") < strings.Index(body, "20240301T120000"))
}

func TestGetEntry(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	p := phonebook.New(s, phonebook.WithLocation(time.UTC))

	buf := phonebook.NewBuffer()
	params := phonebook.DefaultParams()
	params.Format = vcard.V30
	r, err := p.GetEntry(context.Background(), phonebook.FolderOutgoing, "call:1", params, buf)
	be.Err(t, err, nil)
	defer r.Finalize()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	be.Err(t, buf.Wait(ctx), nil)
	body := string(buf.Bytes())
	be.True(t, strings.Contains(body, "FN:John Doe\r\n"))
	be.True(t, strings.Contains(body, "X-IRMC-CALL-DATETIME;DIALED:20240301T120000\r\n"))
}

func TestEntryRejectsMalformedCallID(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Query(context.Background(), phonebook.Descriptor{
		Target: phonebook.TargetMissed, Mode: phonebook.ModeEntry, Columns: phonebook.FetchColumns, Arg: "c1",
	})
	be.True(t, err != nil)
}

func TestCreateCacheFromCalls(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	p := phonebook.New(s)

	cache := phonebook.NewCache()
	r, err := p.CreateCache(context.Background(), phonebook.FolderMissed, cache)
	be.Err(t, err, nil)
	defer r.Finalize()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	be.Err(t, cache.Wait(ctx), nil)
	listing := cache.Listing(0, phonebook.DefaultMaxCount)
	be.Equal(t, len(listing), 3)
	be.Equal(t, listing[0].Name, "Doe;John;;;")
	be.Equal(t, listing[1].Name, "555-9999")

	id, err := cache.LookupName("2.vcf")
	be.Err(t, err, nil)
	be.Equal(t, id, "call:4")
}

func TestImportVCards(t *testing.T) {
	s := openTestStore(t)
	input := "BEGIN:VCARD\r\n" +
		"VERSION:3.0\r\n" +
		"N:Doe;John;;Dr.;\r\n" +
		"FN:Dr. John Doe\r\n" +
		"TEL;TYPE=CELL:555-0001\r\n" +
		"TEL;TYPE=WORK,FAX:555-0002\r\n" +
		"EMAIL;TYPE=HOME:john@home.example\r\n" +
		"ORG:Acme;Research\r\n" +
		"END:VCARD\r\n" +
		"BEGIN:VCARD\r\n" +
		"VERSION:3.0\r\n" +
		"N:Roe;Jane;;;\r\n" +
		"FN:Jane Roe\r\n" +
		"END:VCARD\r\n"

	n, err := s.ImportVCards(context.Background(), strings.NewReader(input))
	be.Err(t, err, nil)
	be.Equal(t, n, 2)

	rows := collect(t, s, phonebook.Descriptor{Target: phonebook.TargetPhonebook, Mode: phonebook.ModeFetch, Columns: phonebook.FetchColumns})
	be.Equal(t, len(rows), 3)
	be.Equal(t, rows[0][phonebook.ColPrefix], "Dr.")
	be.Equal(t, rows[0][phonebook.ColCompany], "Acme")
	be.Equal(t, rows[0][phonebook.ColDepartment], "Research")
	be.Equal(t, rows[0][phonebook.ColPhones], phonebook.MobileNumberType+phonebook.SubDelim+"555-0001")
	be.Equal(t, rows[1][phonebook.ColPhones], phonebook.FaxNumberType+phonebook.SubDelim+"555-0002")
	be.Equal(t, rows[1][phonebook.ColAffLabel], "Work")
	be.True(t, strings.HasPrefix(rows[0][phonebook.ColID], "contact:"))

	body, contacts, _ := pull(t, s, phonebook.ObjectPB, phonebook.DefaultParams())
	be.Equal(t, contacts, 2)
	be.True(t, strings.Contains(body, "N:Doe;John;;Dr.\r\n"))
	be.True(t, strings.Contains(body, "TEL;FAX:555-0002\r\n"))
}

func TestImportRejectsGarbage(t *testing.T) {
	s := openTestStore(t)
	_, err := s.ImportVCards(context.Background(), strings.NewReader("not a vcard"))
	be.True(t, err != nil)
}

func TestQueryAfterCloseFailsToDispatch(t *testing.T) {
	s, err := Open(context.Background(), Memory)
	be.Err(t, err, nil)
	s.Close()

	buf := phonebook.NewBuffer()
	r, err := phonebook.New(s).Pull(context.Background(), phonebook.ObjectPB, phonebook.DefaultParams(), buf)
	be.Err(t, err, nil)
	defer r.Finalize()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	be.True(t, errors.Is(buf.Wait(ctx), phonebook.ErrTransport))
}
