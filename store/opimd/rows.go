package opimd

import (
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/spachava753/pbap/phonebook"
)

// Entry is one opimd record: a Contact or Call content dictionary.
type Entry = map[string]dbus.Variant

// phoneKeys maps opimd phone fields to a row type tag and affiliation.
var phoneKeys = []struct {
	key         string
	tag         string
	affiliation string
}{
	{"Phone", "PhoneNumber", ""},
	{"Home phone", "PhoneNumber", "Home"},
	{"Work phone", "PhoneNumber", "Work"},
	{"Cell phone", phonebook.MobileNumberType, ""},
	{"Fax phone", phonebook.FaxNumberType, "Home"},
}

var emailKeys = []struct {
	key         string
	affiliation string
}{
	{"E-mail", ""},
	{"Home e-mail", "Home"},
	{"Work e-mail", "Work"},
}

var addressKeys = []struct {
	key         string
	affiliation string
}{
	{"Address", ""},
	{"Home address", "Home"},
	{"Work address", "Work"},
}

func str(e Entry, key string) string {
	v, ok := e[key]
	if !ok {
		return ""
	}
	switch typed := v.Value().(type) {
	case string:
		return typed
	case []string:
		// Multi-valued fields: first value only.
		if len(typed) > 0 {
			return typed[0]
		}
		return ""
	default:
		return fmt.Sprint(typed)
	}
}

func num(e Entry, key string) int64 {
	v, ok := e[key]
	if !ok {
		return 0
	}
	switch typed := v.Value().(type) {
	case int32:
		return int64(typed)
	case int64:
		return typed
	case uint32:
		return int64(typed)
	case uint64:
		return int64(typed)
	case int16:
		return int64(typed)
	case uint16:
		return int64(typed)
	case byte:
		return int64(typed)
	case float64:
		return int64(typed)
	case bool:
		if typed {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func affiliated(e Entry, keys []struct {
	key         string
	affiliation string
}) string {
	var pairs [][2]string
	for _, k := range keys {
		if v := str(e, k.key); v != "" {
			pairs = append(pairs, [2]string{v, k.affiliation})
		}
	}
	return phonebook.JoinElements(pairs...)
}

// contactRows converts a contact into fetch rows, one per phone field, so
// each phone keeps its own affiliation. A contact without phones yields a
// single row. date, sent and answered fill the call columns.
func contactRows(c Entry, id, phoneOverride, date string, sent, answered bool) [][]string {
	base := make([]string, phonebook.FetchColumns)
	base[phonebook.ColFullName] = strings.TrimSpace(str(c, "Name") + " " + str(c, "Surname"))
	base[phonebook.ColFamily] = str(c, "Surname")
	base[phonebook.ColGiven] = str(c, "Name")
	base[phonebook.ColAdditional] = str(c, "Middlename")
	base[phonebook.ColAddresses] = affiliated(c, addressKeys)
	base[phonebook.ColBirthday] = str(c, "Birthday")
	base[phonebook.ColNickname] = str(c, "Nickname")
	if u := str(c, "Homepage"); u != "" {
		base[phonebook.ColURLs] = phonebook.JoinElements([2]string{u, ""})
	}
	base[phonebook.ColPhoto] = str(c, "Photo")
	base[phonebook.ColTitle] = str(c, "Title")
	base[phonebook.ColCompany] = str(c, "Affiliation")
	base[phonebook.ColEmails] = affiliated(c, emailKeys)
	base[phonebook.ColDate] = date
	base[phonebook.ColSent] = boolString(sent)
	base[phonebook.ColAnswered] = boolString(answered)
	base[phonebook.ColID] = id

	if phoneOverride != "" {
		row := base
		row[phonebook.ColPhones] = phonebook.JoinElements([2]string{callPhoneTag(c, phoneOverride), phoneOverride})
		row[phonebook.ColAffLabel] = callPhoneAffiliation(c, phoneOverride)
		return [][]string{row}
	}

	var rows [][]string
	for _, k := range phoneKeys {
		number := str(c, k.key)
		if number == "" {
			continue
		}
		row := append([]string(nil), base...)
		row[phonebook.ColPhones] = phonebook.JoinElements([2]string{k.tag, number})
		row[phonebook.ColAffLabel] = k.affiliation
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		rows = append(rows, base)
	}
	return rows
}

// hasData reports whether a contact fills any column a fetch row carries
// besides the call columns and the id.
func hasData(c Entry) bool {
	row := contactRows(c, "", "", phonebook.NotACall, false, false)[0]
	for _, v := range row[:phonebook.ColDate] {
		if v != "" {
			return true
		}
	}
	return false
}

func callPhoneTag(c Entry, number string) string {
	for _, k := range phoneKeys {
		if str(c, k.key) == number {
			return k.tag
		}
	}
	return "PhoneNumber"
}

func callPhoneAffiliation(c Entry, number string) string {
	for _, k := range phoneKeys {
		if str(c, k.key) == number {
			return k.affiliation
		}
	}
	return ""
}

// callDate renders the Timestamp field (Unix seconds) as RFC 3339 UTC.
func callDate(call Entry) string {
	ts := num(call, "Timestamp")
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func callSent(call Entry) bool {
	return strings.EqualFold(str(call, "Direction"), "out")
}

func callAnswered(call Entry) bool {
	return num(call, "Answered") != 0
}

// callRows converts a call into fetch rows, filled in from the contact
// owning the peer number when there is one.
func callRows(call Entry, byNumber map[string]Entry) [][]string {
	peer := str(call, "Peer")
	c := byNumber[peer]
	if c == nil {
		c = Entry{}
	}
	return contactRows(c, str(call, "Path"), peer, callDate(call), callSent(call), callAnswered(call))
}

// contactListRow converts a contact into a list row.
func contactListRow(c Entry) []string {
	phone := ""
	for _, k := range phoneKeys {
		if phone = str(c, k.key); phone != "" {
			break
		}
	}
	return []string{str(c, "Path"), str(c, "Surname"), str(c, "Name"), str(c, "Middlename"), "", "", phone}
}

// callListRow converts a call into a list row.
func callListRow(call Entry, byNumber map[string]Entry) []string {
	peer := str(call, "Peer")
	c := byNumber[peer]
	if c == nil {
		c = Entry{}
	}
	return []string{str(call, "Path"), str(c, "Surname"), str(c, "Name"), str(c, "Middlename"), "", "", peer}
}

// scanRow converts a missed call into a scan row. opimd flags calls the
// user has not seen with New.
func scanRow(call Entry) []string {
	return []string{str(call, "Path"), str(call, "Peer"), boolString(num(call, "New") == 0)}
}

// indexByNumber maps every phone number of contacts to its contact. The
// first contact listing a number wins.
func indexByNumber(contacts []Entry) map[string]Entry {
	out := make(map[string]Entry)
	for _, c := range contacts {
		for _, k := range phoneKeys {
			number := str(c, k.key)
			if number == "" {
				continue
			}
			if _, ok := out[number]; !ok {
				out[number] = c
			}
		}
	}
	return out
}
