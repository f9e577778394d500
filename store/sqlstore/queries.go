package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spachava753/pbap/phonebook"
)

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	is_owner INTEGER NOT NULL DEFAULT 0,
	full_name TEXT NOT NULL DEFAULT '',
	family TEXT NOT NULL DEFAULT '',
	given TEXT NOT NULL DEFAULT '',
	additional TEXT NOT NULL DEFAULT '',
	prefix TEXT NOT NULL DEFAULT '',
	suffix TEXT NOT NULL DEFAULT '',
	birthday TEXT NOT NULL DEFAULT '',
	nickname TEXT NOT NULL DEFAULT '',
	photo TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT '',
	uid TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	company TEXT NOT NULL DEFAULT '',
	department TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS phones (
	contact_id TEXT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	number TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT 'PhoneNumber',
	label TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS phones_number ON phones(number);
CREATE TABLE IF NOT EXISTS emails (
	contact_id TEXT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	value TEXT NOT NULL,
	label TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS addresses (
	contact_id TEXT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	value TEXT NOT NULL,
	label TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS urls (
	contact_id TEXT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	value TEXT NOT NULL,
	label TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS calls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	number TEXT NOT NULL,
	date TEXT NOT NULL,
	sent INTEGER NOT NULL DEFAULT 0,
	answered INTEGER NOT NULL DEFAULT 0,
	is_read INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS calls_date ON calls(date);
`

// callIDPrefix marks source ids of call history rows.
const callIDPrefix = "call:"

// labeled concatenates the (value, label) rows of table for contact c.id
// into one multi-valued column.
func labeled(table string) string {
	return fmt.Sprintf(`COALESCE((SELECT GROUP_CONCAT(v, char(24)) FROM (
		SELECT t.value || char(25) || t.label AS v FROM %s t WHERE t.contact_id = c.id ORDER BY t.rowid
	)), '')`, table)
}

// contactColumns are the scalar and multi-valued contact columns of a
// fetch row, from ColFullName through ColEmails, except the affiliation
// column which comes from the joined phone.
func contactColumns(affiliation string) string {
	return strings.Join([]string{
		"COALESCE(c.full_name, '')",
		"COALESCE(c.family, '')",
		"COALESCE(c.given, '')",
		"COALESCE(c.additional, '')",
		"COALESCE(c.prefix, '')",
		"COALESCE(c.suffix, '')",
		labeled("addresses"),
		"COALESCE(c.birthday, '')",
		"COALESCE(c.nickname, '')",
		labeled("urls"),
		"COALESCE(c.photo, '')",
		"COALESCE(c.role, '')",
		"COALESCE(c.uid, '')",
		"COALESCE(c.title, '')",
		affiliation,
		"COALESCE(c.company, '')",
		"COALESCE(c.department, '')",
		labeled("emails"),
	}, ",\n\t")
}

// Directory rows: one per phone, so each phone carries its own affiliation.
var directoryFetch = `
SELECT
	COALESCE(p.type || char(25) || p.number, ''),
	` + contactColumns("COALESCE(p.label, '')") + `,
	'` + phonebook.NotACall + `',
	'false',
	'false',
	c.id
FROM contacts c
LEFT JOIN phones p ON p.contact_id = c.id
%s
ORDER BY c.is_owner DESC, c.family, c.given, c.id, p.rowid`

// Call rows: the caller's contact is the first one listing the number.
var callFetch = `
SELECT
	COALESCE(p.type, 'PhoneNumber') || char(25) || k.number,
	` + contactColumns("COALESCE(p.label, '')") + `,
	k.date,
	CASE k.sent WHEN 1 THEN 'true' ELSE 'false' END,
	CASE k.answered WHEN 1 THEN 'true' ELSE 'false' END,
	'` + callIDPrefix + `' || k.id
FROM calls k
LEFT JOIN phones p ON p.rowid = (SELECT MIN(rowid) FROM phones WHERE number = k.number)
LEFT JOIN contacts c ON c.id = p.contact_id
%s
ORDER BY k.date DESC, k.id DESC`

// directoryCount counts the contacts a directory fetch keeps: the owner and
// every contact with at least one data column set.
const directoryCount = `
SELECT COUNT(*)
FROM contacts c
WHERE c.is_owner = 1
	OR (c.full_name || c.family || c.given || c.additional || c.prefix || c.suffix ||
		c.birthday || c.nickname || c.photo || c.role || c.uid || c.title ||
		c.company || c.department) <> ''
	OR EXISTS (SELECT 1 FROM phones t WHERE t.contact_id = c.id)
	OR EXISTS (SELECT 1 FROM emails t WHERE t.contact_id = c.id)
	OR EXISTS (SELECT 1 FROM addresses t WHERE t.contact_id = c.id)
	OR EXISTS (SELECT 1 FROM urls t WHERE t.contact_id = c.id)`

const directoryList = `
SELECT
	c.id, c.family, c.given, c.additional, c.prefix, c.suffix,
	COALESCE((SELECT number FROM phones WHERE contact_id = c.id ORDER BY rowid LIMIT 1), '')
FROM contacts c
ORDER BY c.is_owner DESC, c.family, c.given, c.id`

const callList = `
SELECT
	'` + callIDPrefix + `' || k.id,
	COALESCE(c.family, ''), COALESCE(c.given, ''), COALESCE(c.additional, ''),
	COALESCE(c.prefix, ''), COALESCE(c.suffix, ''),
	k.number
FROM calls k
LEFT JOIN phones p ON p.rowid = (SELECT MIN(rowid) FROM phones WHERE number = k.number)
LEFT JOIN contacts c ON c.id = p.contact_id
%s
ORDER BY k.date DESC, k.id DESC`

const missedScan = `
SELECT
	'` + callIDPrefix + `' || k.id,
	k.number,
	CASE k.is_read WHEN 1 THEN 'true' ELSE 'false' END
FROM calls k
WHERE k.sent = 0 AND k.answered = 0
ORDER BY k.date DESC, k.id DESC
LIMIT %d`

// callFilter returns the WHERE condition selecting the calls of target.
func callFilter(target phonebook.Target) string {
	switch target {
	case phonebook.TargetIncoming:
		return "k.sent = 0 AND k.answered = 1"
	case phonebook.TargetOutgoing:
		return "k.sent = 1"
	case phonebook.TargetMissed:
		return "k.sent = 0 AND k.answered = 0"
	default:
		return "1 = 1"
	}
}

func where(conds ...string) string {
	if len(conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conds, " AND ")
}

// buildQuery returns the SQL and arguments answering d.
func buildQuery(d phonebook.Descriptor) (string, []any, error) {
	calls := d.Target != phonebook.TargetPhonebook

	switch d.Mode {
	case phonebook.ModeCount:
		if !calls {
			return directoryCount, nil, nil
		}
		return "SELECT COUNT(*) FROM calls k " + where(callFilter(d.Target)), nil, nil

	case phonebook.ModeFetch:
		if !calls {
			return fmt.Sprintf(directoryFetch, ""), nil, nil
		}
		return fmt.Sprintf(callFetch, where(callFilter(d.Target))), nil, nil

	case phonebook.ModeEntry:
		if !calls {
			return fmt.Sprintf(directoryFetch, where("c.id = ?")), []any{d.Arg}, nil
		}
		id, err := parseCallID(d.Arg)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf(callFetch, where(callFilter(d.Target), "k.id = ?")), []any{id}, nil

	case phonebook.ModeList:
		if !calls {
			return directoryList, nil, nil
		}
		return fmt.Sprintf(callList, where(callFilter(d.Target))), nil, nil

	case phonebook.ModeScan:
		return fmt.Sprintf(missedScan, phonebook.MissedScanLimit), nil, nil

	default:
		return "", nil, fmt.Errorf("sqlstore: unsupported query %s", d)
	}
}

func parseCallID(id string) (int64, error) {
	raw, ok := strings.CutPrefix(id, callIDPrefix)
	if !ok {
		return 0, fmt.Errorf("sqlstore: %q is not a call id", id)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: %q is not a call id: %w", id, err)
	}
	return n, nil
}
