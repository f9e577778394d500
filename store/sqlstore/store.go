package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/spachava753/pbap/phonebook"
)

// Memory opens a private in-memory database.
const Memory = ":memory:"

// Store is a phonebook.Backend over a SQLite database.
type Store struct {
	db *sql.DB

	mu    sync.RWMutex
	owner string
}

var _ phonebook.Backend = (*Store)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: applying schema failed: %w", err)
	}

	s := &Store{db: db}
	var owner string
	err = db.QueryRowContext(ctx, "SELECT id FROM contacts WHERE is_owner = 1 LIMIT 1").Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		db.Close()
		return nil, fmt.Errorf("sqlstore: reading owner failed: %w", err)
	default:
		s.owner = owner
	}
	return s, nil
}

func openDB(path string) (*sql.DB, error) {
	var dsn string
	memory := path == Memory
	if memory {
		dsn = fmt.Sprintf("file:pbap-%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	} else {
		dsn = fmt.Sprintf("file:%s?mode=rwc&_busy_timeout=5000&_foreign_keys=on", strings.ReplaceAll(path, " ", "%20"))
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening sqlite database failed: %w", err)
	}
	if memory {
		// The in-memory database lives as long as its connection does.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: connecting to sqlite database failed: %w", err)
	}
	return db, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Owner implements phonebook.Backend.
func (s *Store) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// Query implements phonebook.Backend. The statement runs before Query
// returns; rows are streamed from a goroutine.
func (s *Store) Query(ctx context.Context, d phonebook.Descriptor) (<-chan phonebook.Reply, error) {
	query, args, err := buildQuery(d)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: sqlite query %s failed: %w", d, err)
	}

	replies := make(chan phonebook.Reply)
	go func() {
		defer close(replies)
		err := streamRows(ctx, rows, replies)
		// Release the connection before the next phase of the request
		// asks for one.
		rows.Close()
		phonebook.Send(ctx, replies, phonebook.EndReply(err))
	}()
	return replies, nil
}

// streamRows sends every row as strings. NULL becomes "".
func streamRows(ctx context.Context, rows *sql.Rows, replies chan<- phonebook.Reply) error {
	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("sqlstore: reading sqlite columns failed: %w", err)
	}

	for rows.Next() {
		values := make([]any, len(columns))
		valuePointers := make([]any, len(columns))
		for i := range values {
			valuePointers[i] = &values[i]
		}
		if err := rows.Scan(valuePointers...); err != nil {
			return fmt.Errorf("sqlstore: scanning sqlite row failed: %w", err)
		}

		record := make([]string, len(columns))
		for i, value := range values {
			switch typed := value.(type) {
			case nil:
				record[i] = ""
			case []byte:
				record[i] = string(typed)
			default:
				record[i] = fmt.Sprint(typed)
			}
		}
		if !phonebook.Send(ctx, replies, phonebook.RowReply(record)) {
			return ctx.Err()
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlstore: iterating sqlite rows failed: %w", err)
	}
	return nil
}

// Value is one element of a multi-valued attribute.
type Value struct {
	Text string
	// Label is the affiliation: "Home", "Work" or anything else for other.
	Label string
}

// Phone is a contact phone number.
type Phone struct {
	Number string
	// Type is the store's type tag, for example phonebook.MobileNumberType.
	// Empty means a plain voice number.
	Type  string
	Label string
}

// Record is a contact as stored.
type Record struct {
	// ID is the source id. An empty ID is generated.
	ID    string
	Owner bool

	FullName   string
	Family     string
	Given      string
	Additional string
	Prefix     string
	Suffix     string
	Birthday   string
	Nickname   string
	Photo      string
	Role       string
	UID        string
	Title      string
	Company    string
	Department string

	Phones    []Phone
	Emails    []Value
	Addresses []Value
	URLs      []Value
}

// AddContact inserts r and returns its source id. Adding an owner replaces
// the previous owner flag.
func (s *Store) AddContact(ctx context.Context, r Record) (string, error) {
	if r.ID == "" {
		r.ID = "contact:" + uuid.NewString()
	}
	if strings.HasPrefix(r.ID, callIDPrefix) {
		return "", fmt.Errorf("sqlstore: contact id %q uses the call prefix", r.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("sqlstore: begin failed: %w", err)
	}
	defer tx.Rollback()

	if r.Owner {
		if _, err := tx.ExecContext(ctx, "UPDATE contacts SET is_owner = 0 WHERE is_owner = 1"); err != nil {
			return "", fmt.Errorf("sqlstore: clearing owner failed: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO contacts (
	id, is_owner, full_name, family, given, additional, prefix, suffix,
	birthday, nickname, photo, role, uid, title, company, department
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Owner, r.FullName, r.Family, r.Given, r.Additional, r.Prefix, r.Suffix,
		r.Birthday, r.Nickname, r.Photo, r.Role, r.UID, r.Title, r.Company, r.Department,
	)
	if err != nil {
		return "", fmt.Errorf("sqlstore: inserting contact %s failed: %w", r.ID, err)
	}

	for _, p := range r.Phones {
		if p.Number == "" {
			continue
		}
		typ := p.Type
		if typ == "" {
			typ = "PhoneNumber"
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO phones (contact_id, number, type, label) VALUES (?, ?, ?, ?)",
			r.ID, p.Number, typ, p.Label); err != nil {
			return "", fmt.Errorf("sqlstore: inserting phone failed: %w", err)
		}
	}
	for table, values := range map[string][]Value{"emails": r.Emails, "addresses": r.Addresses, "urls": r.URLs} {
		for _, v := range values {
			if v.Text == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO "+table+" (contact_id, value, label) VALUES (?, ?, ?)",
				r.ID, v.Text, v.Label); err != nil {
				return "", fmt.Errorf("sqlstore: inserting %s failed: %w", table, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("sqlstore: commit failed: %w", err)
	}
	if r.Owner {
		s.mu.Lock()
		s.owner = r.ID
		s.mu.Unlock()
	}
	return r.ID, nil
}

// Call is one call history record.
type Call struct {
	Number   string
	Date     time.Time
	Sent     bool
	Answered bool
	// Read marks a missed call as already seen by the user.
	Read bool
}

// AddCall inserts c and returns its source id.
func (s *Store) AddCall(ctx context.Context, c Call) (string, error) {
	if c.Number == "" {
		return "", errors.New("sqlstore: call without a number")
	}
	if c.Date.IsZero() {
		c.Date = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO calls (number, date, sent, answered, is_read) VALUES (?, ?, ?, ?, ?)",
		c.Number, c.Date.UTC().Format(time.RFC3339), c.Sent, c.Answered, c.Read)
	if err != nil {
		return "", fmt.Errorf("sqlstore: inserting call failed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("sqlstore: reading call id failed: %w", err)
	}
	return fmt.Sprintf("%s%d", callIDPrefix, id), nil
}

// MarkMissedRead marks every missed call as read.
func (s *Store) MarkMissedRead(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE calls SET is_read = 1 WHERE sent = 0 AND answered = 0 AND is_read = 0")
	if err != nil {
		return 0, fmt.Errorf("sqlstore: marking missed calls read failed: %w", err)
	}
	return res.RowsAffected()
}
