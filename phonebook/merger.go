package phonebook

import (
	"time"

	"github.com/spachava753/pbap/contact"
)

// Merger folds Fetch or Entry rows into contacts. Rows sharing a source id
// describe one contact; the merger must see them in backend order.
type Merger struct {
	params Params
	owner  string
	// entry disables the window and the placeholder check.
	entry bool
	loc   *time.Location

	ordinal  uint32
	lastID   string
	contacts []*contact.Contact
	byID     map[string]*contact.Contact
}

// NewMerger returns a merger applying the window in params. owner is the
// source id of the self contact, which is admitted regardless of window.
func NewMerger(params Params, owner string, loc *time.Location) *Merger {
	if loc == nil {
		loc = time.Local
	}
	return &Merger{
		params: params,
		owner:  owner,
		loc:    loc,
		byID:   make(map[string]*contact.Contact),
	}
}

// NewEntryMerger returns a merger for a single-entry pull.
func NewEntryMerger(owner string, loc *time.Location) *Merger {
	m := NewMerger(Params{MaxCount: DefaultMaxCount}, owner, loc)
	m.entry = true
	return m
}

// Add merges one row. It returns a contract error when the row width is
// not FetchColumns.
func (m *Merger) Add(row []string) error {
	if len(row) != FetchColumns {
		return newError(ErrorCodeContract, "fetch row has %d columns, want %d", len(row), FetchColumns)
	}
	id := row[ColID]

	if c, ok := m.byID[id]; ok {
		mergeRow(c, row)
		return nil
	}

	if !m.entry && !m.admit(id, row) {
		return nil
	}

	c := contact.New(id)
	initContact(c, row, m.loc)
	mergeRow(c, row)
	m.byID[id] = c
	m.contacts = append(m.contacts, c)
	return nil
}

func (m *Merger) admit(id string, row []string) bool {
	isOwner := m.owner != "" && id == m.owner
	if placeholder(row) && !isOwner {
		return false
	}
	if isOwner {
		return true
	}
	if id != m.lastID {
		m.ordinal++
		m.lastID = id
	}
	if m.params.MaxCount == 0 {
		return true
	}
	return m.params.admits(m.ordinal)
}

// Contacts returns the accumulated contacts in first-seen order.
func (m *Merger) Contacts() []*contact.Contact {
	return m.contacts
}

// Len returns the number of accumulated contacts.
func (m *Merger) Len() int {
	return len(m.contacts)
}

// Reset discards every accumulated contact and the window state.
func (m *Merger) Reset() {
	m.contacts = nil
	m.byID = make(map[string]*contact.Contact)
	m.ordinal = 0
	m.lastID = ""
}
