package opimd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/spachava753/pbap/phonebook"
)

const (
	// Service is the bus name of the opimd PIM daemon.
	Service = "org.freesmartphone.opimd"

	contactsPath = dbus.ObjectPath("/org/freesmartphone/PIM/Contacts")
	callsPath    = dbus.ObjectPath("/org/freesmartphone/PIM/Calls")

	contactsIface     = "org.freesmartphone.PIM.Contacts"
	contactIface      = "org.freesmartphone.PIM.Contact"
	contactQueryIface = "org.freesmartphone.PIM.ContactQuery"
	callsIface        = "org.freesmartphone.PIM.Calls"
	callIface         = "org.freesmartphone.PIM.Call"
	callQueryIface    = "org.freesmartphone.PIM.CallQuery"
)

// Caller performs one method call on an opimd object and stores the reply
// in out, which may be nil.
type Caller interface {
	Call(ctx context.Context, path dbus.ObjectPath, method string, out any, args ...any) error
}

// busCaller calls opimd over a live bus connection.
type busCaller struct {
	conn *dbus.Conn
}

func (b busCaller) Call(ctx context.Context, path dbus.ObjectPath, method string, out any, args ...any) error {
	call := b.conn.Object(Service, path).CallWithContext(ctx, method, 0, args...)
	if call.Err != nil {
		return call.Err
	}
	if out == nil {
		return nil
	}
	return call.Store(out)
}

// Backend is a phonebook.Backend reading contacts and calls from opimd.
type Backend struct {
	bus    Caller
	owner  string
	logger *slog.Logger
	closer io.Closer
}

var _ phonebook.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithOwner sets the contact path reported as the self contact.
func WithOwner(path string) Option {
	return func(b *Backend) { b.owner = path }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// New returns a Backend issuing calls through c.
func New(c Caller, opts ...Option) *Backend {
	b := &Backend{
		bus:    c,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dial connects to the bus at address: "system", "session", or a D-Bus
// address such as "unix:path=/run/dbus/system_bus_socket".
func Dial(ctx context.Context, address string, opts ...Option) (*Backend, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	switch address {
	case "", "system":
		conn, err = dbus.ConnectSystemBus(dbus.WithContext(ctx))
	case "session":
		conn, err = dbus.ConnectSessionBus(dbus.WithContext(ctx))
	default:
		conn, err = dbus.Connect(address, dbus.WithContext(ctx))
	}
	if err != nil {
		return nil, fmt.Errorf("opimd: connect bus %q: %w", address, err)
	}
	b := New(busCaller{conn: conn}, opts...)
	b.closer = conn
	return b, nil
}

// Close closes the bus connection opened by Dial.
func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// Owner implements phonebook.Backend.
func (b *Backend) Owner() string {
	return b.owner
}

// NewMissedCalls returns opimd's own count of unseen missed calls.
func (b *Backend) NewMissedCalls(ctx context.Context) (int, error) {
	var n int32
	if err := b.bus.Call(ctx, callsPath, callsIface+".GetNewMissedCalls", &n); err != nil {
		return 0, fmt.Errorf("opimd: GetNewMissedCalls: %w", err)
	}
	return int(n), nil
}

// callFilter returns the Calls.Query filter selecting target.
func callFilter(target phonebook.Target) map[string]dbus.Variant {
	q := map[string]dbus.Variant{
		"_sortby":   dbus.MakeVariant("Timestamp"),
		"_sortdesc": dbus.MakeVariant(true),
	}
	switch target {
	case phonebook.TargetIncoming:
		q["Direction"] = dbus.MakeVariant("in")
		q["Answered"] = dbus.MakeVariant(int32(1))
	case phonebook.TargetOutgoing:
		q["Direction"] = dbus.MakeVariant("out")
	case phonebook.TargetMissed:
		q["Direction"] = dbus.MakeVariant("in")
		q["Answered"] = dbus.MakeVariant(int32(0))
	}
	return q
}

func contactFilter() map[string]dbus.Variant {
	return map[string]dbus.Variant{"_sortby": dbus.MakeVariant("Surname")}
}

// plan is a prepared query: rows produces the reply rows once the opimd
// query object exists.
type plan struct {
	desc  phonebook.Descriptor
	query dbus.ObjectPath
	iface string
	// entry is set for single-record reads.
	entry Entry
}

// Query implements phonebook.Backend. The opimd query object is created
// before Query returns; results are read and streamed from a goroutine.
func (b *Backend) Query(ctx context.Context, d phonebook.Descriptor) (<-chan phonebook.Reply, error) {
	p, err := b.dispatch(ctx, d)
	if err != nil {
		return nil, err
	}

	replies := make(chan phonebook.Reply)
	go func() {
		defer close(replies)
		rows, err := b.collect(ctx, p)
		if p.query != "" {
			// Dispose even when ctx is done; the query object outlives us otherwise.
			if derr := b.bus.Call(context.Background(), p.query, p.iface+".Dispose", nil); derr != nil {
				b.logger.Debug("opimd dispose failed", "query", string(p.query), "error", derr)
			}
		}
		if err == nil {
			for _, row := range rows {
				if !phonebook.Send(ctx, replies, phonebook.RowReply(row)) {
					return
				}
			}
		}
		phonebook.Send(ctx, replies, phonebook.EndReply(err))
	}()
	return replies, nil
}

func (b *Backend) dispatch(ctx context.Context, d phonebook.Descriptor) (plan, error) {
	p := plan{desc: d}
	calls := d.Target != phonebook.TargetPhonebook

	if d.Mode == phonebook.ModeEntry {
		iface := contactIface
		if calls {
			iface = callIface
		}
		if !strings.HasPrefix(d.Arg, "/") {
			return p, fmt.Errorf("opimd: %q is not an object path", d.Arg)
		}
		var content Entry
		if err := b.bus.Call(ctx, dbus.ObjectPath(d.Arg), iface+".GetContent", &content); err != nil {
			return p, fmt.Errorf("opimd: %s.GetContent: %w", iface, err)
		}
		if content == nil {
			content = Entry{}
		}
		if _, ok := content["Path"]; !ok {
			content["Path"] = dbus.MakeVariant(d.Arg)
		}
		p.entry = content
		return p, nil
	}

	var filter map[string]dbus.Variant
	switch {
	case d.Mode == phonebook.ModeScan:
		filter = callFilter(phonebook.TargetMissed)
		filter["_limit"] = dbus.MakeVariant(int32(phonebook.MissedScanLimit))
	case calls:
		filter = callFilter(d.Target)
	default:
		filter = contactFilter()
	}

	path, iface, queryIface := contactsPath, contactsIface, contactQueryIface
	if calls || d.Mode == phonebook.ModeScan {
		path, iface, queryIface = callsPath, callsIface, callQueryIface
	}
	if err := b.bus.Call(ctx, path, iface+".Query", &p.query, filter); err != nil {
		return p, fmt.Errorf("opimd: %s.Query: %w", iface, err)
	}
	p.iface = queryIface
	return p, nil
}

func (b *Backend) results(ctx context.Context, query dbus.ObjectPath, iface string) (int32, []Entry, error) {
	var count int32
	if err := b.bus.Call(ctx, query, iface+".GetResultCount", &count); err != nil {
		return 0, nil, fmt.Errorf("opimd: GetResultCount: %w", err)
	}
	if count <= 0 {
		return count, nil, nil
	}
	var entries []Entry
	if err := b.bus.Call(ctx, query, iface+".GetMultipleResults", &entries, count); err != nil {
		return 0, nil, fmt.Errorf("opimd: GetMultipleResults: %w", err)
	}
	return count, entries, nil
}

// allContacts reads every contact; calls are joined to them by number.
func (b *Backend) allContacts(ctx context.Context) ([]Entry, error) {
	var query dbus.ObjectPath
	if err := b.bus.Call(ctx, contactsPath, contactsIface+".Query", &query, contactFilter()); err != nil {
		return nil, fmt.Errorf("opimd: %s.Query: %w", contactsIface, err)
	}
	defer b.bus.Call(context.Background(), query, contactQueryIface+".Dispose", nil)
	_, entries, err := b.results(ctx, query, contactQueryIface)
	return entries, err
}

func (b *Backend) collect(ctx context.Context, p plan) ([][]string, error) {
	d := p.desc
	calls := d.Target != phonebook.TargetPhonebook

	if d.Mode == phonebook.ModeEntry {
		if !calls {
			return contactRows(p.entry, str(p.entry, "Path"), "", phonebook.NotACall, false, false), nil
		}
		contacts, err := b.allContacts(ctx)
		if err != nil {
			return nil, err
		}
		return callRows(p.entry, indexByNumber(contacts)), nil
	}

	if d.Mode == phonebook.ModeCount && !calls {
		// GetResultCount includes contacts without any field, which a
		// fetch drops.
		_, entries, err := b.results(ctx, p.query, p.iface)
		if err != nil {
			return nil, err
		}
		n := 0
		for _, e := range entries {
			if hasData(e) || (b.owner != "" && str(e, "Path") == b.owner) {
				n++
			}
		}
		return [][]string{{strconv.Itoa(n)}}, nil
	}

	if d.Mode == phonebook.ModeCount {
		var count int32
		if err := b.bus.Call(ctx, p.query, p.iface+".GetResultCount", &count); err != nil {
			return nil, fmt.Errorf("opimd: GetResultCount: %w", err)
		}
		return [][]string{{fmt.Sprint(count)}}, nil
	}

	_, entries, err := b.results(ctx, p.query, p.iface)
	if err != nil {
		return nil, err
	}

	var byNumber map[string]Entry
	if calls && d.Mode != phonebook.ModeScan {
		contacts, err := b.allContacts(ctx)
		if err != nil {
			return nil, err
		}
		byNumber = indexByNumber(contacts)
	}

	var rows [][]string
	for _, e := range entries {
		switch {
		case d.Mode == phonebook.ModeScan:
			rows = append(rows, scanRow(e))
		case d.Mode == phonebook.ModeList && calls:
			rows = append(rows, callListRow(e, byNumber))
		case d.Mode == phonebook.ModeList:
			rows = append(rows, contactListRow(e))
		case calls:
			rows = append(rows, callRows(e, byNumber)...)
		default:
			rows = append(rows, contactRows(e, str(e, "Path"), "", phonebook.NotACall, false, false)...)
		}
	}
	return rows, nil
}

// ErrNoService is returned by Ping when opimd is not on the bus.
var ErrNoService = errors.New("opimd: service not available")

// Ping checks that opimd answers on the bus.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.bus.Call(ctx, contactsPath, "org.freedesktop.DBus.Peer.Ping", nil); err != nil {
		return fmt.Errorf("%w: %v", ErrNoService, err)
	}
	return nil
}
