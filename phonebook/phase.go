package phonebook

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/spachava753/pbap/vcard"
)

// phase is one backend query of a request plan together with the state it
// accumulates. Rows reach a phase only after their width was checked
// against descriptor().Columns.
type phase interface {
	descriptor() Descriptor
	row(row []string) error
	// end runs on a successful end of stream. It returns the phase to issue
	// next, or nil with the request outcome. An error fails the request.
	end() (phase, outcome, error)
	// discard drops accumulated state after a failure.
	discard()
}

// outcome is the successful result of a request.
type outcome struct {
	body      []byte
	contacts  int
	newMissed int
}

// completer delivers the result of a request exactly once.
type completer interface {
	succeed(o outcome)
	fail(err error)
}

// bridgeCompleter completes pull requests through the session bridge.
type bridgeCompleter struct {
	bridge *Bridge
}

func (c bridgeCompleter) succeed(o outcome) {
	c.bridge.Append(o.body)
	c.bridge.Complete(o.contacts, o.newMissed)
}

func (c bridgeCompleter) fail(err error) {
	c.bridge.Fail(err)
}

// sinkCompleter completes cache requests. Ready is called outside any lock
// so a sink may finalize the request from within it.
type sinkCompleter struct {
	sink CacheSink
	done atomic.Bool
}

func (c *sinkCompleter) succeed(outcome) {
	if c.done.CompareAndSwap(false, true) {
		c.sink.Ready(nil)
	}
}

func (c *sinkCompleter) fail(err error) {
	if c.done.CompareAndSwap(false, true) {
		c.sink.Ready(err)
	}
}

// pullPhase returns the main phase of a pull for d.
func pullPhase(d Descriptor, params Params, owner string, loc *time.Location, newMissed int) phase {
	if d.Mode == ModeCount {
		return &countPhase{desc: d, newMissed: newMissed}
	}
	return &fetchPhase{
		desc:      d,
		params:    params,
		merger:    NewMerger(params, owner, loc),
		newMissed: newMissed,
	}
}

// scanPhase counts new missed calls and then chains into the missed-calls
// pull.
type scanPhase struct {
	scanner *missedScanner
	next    Descriptor
	params  Params
	owner   string
	loc     *time.Location
}

func (p *scanPhase) descriptor() Descriptor { return missedScanDescriptor() }

func (p *scanPhase) row(row []string) error { return p.scanner.add(row) }

func (p *scanPhase) end() (phase, outcome, error) {
	return pullPhase(p.next, p.params, p.owner, p.loc, p.scanner.newMissed), outcome{}, nil
}

func (p *scanPhase) discard() {}

type countPhase struct {
	desc      Descriptor
	count     int
	newMissed int
}

func (p *countPhase) descriptor() Descriptor { return p.desc }

func (p *countPhase) row(row []string) error {
	n, err := strconv.Atoi(row[0])
	if err != nil || n < 0 {
		return newError(ErrorCodeContract, "count row %q is not a count", row[0])
	}
	p.count = n
	return nil
}

func (p *countPhase) end() (phase, outcome, error) {
	return nil, outcome{contacts: p.count, newMissed: p.newMissed}, nil
}

func (p *countPhase) discard() { p.count = 0 }

// fetchPhase merges Fetch or Entry rows and renders them on success.
type fetchPhase struct {
	desc      Descriptor
	params    Params
	merger    *Merger
	newMissed int
}

func (p *fetchPhase) descriptor() Descriptor { return p.desc }

func (p *fetchPhase) row(row []string) error { return p.merger.Add(row) }

func (p *fetchPhase) end() (phase, outcome, error) {
	contacts := p.merger.Contacts()
	if p.desc.Mode == ModeEntry && len(contacts) == 0 {
		return nil, outcome{}, newError(ErrorCodeNotFound, "entry %q", p.desc.Arg)
	}
	return nil, outcome{
		body:      vcard.Marshal(contacts, p.params.Format, p.params.Filter),
		contacts:  len(contacts),
		newMissed: p.newMissed,
	}, nil
}

func (p *fetchPhase) discard() { p.merger.Reset() }

// cachePhase streams List rows into a cache sink.
type cachePhase struct {
	desc  Descriptor
	owner string
	sink  CacheSink
}

func (p *cachePhase) descriptor() Descriptor { return p.desc }

func (p *cachePhase) row(row []string) error {
	if e, ok := listEntry(row, p.owner); ok {
		p.sink.Entry(e)
	}
	return nil
}

func (p *cachePhase) end() (phase, outcome, error) { return nil, outcome{}, nil }

func (p *cachePhase) discard() {}
