package phonebook

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Provider serves PBAP requests from a Backend.
type Provider struct {
	backend Backend
	logger  *slog.Logger
	loc     *time.Location
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithLocation sets the zone call timestamps are rendered in. The default
// is time.Local.
func WithLocation(loc *time.Location) Option {
	return func(p *Provider) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// New returns a Provider reading from b.
func New(b Backend, opts ...Option) *Provider {
	p := &Provider{
		backend: b,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetFolder applies one navigation step. See the package-level SetFolder.
func (p *Provider) SetFolder(current, segment string, flags uint8) (string, error) {
	next, err := SetFolder(current, segment, flags)
	if err != nil {
		p.logger.Debug("set folder rejected", "current", current, "segment", segment, "flags", flags, "error", err)
		return "", err
	}
	return next, nil
}

// Pull starts a PullPhoneBook request for the object name, for example
// "telecom/pb.vcf". With params.MaxCount 0 only the size is reported.
//
// Resolution errors are returned directly and t is left untouched.
// Otherwise t is suspended and every later outcome, including a failure to
// dispatch the first query, is delivered through t.Resume exactly once.
// The caller must Finalize the returned request when the session is done
// with it.
func (p *Provider) Pull(ctx context.Context, name string, params Params, t Transport) (*Request, error) {
	d, ok := Resolve(KindPull, name, params.MaxCount)
	if !ok {
		return nil, newError(ErrorCodeNotFound, "object %q", name)
	}

	var first phase
	if needsMissedScan(name) {
		first = &scanPhase{
			scanner: newMissedScanner(),
			next:    d,
			params:  params,
			owner:   p.backend.Owner(),
			loc:     p.loc,
		}
	} else {
		first = pullPhase(d, params, p.backend.Owner(), p.loc, 0)
	}

	bridge := NewBridge(t)
	r := p.newRequest(ctx, "pull", name, bridgeCompleter{bridge: bridge})
	bridge.Suspend()
	r.start(first)
	return r, nil
}

// GetEntry starts a PullvCardEntry request for the source id in folder.
// Errors are delivered the same way as for Pull.
func (p *Provider) GetEntry(ctx context.Context, folder, id string, params Params, t Transport) (*Request, error) {
	d, ok := ResolveEntry(folder, id)
	if !ok {
		return nil, newError(ErrorCodeNotFound, "entry %q in folder %q", id, folder)
	}
	first := &fetchPhase{
		desc:   d,
		params: params,
		merger: NewEntryMerger(p.backend.Owner(), p.loc),
	}

	bridge := NewBridge(t)
	r := p.newRequest(ctx, "entry", folder+"/"+id, bridgeCompleter{bridge: bridge})
	bridge.Suspend()
	r.start(first)
	return r, nil
}

// CreateCache streams the listing entries of folder into sink, then calls
// sink.Ready exactly once. sink.Entry must not finalize the request.
func (p *Provider) CreateCache(ctx context.Context, folder string, sink CacheSink) (*Request, error) {
	d, ok := Resolve(KindListing, folder, 0)
	if !ok {
		return nil, newError(ErrorCodeNotFound, "folder %q", folder)
	}
	first := &cachePhase{desc: d, owner: p.backend.Owner(), sink: sink}
	r := p.newRequest(ctx, "cache", folder, &sinkCompleter{sink: sink})
	r.start(first)
	return r, nil
}

func (p *Provider) newRequest(ctx context.Context, op, name string, done completer) *Request {
	ctx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()
	return &Request{
		id:      id,
		backend: p.backend,
		logger:  p.logger.With("request_id", id, "op", op, "name", name),
		done:    done,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Request is one in-flight provider request.
type Request struct {
	id      string
	backend Backend
	logger  *slog.Logger
	done    completer
	ctx     context.Context

	mu       sync.Mutex
	cancel   context.CancelFunc
	closed   bool
	finished bool
}

// ID returns the request id used in logs.
func (r *Request) ID() string {
	return r.id
}

// Finalize tears the request down. Outstanding queries are canceled and
// their late replies dropped. A request that has not completed yet fails
// with ErrCanceled. Finalize is idempotent.
func (r *Request) Finalize() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.cancel()
	pending := !r.finished
	r.finished = true
	r.mu.Unlock()

	if pending {
		r.logger.Debug("request finalized before completion")
		r.done.fail(newError(ErrorCodeCanceled, "request %s finalized", r.id))
	}
}

// start issues the first query on the caller's goroutine. A dispatch
// failure completes the request before start returns.
func (r *Request) start(first phase) {
	replies, err := r.issue(first)
	if err != nil {
		r.fail(first, err)
		return
	}
	go r.run(first, replies)
}

// issue dispatches the query of ph.
func (r *Request) issue(ph phase) (<-chan Reply, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, nil
	}

	d := ph.descriptor()
	r.logger.Debug("query issued", "query", d.String())
	replies, err := r.backend.Query(r.ctx, d)
	if err != nil {
		return nil, wrapError(ErrorCodeTransport, err, "dispatch %s", d)
	}
	return replies, nil
}

// run is the dispatch loop. It drains each phase's replies in order and
// chains into the next phase until the plan completes or fails.
func (r *Request) run(ph phase, replies <-chan Reply) {
	for replies != nil {
		next, err := r.drain(ph, replies)
		if err != nil {
			r.fail(ph, err)
			return
		}
		if next == nil {
			return
		}
		ph = next
		if replies, err = r.issue(ph); err != nil {
			r.fail(ph, err)
			return
		}
	}
}

// drain consumes replies for ph. It returns the next phase to issue, or nil
// when the request completed or was finalized.
func (r *Request) drain(ph phase, replies <-chan Reply) (phase, error) {
	d := ph.descriptor()
	for reply := range replies {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return nil, nil
		}

		if !reply.End {
			err := r.apply(ph, d, reply.Row)
			r.mu.Unlock()
			if err != nil {
				return nil, err
			}
			continue
		}

		if reply.Err != nil {
			r.mu.Unlock()
			return nil, wrapError(ErrorCodeBackend, reply.Err, "query %s", d)
		}
		next, out, err := ph.end()
		if err != nil {
			r.mu.Unlock()
			return nil, err
		}
		if next == nil {
			r.finished = true
			r.cancel()
		}
		r.mu.Unlock()

		if next == nil {
			r.logger.Debug("request complete", "query", d.String(), "contacts", out.contacts, "new_missed", out.newMissed)
			r.done.succeed(out)
		}
		return next, nil
	}

	if r.ctx.Err() != nil {
		return nil, wrapError(ErrorCodeCanceled, r.ctx.Err(), "query %s", d)
	}
	return nil, newError(ErrorCodeContract, "query %s closed without a terminal reply", d)
}

// apply hands one row to ph. r.mu is held.
func (r *Request) apply(ph phase, d Descriptor, row []string) error {
	if len(row) != d.Columns {
		err := newError(ErrorCodeContract, "query %s returned %d columns, want %d", d, len(row), d.Columns)
		r.logger.Error("backend row does not match query", "query", d.String(), "columns", len(row), "want", d.Columns)
		return err
	}
	return ph.row(row)
}

// fail discards the partial state of ph and completes the request with err
// unless it already completed.
func (r *Request) fail(ph phase, err error) {
	r.mu.Lock()
	ph.discard()
	if r.finished {
		r.mu.Unlock()
		return
	}
	r.finished = true
	r.cancel()
	r.mu.Unlock()

	if CodeOf(err) == ErrorCodeContract {
		r.logger.Error("request failed", "error", err)
	} else {
		r.logger.Warn("request failed", "error", err)
	}
	r.done.fail(err)
}
