package phonebook

import (
	"bytes"
	"context"
	"sync"
)

// Transport is the OBEX side of one request. It owns the response buffer
// and the suspend/resume primitives.
type Transport interface {
	// Suspend parks the request until Resume.
	Suspend()
	// Append grows the pending response body.
	Append(p []byte)
	// Resume finishes the request. err is nil on success.
	Resume(contacts, newMissed int, err error)
}

// Bridge adapts a Transport so that a suspended request is resumed exactly
// once and a request that never suspended is never resumed.
type Bridge struct {
	t Transport

	mu        sync.Mutex
	suspended bool
	completed bool
}

// NewBridge wraps t.
func NewBridge(t Transport) *Bridge {
	return &Bridge{t: t}
}

// Suspend suspends the transport once.
func (b *Bridge) Suspend() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.suspended {
		return
	}
	b.suspended = true
	b.t.Suspend()
}

// Append appends p to the response unless the request already completed.
func (b *Bridge) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.completed {
		return
	}
	b.t.Append(p)
}

// Complete resumes the transport with a successful result. It reports
// whether this call performed the resume.
func (b *Bridge) Complete(contacts, newMissed int) bool {
	return b.finish(contacts, newMissed, nil)
}

// Fail resumes the transport with err. It reports whether this call
// performed the resume.
func (b *Bridge) Fail(err error) bool {
	return b.finish(0, 0, err)
}

// Completed reports whether the transport has been resumed.
func (b *Bridge) Completed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.completed
}

// finish resumes outside the lock so a transport may finalize the request
// from within Resume.
func (b *Bridge) finish(contacts, newMissed int, err error) bool {
	b.mu.Lock()
	if !b.suspended || b.completed {
		b.mu.Unlock()
		return false
	}
	b.completed = true
	b.mu.Unlock()
	b.t.Resume(contacts, newMissed, err)
	return true
}

// Buffer is an in-memory Transport. Wait blocks until the request resumes.
type Buffer struct {
	mu        sync.Mutex
	body      bytes.Buffer
	suspends  int
	resumes   int
	contacts  int
	newMissed int
	err       error
	done      chan struct{}
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{done: make(chan struct{})}
}

// Suspend implements Transport.
func (b *Buffer) Suspend() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suspends++
}

// Append implements Transport.
func (b *Buffer) Append(p []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.body.Write(p)
}

// Resume implements Transport.
func (b *Buffer) Resume(contacts, newMissed int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resumes++
	if b.resumes > 1 {
		return
	}
	b.contacts = contacts
	b.newMissed = newMissed
	b.err = err
	close(b.done)
}

// Wait blocks until Resume or ctx is done, and returns the request error.
func (b *Buffer) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Bytes returns a copy of the response body.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.body.Bytes())
}

// Result returns the counts reported on resume.
func (b *Buffer) Result() (contacts, newMissed int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.contacts, b.newMissed
}

// Calls returns how many times Suspend and Resume were invoked.
func (b *Buffer) Calls() (suspends, resumes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.suspends, b.resumes
}
