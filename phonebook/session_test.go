package phonebook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nalgeon/be"

	"github.com/spachava753/pbap/vcard"
)

func TestBridgeResumesOnce(t *testing.T) {
	buf := NewBuffer()
	b := NewBridge(buf)

	// Never suspended: nothing to resume.
	be.Equal(t, b.Complete(1, 0), false)

	b.Suspend()
	b.Suspend()
	b.Append([]byte("BEGIN"))
	be.True(t, b.Complete(2, 1))
	be.Equal(t, b.Fail(errors.New("late")), false)
	b.Append([]byte("ignored"))

	suspends, resumes := buf.Calls()
	be.Equal(t, suspends, 1)
	be.Equal(t, resumes, 1)
	be.Equal(t, string(buf.Bytes()), "BEGIN")
	be.True(t, b.Completed())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	be.Err(t, buf.Wait(ctx), nil)
	contacts, newMissed := buf.Result()
	be.Equal(t, contacts, 2)
	be.Equal(t, newMissed, 1)
}

// reentrantTransport finalizes from within Resume.
type reentrantTransport struct {
	*Buffer
	onResume func()
}

func (t *reentrantTransport) Resume(contacts, newMissed int, err error) {
	t.Buffer.Resume(contacts, newMissed, err)
	t.onResume()
}

func TestBridgeAllowsReentryFromResume(t *testing.T) {
	rt := &reentrantTransport{Buffer: NewBuffer()}
	b := NewBridge(rt)
	rt.onResume = func() { b.Fail(ErrCanceled) }

	b.Suspend()
	be.True(t, b.Complete(0, 0))
	_, resumes := rt.Calls()
	be.Equal(t, resumes, 1)
}

func TestListEntry(t *testing.T) {
	e, ok := listEntry([]string{"c1", "Doe", "John", "", "", "", "555"}, "")
	be.True(t, ok)
	be.Equal(t, e, CacheEntry{ID: "c1", Handle: InvalidHandle, Name: "Doe;John;;;", Tel: "555"})

	e, ok = listEntry([]string{"call:3", "", "", "", "", "", "555-9"}, "")
	be.True(t, ok)
	be.Equal(t, e.Name, "555-9")

	_, ok = listEntry([]string{"x", "", "", "", "", "", ""}, "")
	be.Equal(t, ok, false)

	e, ok = listEntry([]string{"me", "", "", "", "", "", ""}, "me")
	be.True(t, ok)
	be.Equal(t, e.Handle, OwnerHandle)
}

func TestCacheHandles(t *testing.T) {
	c := NewCache()
	c.Entry(CacheEntry{ID: "me", Handle: OwnerHandle, Name: "Me"})
	c.Entry(CacheEntry{ID: "c1", Handle: InvalidHandle, Name: "Doe;John"})
	c.Entry(CacheEntry{ID: "c2", Handle: InvalidHandle, Name: "Roe;Jane"})
	c.Entry(CacheEntry{ID: "dup", Handle: 1, Name: "Dup"})
	c.Ready(nil)
	c.Ready(errors.New("second ready is ignored"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	be.Err(t, c.Wait(ctx), nil)
	be.Equal(t, c.Len(), 3)

	id, err := c.LookupName("2.vcf")
	be.Err(t, err, nil)
	be.Equal(t, id, "c2")

	_, err = c.LookupName("9.vcf")
	be.True(t, errors.Is(err, ErrNotFound))
	_, err = c.LookupName("john.vcf")
	be.True(t, errors.Is(err, ErrInvalidRequest))

	be.Equal(t, c.Listing(1, 1), []vcard.ListingEntry{{Handle: 1, Name: "Doe;John"}})
	be.Equal(t, len(c.Listing(0, 10)), 3)
	be.Equal(t, len(c.Listing(5, 10)), 0)
}
