package phonebook

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spachava753/pbap/vcard"
)

// InvalidHandle asks the cache to assign the next free handle.
const InvalidHandle = -1

// OwnerHandle is the handle of the self contact.
const OwnerHandle = 0

// CacheEntry is one listing record produced by CreateCache.
type CacheEntry struct {
	ID     string
	Handle int
	// Name is "family;given;additional;prefix;suffix", or the phone number
	// when no name component is set.
	Name  string
	Sound string
	Tel   string
}

// CacheSink receives cache entries in backend order, then exactly one
// Ready call.
type CacheSink interface {
	Entry(e CacheEntry)
	Ready(err error)
}

// listEntry converts a List row into a cache entry. It reports false for
// placeholder rows.
func listEntry(row []string, owner string) (CacheEntry, bool) {
	isOwner := owner != "" && row[ListColID] == owner
	named := false
	for i := ListColFamily; i <= ListColSuffix; i++ {
		if row[i] != "" {
			named = true
			break
		}
	}
	if !named && row[ListColPhone] == "" && !isOwner {
		return CacheEntry{}, false
	}

	e := CacheEntry{ID: row[ListColID], Handle: InvalidHandle, Tel: row[ListColPhone]}
	if named {
		e.Name = strings.Join(row[ListColFamily:ListColSuffix+1], ";")
	} else {
		e.Name = row[ListColPhone]
	}
	if isOwner {
		e.Handle = OwnerHandle
	}
	return e, true
}

// Cache collects the entries of one folder and assigns listing handles.
// It implements CacheSink.
type Cache struct {
	mu       sync.Mutex
	entries  []CacheEntry
	byHandle map[int]string
	next     int
	err      error
	ready    chan struct{}
	once     sync.Once
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		byHandle: make(map[int]string),
		next:     OwnerHandle + 1,
		ready:    make(chan struct{}),
	}
}

// Entry implements CacheSink.
func (c *Cache) Entry(e CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e.Handle == InvalidHandle {
		e.Handle = c.next
		c.next++
	}
	if _, dup := c.byHandle[e.Handle]; dup {
		return
	}
	c.byHandle[e.Handle] = e.ID
	c.entries = append(c.entries, e)
}

// Ready implements CacheSink.
func (c *Cache) Ready(err error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.ready)
	})
}

// Wait blocks until the cache is ready or ctx is done.
func (c *Cache) Wait(ctx context.Context) error {
	select {
	case <-c.ready:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Lookup returns the source id behind a listing handle.
func (c *Cache) Lookup(handle int) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.byHandle[handle]
	return id, ok
}

// LookupName resolves an object name such as "5.vcf" to a source id.
func (c *Cache) LookupName(name string) (string, error) {
	var handle int
	if _, err := fmt.Sscanf(name, "%d.vcf", &handle); err != nil {
		return "", newError(ErrorCodeInvalidRequest, "entry name %q", name)
	}
	id, ok := c.Lookup(handle)
	if !ok {
		return "", newError(ErrorCodeNotFound, "handle %d", handle)
	}
	return id, nil
}

// Listing returns the window [offset, offset+maxCount) of cached entries.
func (c *Cache) Listing(offset, maxCount uint32) []vcard.ListingEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]vcard.ListingEntry, 0, min(len(c.entries), int(maxCount)))
	for i, e := range c.entries {
		if uint32(i) < offset {
			continue
		}
		if uint32(len(out)) >= maxCount {
			break
		}
		out = append(out, vcard.ListingEntry{Handle: e.Handle, Name: e.Name})
	}
	return out
}
