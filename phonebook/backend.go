package phonebook

import "context"

// Reply is one message of a streaming query result.
//
// Rows are delivered in backend order. The stream ends with exactly one
// reply whose End is set; its Err is nil on success.
type Reply struct {
	Row []string
	End bool
	Err error
}

// Backend executes catalog queries against a contact store.
//
// Query dispatches d and returns the reply stream. A non-nil error means
// the query could not be dispatched at all. Implementations must stop
// sending and close the channel once ctx is done, and must not block on a
// send after ctx is done.
type Backend interface {
	Query(ctx context.Context, d Descriptor) (<-chan Reply, error)
	// Owner returns the source id of the self contact, or "" when the
	// store has none.
	Owner() string
}

// RowReply returns a row message.
func RowReply(row []string) Reply {
	return Reply{Row: row}
}

// EndReply returns the terminal message.
func EndReply(err error) Reply {
	return Reply{End: true, Err: err}
}

// Send delivers r on ch unless ctx is done first. It reports whether r
// was delivered.
func Send(ctx context.Context, ch chan<- Reply, r Reply) bool {
	select {
	case ch <- r:
		return true
	case <-ctx.Done():
		return false
	}
}
