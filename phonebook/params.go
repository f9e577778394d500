package phonebook

import "github.com/spachava753/pbap/vcard"

// DefaultMaxCount is the PBAP MaxListCount used when the client sends none.
const DefaultMaxCount = 65535

// Params are the application parameters of one pull request.
type Params struct {
	// Offset is ListStartOffset: the number of contacts to skip.
	Offset uint32
	// MaxCount is MaxListCount. Zero asks for the phonebook size only.
	MaxCount uint32
	Format   vcard.Format
	Filter   vcard.Filter
}

// DefaultParams returns a window covering the whole phonebook in vCard 2.1.
func DefaultParams() Params {
	return Params{MaxCount: DefaultMaxCount, Format: vcard.V21}
}

// admits reports whether the 1-based contact ordinal falls in the window.
func (p Params) admits(ordinal uint32) bool {
	return uint64(ordinal) > uint64(p.Offset) && uint64(ordinal) <= uint64(p.Offset)+uint64(p.MaxCount)
}
