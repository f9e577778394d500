package phonebook

import "fmt"

// Target is the logical data set a query reads.
type Target int

const (
	TargetPhonebook Target = iota
	TargetIncoming
	TargetOutgoing
	TargetMissed
	TargetCombined
)

// String returns the PBAP folder name of t.
func (t Target) String() string {
	switch t {
	case TargetPhonebook:
		return "pb"
	case TargetIncoming:
		return "ich"
	case TargetOutgoing:
		return "och"
	case TargetMissed:
		return "mch"
	case TargetCombined:
		return "cch"
	default:
		return "unknown"
	}
}

// Mode selects the row shape a query produces.
type Mode int

const (
	// ModeCount returns a single row holding the number of contacts.
	ModeCount Mode = iota
	// ModeFetch returns full contact rows.
	ModeFetch
	// ModeEntry returns full contact rows for the single id in Descriptor.Arg.
	ModeEntry
	// ModeList returns listing rows used to build the handle cache.
	ModeList
	// ModeScan returns (id, number, is_read) rows of recent missed calls.
	ModeScan
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeCount:
		return "count"
	case ModeFetch:
		return "fetch"
	case ModeEntry:
		return "entry"
	case ModeList:
		return "list"
	case ModeScan:
		return "scan"
	default:
		return "unknown"
	}
}

// Column counts of each mode. A row of a different width is a contract
// violation.
const (
	CountColumns = 1
	FetchColumns = 23
	ListColumns  = 7
	ScanColumns  = 3
)

// MissedScanLimit bounds the lookback of the new-missed-calls scan.
const MissedScanLimit = 40

// Descriptor identifies one backend query.
type Descriptor struct {
	Target  Target
	Mode    Mode
	Columns int
	// Arg is the source id for ModeEntry queries.
	Arg string
}

// String returns a short identifier for logs.
func (d Descriptor) String() string {
	if d.Arg != "" {
		return fmt.Sprintf("%s/%s(%s)", d.Target, d.Mode, d.Arg)
	}
	return fmt.Sprintf("%s/%s", d.Target, d.Mode)
}

// RequestKind is the PBAP operation being resolved.
type RequestKind int

const (
	// KindPull is PullPhoneBook; the name is an object such as telecom/pb.vcf.
	KindPull RequestKind = iota
	// KindListing is cache population for PullvCardListing; the name is a folder.
	KindListing
	// KindEntry is PullvCardEntry; the name is the current folder.
	KindEntry
)

var objectTargets = map[string]Target{
	ObjectPB:       TargetPhonebook,
	ObjectIncoming: TargetIncoming,
	ObjectOutgoing: TargetOutgoing,
	ObjectMissed:   TargetMissed,
	ObjectCombined: TargetCombined,
}

var folderTargets = map[string]Target{
	FolderPB:       TargetPhonebook,
	FolderIncoming: TargetIncoming,
	FolderOutgoing: TargetOutgoing,
	FolderMissed:   TargetMissed,
	FolderCombined: TargetCombined,
}

// Resolve maps a request to its query descriptor. A pull with maxCount 0
// resolves to the Count variant. It reports false for unknown names.
func Resolve(kind RequestKind, name string, maxCount uint32) (Descriptor, bool) {
	switch kind {
	case KindPull:
		target, ok := objectTargets[name]
		if !ok {
			return Descriptor{}, false
		}
		if maxCount == 0 {
			return Descriptor{Target: target, Mode: ModeCount, Columns: CountColumns}, true
		}
		return Descriptor{Target: target, Mode: ModeFetch, Columns: FetchColumns}, true
	case KindListing:
		target, ok := folderTargets[name]
		if !ok {
			return Descriptor{}, false
		}
		return Descriptor{Target: target, Mode: ModeList, Columns: ListColumns}, true
	case KindEntry:
		target, ok := folderTargets[name]
		if !ok {
			return Descriptor{}, false
		}
		return Descriptor{Target: target, Mode: ModeEntry, Columns: FetchColumns}, true
	default:
		return Descriptor{}, false
	}
}

// ResolveEntry returns the Entry descriptor for id in folder.
func ResolveEntry(folder, id string) (Descriptor, bool) {
	if id == "" {
		return Descriptor{}, false
	}
	d, ok := Resolve(KindEntry, folder, 0)
	if !ok {
		return Descriptor{}, false
	}
	d.Arg = id
	return d, true
}

// needsMissedScan reports whether a pull of name runs the new-missed-calls
// scan before its main query.
func needsMissedScan(name string) bool {
	return name == ObjectMissed
}

func missedScanDescriptor() Descriptor {
	return Descriptor{Target: TargetMissed, Mode: ModeScan, Columns: ScanColumns}
}
