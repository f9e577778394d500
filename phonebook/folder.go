package phonebook

import (
	"path"
	"strings"
)

// SetPhonebook flags.
const (
	// FlagDown navigates from the current folder into segment, or to the
	// root when segment is empty.
	FlagDown uint8 = 0x02
	// FlagUp navigates one level up, then into segment when it is set.
	FlagUp uint8 = 0x03
)

// Folders and objects served by the provider.
const (
	FolderRoot     = "/"
	FolderTelecom  = "/telecom"
	FolderPB       = "/telecom/pb"
	FolderIncoming = "/telecom/ich"
	FolderOutgoing = "/telecom/och"
	FolderMissed   = "/telecom/mch"
	FolderCombined = "/telecom/cch"

	ObjectPB       = "telecom/pb.vcf"
	ObjectIncoming = "telecom/ich.vcf"
	ObjectOutgoing = "telecom/och.vcf"
	ObjectMissed   = "telecom/mch.vcf"
	ObjectCombined = "telecom/cch.vcf"
)

// ValidFolder reports whether folder is part of the virtual folder tree.
func ValidFolder(folder string) bool {
	switch folder {
	case FolderRoot, FolderTelecom, FolderPB, FolderIncoming, FolderOutgoing, FolderMissed, FolderCombined:
		return true
	default:
		return false
	}
}

// SetFolder computes the folder reached from current by a SetPhonebook
// operation. It does not touch any backend.
func SetFolder(current, segment string, flags uint8) (string, error) {
	child := segment != ""
	if strings.Contains(segment, "/") || segment == "." || segment == ".." {
		return "", newError(ErrorCodeNotFound, "folder segment %q", segment)
	}
	var next string

	switch flags {
	case FlagDown:
		if !child {
			return FolderRoot, nil
		}
		next = path.Join(current, segment)
	case FlagUp:
		if current == FolderRoot || current == "" {
			next = FolderRoot
		} else {
			next = parentFolder(current)
		}
		if child {
			next = path.Join(next, segment)
		}
	default:
		return "", newError(ErrorCodeInvalidRequest, "unsupported setpath flags 0x%02x", flags)
	}

	if !strings.HasPrefix(next, "/") {
		next = "/" + next
	}
	if !ValidFolder(next) {
		return "", newError(ErrorCodeNotFound, "folder %q", next)
	}
	return next, nil
}

func parentFolder(folder string) string {
	folder = strings.TrimSuffix(folder, "/")
	i := strings.LastIndex(folder, "/")
	if i <= 0 {
		return FolderRoot
	}
	return folder[:i]
}
