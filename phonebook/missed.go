package phonebook

// missedScanner counts new missed calls. Every unread row counts until a
// read row for the same number marks it as seen; rows for a seen number
// are ignored. Rows arrive newest first, so unread calls older than the
// last read one do not count.
type missedScanner struct {
	seen      map[string]struct{}
	newMissed int
}

func newMissedScanner() *missedScanner {
	return &missedScanner{seen: make(map[string]struct{})}
}

func (s *missedScanner) add(row []string) error {
	if len(row) != ScanColumns {
		return newError(ErrorCodeContract, "scan row has %d columns, want %d", len(row), ScanColumns)
	}
	number := row[ScanColNumber]
	if _, ok := s.seen[number]; ok {
		return nil
	}
	if row[ScanColRead] == "false" {
		s.newMissed++
		return nil
	}
	s.seen[number] = struct{}{}
	return nil
}
