package export

// Sheet is a named table with a header row and string-valued rows, matching
// the legacy spreadsheet layout the registries were migrated from.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []map[string]string
}

// Append adds a row, ignoring keys outside the header set.
func (s *Sheet) Append(row map[string]string) {
	filtered := make(map[string]string, len(s.Headers))
	for _, h := range s.Headers {
		filtered[h] = row[h]
	}
	s.Rows = append(s.Rows, filtered)
}
