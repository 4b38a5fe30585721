package petition

import "strings"

// Filter returns the records whose title or body contains query,
// case-insensitively, in their original order. A blank query returns records
// itself.
func Filter(records []Petition, query string) []Petition {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}

	out := make([]Petition, 0, len(records))
	for _, p := range records {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Body), q) {
			out = append(out, p)
		}
	}
	return out
}
