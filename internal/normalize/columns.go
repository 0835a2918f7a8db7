package normalize

import "strings"

// Candidates holds the ranked header names for each logical field. Earlier
// entries outrank later ones; matching is case-insensitive and accepts a
// substring hit in either direction.
type Candidates struct {
	ID      []string
	Revenue []string
	Date    []string
}

// DefaultCandidates mirrors the header names seen in real billing exports.
func DefaultCandidates() Candidates {
	return Candidates{
		ID:      []string{"id", "customer_id", "customer", "name"},
		Revenue: []string{"mrr", "revenue", "amount", "price", "monthly_revenue", "value"},
		Date:    []string{"date", "signup_date", "start_date", "created_at"},
	}
}

// columns holds the detected header index per logical field, -1 when absent.
type columns struct {
	id      int
	revenue int
	date    int
}

func detectColumns(header []string, cands Candidates) columns {
	lowered := make([]string, len(header))
	for i, h := range header {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return columns{
		id:      findColumn(lowered, cands.ID),
		revenue: findColumn(lowered, cands.Revenue),
		date:    findColumn(lowered, cands.Date),
	}
}

func findColumn(lowered []string, candidates []string) int {
	for _, name := range candidates {
		ln := strings.ToLower(name)
		for i, col := range lowered {
			if col == "" {
				continue
			}
			if ln == col || strings.Contains(col, ln) || strings.Contains(ln, col) {
				return i
			}
		}
	}
	return -1
}
