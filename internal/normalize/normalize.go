package normalize

import (
	"encoding/csv"
	"strings"
	"time"
)

// Record is one canonical billing row. MRR is always defined (possibly zero);
// CustomerID may be empty and SignupDate nil when the source lacks them. Raw
// keeps the original row keyed by header for diagnostics.
type Record struct {
	CustomerID string
	MRR        float64
	SignupDate *time.Time
	Raw        map[string]string
}

// Normalize parses delimited text into canonical billing records using the
// default column candidates. maxRows caps the converted rows when positive.
func Normalize(csvText string, maxRows int) []Record {
	return NormalizeWith(csvText, maxRows, DefaultCandidates())
}

// NormalizeWith is Normalize with explicit column candidates. Input the
// parser cannot make sense of yields an empty slice, never an error.
func NormalizeWith(csvText string, maxRows int, cands Candidates) []Record {
	if strings.TrimSpace(csvText) == "" {
		return nil
	}

	rows := parseRows(csvText)
	if len(rows) < 2 {
		// header only, or nothing parseable
		return nil
	}

	header := rows[0]
	cols := detectColumns(header, cands)

	out := make([]Record, 0, len(rows)-1)
	for idx, row := range rows[1:] {
		if maxRows > 0 && idx >= maxRows {
			break
		}

		rec := Record{Raw: rawRow(header, row)}
		if cols.id >= 0 {
			rec.CustomerID = strings.TrimSpace(field(row, cols.id))
		}
		if cols.revenue >= 0 {
			rec.MRR = CoerceAmount(field(row, cols.revenue))
		}
		if cols.date >= 0 {
			rec.SignupDate = CoerceDate(field(row, cols.date))
		}
		out = append(out, rec)
	}

	return out
}

// parseRows reads the input strictly first, then falls back to a permissive
// pass tolerating ragged rows and stray quotes.
func parseRows(csvText string) [][]string {
	r := csv.NewReader(strings.NewReader(csvText))
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err == nil {
		return rows
	}

	r = csv.NewReader(strings.NewReader(csvText))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err = r.ReadAll()
	if err != nil {
		return nil
	}
	return rows
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func rawRow(header, row []string) map[string]string {
	raw := make(map[string]string, len(header))
	for i, name := range header {
		key := strings.TrimSpace(name)
		if key == "" {
			continue
		}
		raw[key] = field(row, i)
	}
	return raw
}
