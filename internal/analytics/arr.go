// Package analytics computes recurring-revenue aggregates from canonical
// billing records. Every function here is pure and total: malformed input
// contributes zero instead of failing.
package analytics

import (
	"sort"
	"strings"

	"github.com/jarvis360/revenuecore/internal/normalize"
)

// KPIs holds the headline revenue numbers. ARR is always MRR annualized.
type KPIs struct {
	MRR float64 `json:"MRR"`
	ARR float64 `json:"ARR"`
}

// CustomerMRR is one ranked entry of a top-customers listing.
type CustomerMRR struct {
	CustomerID string  `json:"customer_id"`
	MRR        float64 `json:"mrr"`
}

// ComputeMRRAndARR sums MRR over all records; ARR = MRR * 12.
func ComputeMRRAndARR(records []normalize.Record) KPIs {
	var total float64
	for _, r := range records {
		total += r.MRR
	}
	return KPIs{MRR: total, ARR: total * 12}
}

// TopCustomersByMRR groups records by customer identifier, sums MRR per
// group, and returns up to limit entries sorted by MRR descending. The
// identifier falls back from CustomerID to the raw "id" and "name" cells and
// finally the literal "unknown". Ties keep first-seen insertion order.
func TopCustomersByMRR(records []normalize.Record, limit int) []CustomerMRR {
	totals := make(map[string]float64)
	order := make([]string, 0)

	for _, r := range records {
		cid := customerKey(r)
		if _, seen := totals[cid]; !seen {
			order = append(order, cid)
		}
		totals[cid] += r.MRR
	}

	out := make([]CustomerMRR, 0, len(order))
	for _, cid := range order {
		out = append(out, CustomerMRR{CustomerID: cid, MRR: totals[cid]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MRR > out[j].MRR
	})

	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func customerKey(r normalize.Record) string {
	if r.CustomerID != "" {
		return r.CustomerID
	}
	if v := rawField(r, "id"); v != "" {
		return v
	}
	if v := rawField(r, "name"); v != "" {
		return v
	}
	return "unknown"
}

func rawField(r normalize.Record, key string) string {
	for k, v := range r.Raw {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
