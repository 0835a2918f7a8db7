package analytics

import (
	"fmt"
	"time"
)

// Month identifies a signup cohort bucket.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the cohort bucket for a date.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// String renders the bucket as "YYYY-MM", the wire key used by the public
// aggregate surface.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Cohortize counts signups per (year, month) bucket. Nil dates are excluded.
func Cohortize(dates []*time.Time) map[Month]int {
	counts := make(map[Month]int)
	for _, d := range dates {
		if d == nil {
			continue
		}
		counts[MonthOf(*d)]++
	}
	return counts
}

// RetentionInput pairs a member's signup date with the number of months they
// stayed active (1 = active in the signup month only).
type RetentionInput struct {
	SignupDate   *time.Time
	ActiveMonths int
}

// RetentionMatrix builds, per cohort, a sequence where entry i counts the
// members whose ActiveMonths exceeds i. The sequence length is the cohort's
// maximum observed ActiveMonths. Members without a signup date are excluded
// entirely.
func RetentionMatrix(inputs []RetentionInput) map[Month][]int {
	cohorts := make(map[Month][]int)
	for _, in := range inputs {
		if in.SignupDate == nil {
			continue
		}
		key := MonthOf(*in.SignupDate)
		cohorts[key] = append(cohorts[key], in.ActiveMonths)
	}

	matrix := make(map[Month][]int, len(cohorts))
	for cohort, members := range cohorts {
		maxMonths := 0
		for _, m := range members {
			if m > maxMonths {
				maxMonths = m
			}
		}
		retention := make([]int, maxMonths)
		for _, m := range members {
			for i := 0; i < m && i < maxMonths; i++ {
				retention[i]++
			}
		}
		matrix[cohort] = retention
	}
	return matrix
}
