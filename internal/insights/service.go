// Package insights computes org-level revenue aggregates from imported
// subscription rows. All entrypoints degrade to zeroed results on storage
// failures so read surfaces stay up while the database is unhappy.
package insights

import (
	"context"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jarvis360/revenuecore/internal/analytics"
	"github.com/jarvis360/revenuecore/internal/clock"
	"github.com/jarvis360/revenuecore/internal/normalize"
	subscriptiondomain "github.com/jarvis360/revenuecore/internal/subscription/domain"
)

const topCustomersLimit = 10

// OrgKPIs is the headline revenue summary for one organization.
type OrgKPIs struct {
	KPIs         analytics.KPIs          `json:"kpis"`
	TopCustomers []analytics.CustomerMRR `json:"top_customers"`
}

// CohortReport buckets the org's customers by signup month. Keys are
// "YYYY-MM"; retention entry i counts members still active i months in.
type CohortReport struct {
	Cohorts   map[string]int   `json:"cohorts"`
	Retention map[string][]int `json:"retention"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	subscriptions subscriptiondomain.Repository
}

func NewService(db *gorm.DB, log *zap.Logger, clk clock.Clock, subscriptions subscriptiondomain.Repository) *Service {
	return &Service{db: db, log: log, clock: clk, subscriptions: subscriptions}
}

// ComputeOrgKPIs sums MRR/ARR over the org's subscriptions and ranks its top
// customers. Rows starting before since are excluded when since is set.
func (s *Service) ComputeOrgKPIs(ctx context.Context, orgID snowflake.ID, since *time.Time) OrgKPIs {
	records, ok := s.loadRecords(ctx, orgID, since)
	if !ok || len(records) == 0 {
		return OrgKPIs{
			KPIs:         analytics.KPIs{MRR: 0, ARR: 0},
			TopCustomers: []analytics.CustomerMRR{},
		}
	}
	return OrgKPIs{
		KPIs:         analytics.ComputeMRRAndARR(records),
		TopCustomers: analytics.TopCustomersByMRR(records, topCustomersLimit),
	}
}

// ComputeOrgCohorts buckets the org's subscriptions by signup month and
// derives a retention matrix, treating each subscription as active from its
// start date through today.
func (s *Service) ComputeOrgCohorts(ctx context.Context, orgID snowflake.ID) CohortReport {
	records, ok := s.loadRecords(ctx, orgID, nil)
	if !ok || len(records) == 0 {
		return CohortReport{Cohorts: map[string]int{}, Retention: map[string][]int{}}
	}

	now := s.clock.Now().UTC()
	dates := make([]*time.Time, 0, len(records))
	inputs := make([]analytics.RetentionInput, 0, len(records))
	for _, r := range records {
		dates = append(dates, r.SignupDate)
		if r.SignupDate == nil {
			continue
		}
		inputs = append(inputs, analytics.RetentionInput{
			SignupDate:   r.SignupDate,
			ActiveMonths: monthsActive(*r.SignupDate, now),
		})
	}

	cohorts := make(map[string]int)
	for month, count := range analytics.Cohortize(dates) {
		cohorts[month.String()] = count
	}
	retention := make(map[string][]int)
	for month, row := range analytics.RetentionMatrix(inputs) {
		retention[month.String()] = row
	}
	return CohortReport{Cohorts: cohorts, Retention: retention}
}

// loadRecords projects the org's subscriptions into canonical records. The
// bool reports whether storage could be read at all.
func (s *Service) loadRecords(ctx context.Context, orgID snowflake.ID, since *time.Time) ([]normalize.Record, bool) {
	rows, err := s.subscriptions.ListForInsights(ctx, s.db, orgID, since)
	if err != nil {
		s.log.Warn("insights query failed, returning zeroed aggregates",
			zap.Int64("organization_id", int64(orgID)),
			zap.Error(err),
		)
		return nil, false
	}

	records := make([]normalize.Record, 0, len(rows))
	for _, row := range rows {
		cid := row.ExternalID
		if cid == "" {
			cid = row.Name
		}
		if cid == "" {
			cid = strconv.FormatInt(int64(row.CustomerPK), 10)
		}
		records = append(records, normalize.Record{
			CustomerID: cid,
			MRR:        row.MRR.InexactFloat64(),
			SignupDate: row.StartDate,
		})
	}
	return records, true
}

// monthsActive counts whole months from signup through now, minimum 1. A
// customer who signed up this month is active for exactly one month.
func monthsActive(signup, now time.Time) int {
	months := (now.Year()-signup.Year())*12 + int(now.Month()) - int(signup.Month())
	if months < 0 {
		months = 0
	}
	return months + 1
}
