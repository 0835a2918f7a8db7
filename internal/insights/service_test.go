package insights

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jarvis360/revenuecore/internal/clock"
	customerdomain "github.com/jarvis360/revenuecore/internal/customer/domain"
	customerrepo "github.com/jarvis360/revenuecore/internal/customer/repository"
	"github.com/jarvis360/revenuecore/internal/migration"
	subscriptiondomain "github.com/jarvis360/revenuecore/internal/subscription/domain"
	subscriptionrepo "github.com/jarvis360/revenuecore/internal/subscription/repository"
)

func setupService(t *testing.T) (*Service, *gorm.DB, *snowflake.Node) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))

	return NewService(db, zap.NewNop(), clk, subscriptionrepo.Provide()), db, node
}

func seedSubscription(t *testing.T, db *gorm.DB, node *snowflake.Node, orgID snowflake.ID, externalID string, mrr float64, start *time.Time) {
	t.Helper()
	customer, _, err := customerrepo.Provide().GetOrCreate(context.Background(), db, &customerdomain.Customer{
		ID:         node.Generate(),
		OrgID:      orgID,
		ExternalID: externalID,
		Name:       externalID,
		CreatedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)

	sub := &subscriptiondomain.Subscription{
		ID:         node.Generate(),
		OrgID:      orgID,
		CustomerID: customer.ID,
		MRR:        decimal.NewFromFloat(mrr),
		StartDate:  start,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, subscriptionrepo.Provide().InsertBatch(context.Background(), db, []*subscriptiondomain.Subscription{sub}))
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestComputeOrgKPIs(t *testing.T) {
	s, db, node := setupService(t)

	seedSubscription(t, db, node, 1, "alice", 100, datePtr(2025, 1, 5))
	seedSubscription(t, db, node, 1, "bob", 200, datePtr(2025, 2, 10))
	seedSubscription(t, db, node, 1, "alice", 50, nil)
	seedSubscription(t, db, node, 2, "other-org", 999, datePtr(2025, 1, 1))

	got := s.ComputeOrgKPIs(context.Background(), 1, nil)
	assert.InDelta(t, 350.0, got.KPIs.MRR, 1e-9)
	assert.InDelta(t, 4200.0, got.KPIs.ARR, 1e-9)
	require.Len(t, got.TopCustomers, 2)
	assert.Equal(t, "alice", got.TopCustomers[0].CustomerID)
	assert.InDelta(t, 150.0, got.TopCustomers[0].MRR, 1e-9)
	assert.Equal(t, "bob", got.TopCustomers[1].CustomerID)
}

func TestComputeOrgKPIsSinceFilter(t *testing.T) {
	s, db, node := setupService(t)

	seedSubscription(t, db, node, 1, "old", 100, datePtr(2024, 6, 1))
	seedSubscription(t, db, node, 1, "new", 200, datePtr(2025, 2, 1))

	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got := s.ComputeOrgKPIs(context.Background(), 1, &since)
	assert.InDelta(t, 200.0, got.KPIs.MRR, 1e-9)
	require.Len(t, got.TopCustomers, 1)
	assert.Equal(t, "new", got.TopCustomers[0].CustomerID)
}

func TestComputeOrgKPIsEmptyOrg(t *testing.T) {
	s, _, _ := setupService(t)

	got := s.ComputeOrgKPIs(context.Background(), 404, nil)
	assert.Zero(t, got.KPIs.MRR)
	assert.Zero(t, got.KPIs.ARR)
	assert.Empty(t, got.TopCustomers)
}

func TestComputeOrgKPIsDegradesOnStorageFailure(t *testing.T) {
	s, db, node := setupService(t)
	seedSubscription(t, db, node, 1, "alice", 100, datePtr(2025, 1, 5))

	require.NoError(t, db.Exec(`DROP TABLE subscriptions`).Error)

	got := s.ComputeOrgKPIs(context.Background(), 1, nil)
	assert.Zero(t, got.KPIs.MRR)
	assert.Zero(t, got.KPIs.ARR)
	assert.Empty(t, got.TopCustomers)
}

func TestComputeOrgCohorts(t *testing.T) {
	s, db, node := setupService(t)

	// Clock pinned to 2025-03-10: January signups are 3 months active,
	// February signups 2.
	seedSubscription(t, db, node, 1, "a", 10, datePtr(2025, 1, 5))
	seedSubscription(t, db, node, 1, "b", 10, datePtr(2025, 1, 20))
	seedSubscription(t, db, node, 1, "c", 10, datePtr(2025, 2, 1))
	seedSubscription(t, db, node, 1, "d", 10, nil)

	got := s.ComputeOrgCohorts(context.Background(), 1)
	assert.Equal(t, map[string]int{"2025-01": 2, "2025-02": 1}, got.Cohorts)
	assert.Equal(t, []int{2, 2, 2}, got.Retention["2025-01"])
	assert.Equal(t, []int{1, 1}, got.Retention["2025-02"])
}

func TestComputeOrgCohortsEmpty(t *testing.T) {
	s, _, _ := setupService(t)

	got := s.ComputeOrgCohorts(context.Background(), 55)
	assert.Empty(t, got.Cohorts)
	assert.Empty(t, got.Retention)
	assert.NotNil(t, got.Cohorts)
	assert.NotNil(t, got.Retention)
}
