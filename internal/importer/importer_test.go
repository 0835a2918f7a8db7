package importer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jarvis360/revenuecore/internal/blob"
	"github.com/jarvis360/revenuecore/internal/clock"
	customerdomain "github.com/jarvis360/revenuecore/internal/customer/domain"
	customerrepo "github.com/jarvis360/revenuecore/internal/customer/repository"
	"github.com/jarvis360/revenuecore/internal/migration"
	subscriptionrepo "github.com/jarvis360/revenuecore/internal/subscription/repository"
	uploaddomain "github.com/jarvis360/revenuecore/internal/upload/domain"
	uploadrepo "github.com/jarvis360/revenuecore/internal/upload/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migration.AutoMigrate(db))
	return db
}

func newTestImporter(t *testing.T, db *gorm.DB, blobs blob.Store) *Importer {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	imp := NewImporter(
		db,
		zap.NewNop(),
		node,
		clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		blobs,
		nil,
		customerrepo.Provide(),
		subscriptionrepo.Provide(),
	)
	imp.sleep = func(time.Duration) {}
	return imp
}

func seedUpload(t *testing.T, db *gorm.DB, orgID snowflake.ID, storagePath string) *uploaddomain.CSVUpload {
	t.Helper()
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	upload := &uploaddomain.CSVUpload{
		ID:          node.Generate(),
		OrgID:       orgID,
		Filename:    "billing.csv",
		StoragePath: storagePath,
		Status:      uploaddomain.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, uploadrepo.Provide().Insert(context.Background(), db, upload))
	return upload
}

func TestImportUploadCreatesSubscriptions(t *testing.T) {
	db := setupTestDB(t)
	blobs := blob.NewMemStore()
	csv := "customer_id,mrr,signup_date\n" +
		"alice,$100.00,2024-01-15\n" +
		"bob,200,2024-02-20\n" +
		"carol,not-a-number,bogus\n"
	require.NoError(t, blobs.Put(context.Background(), "u1.csv", []byte(csv)))

	upload := seedUpload(t, db, 42, "u1.csv")
	imp := newTestImporter(t, db, blobs)

	created, err := imp.ImportUpload(context.Background(), upload)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	var customers []customerdomain.Customer
	require.NoError(t, db.Raw(`SELECT * FROM customers ORDER BY external_id`).Scan(&customers).Error)
	require.Len(t, customers, 3)
	assert.Equal(t, "alice", customers[0].ExternalID)
	assert.Equal(t, snowflake.ID(42), customers[0].OrgID)

	rows, err := subscriptionrepo.Provide().ListForInsights(context.Background(), db, 42, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "100", rows[0].MRR.String())
	assert.Equal(t, "200", rows[1].MRR.String())
	assert.True(t, rows[2].MRR.IsZero())
	require.NotNil(t, rows[0].StartDate)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), rows[0].StartDate.UTC())
	assert.Nil(t, rows[2].StartDate)
}

func TestImportUploadReusesCustomerForRepeatedID(t *testing.T) {
	db := setupTestDB(t)
	blobs := blob.NewMemStore()
	csv := "id,amount\nacme,10\nacme,20\n"
	require.NoError(t, blobs.Put(context.Background(), "u2.csv", []byte(csv)))

	upload := seedUpload(t, db, 7, "u2.csv")
	imp := newTestImporter(t, db, blobs)

	created, err := imp.ImportUpload(context.Background(), upload)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	var customerCount int64
	require.NoError(t, db.Raw(`SELECT COUNT(1) FROM customers`).Scan(&customerCount).Error)
	assert.Equal(t, int64(1), customerCount)

	count, err := subscriptionrepo.Provide().CountByUpload(context.Background(), db, upload.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestImportUploadUsesNameColumnForCustomerName(t *testing.T) {
	db := setupTestDB(t)
	blobs := blob.NewMemStore()
	csv := "customer_id,name,mrr\ncust-1,Acme Corp,50\n"
	require.NoError(t, blobs.Put(context.Background(), "u3.csv", []byte(csv)))

	upload := seedUpload(t, db, 7, "u3.csv")
	imp := newTestImporter(t, db, blobs)

	_, err := imp.ImportUpload(context.Background(), upload)
	require.NoError(t, err)

	customer, err := customerrepo.Provide().FindByExternalID(context.Background(), db, 7, "cust-1")
	require.NoError(t, err)
	require.NotNil(t, customer)
	assert.Equal(t, "Acme Corp", customer.Name)
}

func TestImportUploadMissingBlob(t *testing.T) {
	db := setupTestDB(t)
	upload := seedUpload(t, db, 7, "nope.csv")
	imp := newTestImporter(t, db, blob.NewMemStore())

	created, err := imp.ImportUpload(context.Background(), upload)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestImportUploadHeaderOnly(t *testing.T) {
	db := setupTestDB(t)
	blobs := blob.NewMemStore()
	require.NoError(t, blobs.Put(context.Background(), "u4.csv", []byte("id,mrr\n")))

	upload := seedUpload(t, db, 7, "u4.csv")
	imp := newTestImporter(t, db, blobs)

	created, err := imp.ImportUpload(context.Background(), upload)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestImportUploadSurfacesWriteFailure(t *testing.T) {
	db := setupTestDB(t)
	blobs := blob.NewMemStore()
	require.NoError(t, blobs.Put(context.Background(), "u5.csv", []byte("id,mrr\na,10\n")))

	upload := seedUpload(t, db, 7, "u5.csv")
	imp := newTestImporter(t, db, blobs)

	require.NoError(t, db.Exec(`DROP TABLE subscriptions`).Error)

	created, err := imp.ImportUpload(context.Background(), upload)
	assert.Error(t, err)
	assert.Zero(t, created)
}
