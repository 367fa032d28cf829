package repo_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/consts"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db/repo"
	"github.com/sitesmith-ai/sitesmith-backend/internal/testinfra"
	dbs "github.com/sitesmith-ai/sitesmith-backend/pkg/db"
	"github.com/stretchr/testify/require"
)

var uowFactory *dbs.UOWFactory

func TestMain(m *testing.M) {
	ctx := context.Background()

	uowFactory = dbs.NewUoWFactory(testinfra.Pool)
	code := m.Run()

	cleanup(ctx)

	os.Exit(code)
}

func newCustomer(t *testing.T, customerRepo *repo.CustomerRepo) *db.Customer {
	t.Helper()
	customer, err := customerRepo.FindOrCreateByEmail(context.Background(),
		uuid.NewString()+"@example.com", "Test Biz")
	require.NoError(t, err)
	return customer
}

func TestFindOrCreateByEmailReturnsSameRowTwice(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	customerRepo := repo.NewCustomerRepo(tx)

	first, err := customerRepo.FindOrCreateByEmail(ctx, "owner@biz.com", "Biz")
	require.NoError(t, err)
	second, err := customerRepo.FindOrCreateByEmail(ctx, "owner@biz.com", "Other Name")
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
}

func TestActiveRequestIndexForbidsSecondActiveRow(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	customer := newCustomer(t, repo.NewCustomerRepo(tx))
	requestRepo := repo.NewRequestRepo(tx)

	_, err = requestRepo.Insert(ctx, db.CustomizationRequest{
		CustomerID:  customer.ID,
		Type:        consts.RequestTypeRevision,
		RequestText: "make the header blue",
		Status:      consts.RequestStatusProcessing,
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)

	_, err = requestRepo.Insert(ctx, db.CustomizationRequest{
		CustomerID:  customer.ID,
		Type:        consts.RequestTypeRevision,
		RequestText: "make it red",
		Status:      consts.RequestStatusProcessing,
		CreatedAt:   time.Now(),
	})
	require.Error(t, err, "partial unique index must reject a second active request")
}

func TestMarkPendingApprovalOnlyAdvancesProcessingRequests(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	customer := newCustomer(t, repo.NewCustomerRepo(tx))
	requestRepo := repo.NewRequestRepo(tx)

	id, err := requestRepo.Insert(ctx, db.CustomizationRequest{
		CustomerID:  customer.ID,
		Type:        consts.RequestTypeRevision,
		RequestText: "make the header blue",
		Status:      consts.RequestStatusProcessing,
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)

	advanced, err := requestRepo.MarkPendingApproval(ctx, id, time.Now())
	require.NoError(t, err)
	require.True(t, advanced)

	// duplicate worker completion is a no-op
	advanced, err = requestRepo.MarkPendingApproval(ctx, id, time.Now())
	require.NoError(t, err)
	require.False(t, advanced)

	request, err := requestRepo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, consts.RequestStatusPendingApproval, request.Status)
	require.NotNil(t, request.CompletedAt)
}

func TestApproveIsGuardedAgainstConcurrentOperators(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	customer := newCustomer(t, repo.NewCustomerRepo(tx))
	requestRepo := repo.NewRequestRepo(tx)

	id, err := requestRepo.Insert(ctx, db.CustomizationRequest{
		CustomerID:  customer.ID,
		Type:        consts.RequestTypeRevision,
		RequestText: "make the header blue",
		Status:      consts.RequestStatusProcessing,
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)

	_, err = requestRepo.MarkPendingApproval(ctx, id, time.Now())
	require.NoError(t, err)

	approved, err := requestRepo.Approve(ctx, id, time.Now())
	require.NoError(t, err)
	require.True(t, approved)

	approved, err = requestRepo.Approve(ctx, id, time.Now())
	require.NoError(t, err)
	require.False(t, approved, "second operator must see a no-op")
}

func TestReopenAppendsFeedbackAndClearsApproval(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	customer := newCustomer(t, repo.NewCustomerRepo(tx))
	requestRepo := repo.NewRequestRepo(tx)

	id, err := requestRepo.Insert(ctx, db.CustomizationRequest{
		CustomerID:  customer.ID,
		Type:        consts.RequestTypeRevision,
		RequestText: "make the header blue",
		Status:      consts.RequestStatusProcessing,
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)
	_, err = requestRepo.MarkPendingApproval(ctx, id, time.Now())
	require.NoError(t, err)

	reopened, err := requestRepo.Reopen(ctx, id, "(Admin feedback) make the header red instead")
	require.NoError(t, err)
	require.True(t, reopened)

	request, err := requestRepo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, consts.RequestStatusProcessing, request.Status)
	require.Nil(t, request.ApprovedAt)
	require.Contains(t, request.RequestText, "make the header blue")
	require.Contains(t, request.RequestText, "make the header red instead")
}

func TestVersionNumbersAreSequentialPerCustomer(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	customerRepo := repo.NewCustomerRepo(tx)
	customer := newCustomer(t, customerRepo)
	other := newCustomer(t, customerRepo)
	versionRepo := repo.NewVersionRepo(tx)

	for i := 1; i <= 3; i++ {
		version, err := versionRepo.Insert(ctx, db.WebsiteVersion{
			CustomerID: customer.ID,
			HTML:       "<html></html>",
			CreatedAt:  time.Now(),
		})
		require.NoError(t, err)
		require.Equal(t, i, version.VersionNumber)
		require.False(t, version.IsCurrent)
	}

	// numbering is per customer, not global
	version, err := versionRepo.Insert(ctx, db.WebsiteVersion{
		CustomerID: other.ID,
		HTML:       "<html></html>",
		CreatedAt:  time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, 1, version.VersionNumber)
}

func TestSetCurrentKeepsAtMostOneCurrentVersion(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	customer := newCustomer(t, repo.NewCustomerRepo(tx))
	versionRepo := repo.NewVersionRepo(tx)

	v1, err := versionRepo.Insert(ctx, db.WebsiteVersion{CustomerID: customer.ID, HTML: "<html>1</html>", CreatedAt: time.Now()})
	require.NoError(t, err)
	v2, err := versionRepo.Insert(ctx, db.WebsiteVersion{CustomerID: customer.ID, HTML: "<html>2</html>", CreatedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, versionRepo.SetCurrent(ctx, customer.ID, v1.ID))
	require.NoError(t, versionRepo.SetCurrent(ctx, customer.ID, v2.ID))

	var currentCount int
	err = tx.QueryRow(ctx,
		"SELECT count(*) FROM sitesmith.website_versions WHERE customer_id = $1 AND is_current", customer.ID).Scan(&currentCount)
	require.NoError(t, err)
	require.Equal(t, 1, currentCount)

	current, err := versionRepo.GetCurrent(ctx, customer.ID)
	require.NoError(t, err)
	require.Equal(t, v2.ID, current.ID)
}

func TestLinkVersionIsLastWriteWins(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	customer := newCustomer(t, repo.NewCustomerRepo(tx))
	requestRepo := repo.NewRequestRepo(tx)
	versionRepo := repo.NewVersionRepo(tx)

	id, err := requestRepo.Insert(ctx, db.CustomizationRequest{
		CustomerID:  customer.ID,
		Type:        consts.RequestTypeRevision,
		RequestText: "make the header blue",
		Status:      consts.RequestStatusProcessing,
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)

	v1, err := versionRepo.Insert(ctx, db.WebsiteVersion{CustomerID: customer.ID, HTML: "<html>1</html>", CreatedAt: time.Now()})
	require.NoError(t, err)
	v2, err := versionRepo.Insert(ctx, db.WebsiteVersion{CustomerID: customer.ID, HTML: "<html>2</html>", CreatedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, requestRepo.LinkVersion(ctx, id, v1.ID))
	require.NoError(t, requestRepo.LinkVersion(ctx, id, v2.ID))

	request, err := requestRepo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, request.VersionID)
	require.Equal(t, v2.ID, *request.VersionID)
}

func cleanup(ctx context.Context) {
	_, err := testinfra.Pool.Exec(ctx, `
		DELETE FROM sitesmith.customization_requests;
		DELETE FROM sitesmith.website_versions;
		DELETE FROM sitesmith.customers;
		DELETE FROM sitesmith.outbox;
	`)
	if err != nil {
		log.Panicf("err cleaning up repo test %v", err)
	}
}
