package processors_test

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/consts"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/dto"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/events"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/processors"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/config"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db/repo"
	"github.com/sitesmith-ai/sitesmith-backend/internal/testinfra"
	dbs "github.com/sitesmith-ai/sitesmith-backend/pkg/db"
	"github.com/stretchr/testify/require"
)

var uowFactory *dbs.UOWFactory

func TestMain(m *testing.M) {
	uowFactory = dbs.NewUoWFactory(testinfra.Pool)
	code := m.Run()

	cleanup(context.Background())

	os.Exit(code)
}

type fakeRenderer struct {
	html        string
	description string
	err         error
	calls       int
}

func (f *fakeRenderer) RenderWebsite(ctx context.Context, customer db.Customer, changeRequest string) (dto.RenderedSite, error) {
	f.calls++
	if f.err != nil {
		return dto.RenderedSite{}, f.err
	}
	return dto.RenderedSite{HTML: f.html, Description: f.description}, nil
}

func workflowConfig() *config.WorkflowConfig {
	return &config.WorkflowConfig{
		ReviewBaseURL:   "http://localhost:8080",
		RevisionFormURL: "http://localhost:3000/revise",
		Cooldown:        time.Hour,
	}
}

func seedRequest(t *testing.T, status consts.RequestStatus) (uuid.UUID, uint64) {
	t.Helper()
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)

	ctx := context.Background()
	customer, err := repo.NewCustomerRepo(tx).FindOrCreateByEmail(ctx, uuid.NewString()+"@biz.com", "Acme Flowers")
	require.NoError(t, err)
	requestID, err := repo.NewRequestRepo(tx).Insert(ctx, db.CustomizationRequest{
		CustomerID:  customer.ID,
		Type:        consts.RequestTypeRevision,
		RequestText: "make the header blue",
		Status:      consts.RequestStatusProcessing,
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)
	if status != consts.RequestStatusProcessing {
		_, err = tx.Exec(ctx, "UPDATE sitesmith.customization_requests SET status = $1 WHERE id = $2", status, requestID)
		require.NoError(t, err)
	}
	require.NoError(t, uow.Commit())

	return customer.ID, requestID
}

func mailEventCount(t *testing.T, customerID uuid.UUID, mailType string) int {
	t.Helper()
	var count int
	err := testinfra.Pool.QueryRow(context.Background(),
		`SELECT count(*) FROM sitesmith.outbox
		WHERE event = 'SendMail' AND payload->>'CustomerID' = $1 AND payload->>'MailType' = $2`,
		customerID.String(), mailType).Scan(&count)
	require.NoError(t, err)
	return count
}

func TestHandleAdvancesRequestToPendingApproval(t *testing.T) {
	customerID, requestID := seedRequest(t, consts.RequestStatusProcessing)
	renderer := &fakeRenderer{html: "<html>blue</html>", description: "Header recolored"}
	processor := processors.NewRegenerateWebsite(uowFactory, renderer, workflowConfig())

	ctx := context.Background()
	uow, err := processor.Handle(ctx, events.RegenerationRequested{RequestID: requestID, CustomerID: customerID})
	require.NoError(t, err)
	require.NotNil(t, uow)
	require.NoError(t, uow.Commit())

	checkUow := uowFactory.GetUoW()
	tx, err := checkUow.Begin()
	require.NoError(t, err)
	defer checkUow.Rollback()

	request, err := repo.NewRequestRepo(tx).GetByID(ctx, requestID)
	require.NoError(t, err)
	require.Equal(t, consts.RequestStatusPendingApproval, request.Status)
	require.NotNil(t, request.CompletedAt)
	require.NotNil(t, request.VersionID)

	version, err := repo.NewVersionRepo(tx).GetByID(ctx, *request.VersionID)
	require.NoError(t, err)
	require.Equal(t, "<html>blue</html>", version.HTML)
	require.Equal(t, 1, version.VersionNumber)
	require.False(t, version.IsCurrent, "a rendered version must not be customer-visible before approval")

	require.Equal(t, 1, mailEventCount(t, customerID, "ReviewRequested"))
}

func TestHandleLeavesRequestProcessingWhenRendererFails(t *testing.T) {
	customerID, requestID := seedRequest(t, consts.RequestStatusProcessing)
	renderer := &fakeRenderer{err: errors.New("model overloaded")}
	processor := processors.NewRegenerateWebsite(uowFactory, renderer, workflowConfig())

	ctx := context.Background()
	uow, err := processor.Handle(ctx, events.RegenerationRequested{RequestID: requestID, CustomerID: customerID})
	require.Error(t, err)
	require.NotNil(t, uow)
	require.NoError(t, uow.Commit())

	checkUow := uowFactory.GetUoW()
	tx, err := checkUow.Begin()
	require.NoError(t, err)
	defer checkUow.Rollback()

	request, err := repo.NewRequestRepo(tx).GetByID(ctx, requestID)
	require.NoError(t, err)
	require.Equal(t, consts.RequestStatusProcessing, request.Status, "failed generation stays retryable")
	require.Nil(t, request.VersionID)

	var versionCount int
	err = tx.QueryRow(ctx, "SELECT count(*) FROM sitesmith.website_versions WHERE customer_id = $1", customerID).Scan(&versionCount)
	require.NoError(t, err)
	require.Equal(t, 0, versionCount)

	require.Equal(t, 1, mailEventCount(t, customerID, "GenerationFailed"))
	require.Equal(t, 0, mailEventCount(t, customerID, "ReviewRequested"))
}

func TestHandleSkipsStaleEvent(t *testing.T) {
	customerID, requestID := seedRequest(t, consts.RequestStatusPendingApproval)
	renderer := &fakeRenderer{html: "<html></html>"}
	processor := processors.NewRegenerateWebsite(uowFactory, renderer, workflowConfig())

	uow, err := processor.Handle(context.Background(), events.RegenerationRequested{RequestID: requestID, CustomerID: customerID})
	require.NoError(t, err)
	require.Nil(t, uow)
	require.Equal(t, 0, renderer.calls, "stale events must not reach the renderer")
}

func TestHandleRejectsUnknownRequest(t *testing.T) {
	renderer := &fakeRenderer{html: "<html></html>"}
	processor := processors.NewRegenerateWebsite(uowFactory, renderer, workflowConfig())

	_, err := processor.Handle(context.Background(), events.RegenerationRequested{RequestID: 999999, CustomerID: uuid.New()})
	require.Error(t, err)
}

func cleanup(ctx context.Context) {
	_, err := testinfra.Pool.Exec(ctx, `
		DELETE FROM sitesmith.customization_requests;
		DELETE FROM sitesmith.website_versions;
		DELETE FROM sitesmith.outbox;
		DELETE FROM sitesmith.customers;
	`)
	if err != nil {
		log.Panicf("err cleaning up processors test %v", err)
	}
}
