package processors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/consts"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/events"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/interfaces"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/config"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db/repo"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/mail"
	dbs "github.com/sitesmith-ai/sitesmith-backend/pkg/db"
	shared "github.com/sitesmith-ai/sitesmith-backend/pkg/interfaces"
)

// RegenerateWebsite is the asynchronous pipeline step between an entry point
// and the review gate: call the renderer, persist the produced version and
// hand the request over to the operator.
type RegenerateWebsite struct {
	uowFactory *dbs.UOWFactory
	renderer   interfaces.Renderer
	cfg        *config.WorkflowConfig
}

func NewRegenerateWebsite(factory *dbs.UOWFactory, renderer interfaces.Renderer, cfg *config.WorkflowConfig) *RegenerateWebsite {
	return &RegenerateWebsite{uowFactory: factory, renderer: renderer, cfg: cfg}
}

func (c *RegenerateWebsite) Handle(ctx context.Context, event events.RegenerationRequested) (shared.UoW, error) {
	request, customer, err := c.loadRequest(ctx, event)
	if err != nil {
		return nil, err
	}
	if request == nil {
		// request moved on since the event was enqueued, duplicate or stale
		slog.Info("skipping stale regeneration event", "requestID", event.RequestID)
		return nil, nil
	}

	// no transaction is held across the renderer call
	rendered, renderErr := c.renderer.RenderWebsite(ctx, *customer, request.RequestText)

	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, err
	}
	eventRepo := repo.NewEventRepo(tx)

	if renderErr != nil {
		// request stays in processing so it can be re-triggered; a human
		// gets the error, the customer only ever saw the acknowledgment
		slog.Error("renderer failed", "requestID", request.ID, "err", renderErr)
		err = eventRepo.InsertEvent(ctx, events.SendMail{
			CustomerID: customer.ID.String(),
			MailType:   string(mail.GenerationFailed),
			Data: mail.GenerationFailedData{
				BusinessName: customer.BusinessName,
				CustomerID:   customer.ID.String(),
				RequestID:    request.ID,
				RequestText:  request.RequestText,
				Error:        renderErr.Error(),
			},
		})
		if err != nil {
			return uow, errors.Join(renderErr, err)
		}
		return uow, renderErr
	}

	versionRepo := repo.NewVersionRepo(tx)
	version, err := versionRepo.Insert(ctx, db.WebsiteVersion{
		CustomerID:  customer.ID,
		HTML:        rendered.HTML,
		Description: rendered.Description,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return uow, err
	}

	requestRepo := repo.NewRequestRepo(tx)
	if err = requestRepo.LinkVersion(ctx, request.ID, version.ID); err != nil {
		return uow, err
	}
	advanced, err := requestRepo.MarkPendingApproval(ctx, request.ID, time.Now())
	if err != nil {
		return uow, err
	}
	if !advanced {
		// a duplicate run already advanced the request; keep the newer
		// version linked but do not notify the operator twice
		slog.Warn("request already pending approval", "requestID", request.ID)
		return uow, nil
	}

	err = eventRepo.InsertEvent(ctx, events.SendMail{
		CustomerID: customer.ID.String(),
		MailType:   string(mail.ReviewRequested),
		Data: mail.ReviewRequestedData{
			BusinessName: customer.BusinessName,
			CustomerID:   customer.ID.String(),
			RequestID:    request.ID,
			RequestText:  request.RequestText,
			ReviewURL: fmt.Sprintf("%s/review?customerId=%s&requestId=%d",
				c.cfg.ReviewBaseURL, customer.ID, request.ID),
		},
	})
	if err != nil {
		return uow, err
	}

	slog.Info("website version generated", "requestID", request.ID, "versionID", version.ID, "number", version.VersionNumber)
	return uow, nil
}

// loadRequest reads the request and its customer in a short transaction.
// A nil request means the event is stale and should be acked without work.
func (c *RegenerateWebsite) loadRequest(ctx context.Context, event events.RegenerationRequested) (*db.CustomizationRequest, *db.Customer, error) {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = uow.Rollback()
	}()

	request, err := repo.NewRequestRepo(tx).GetByID(ctx, event.RequestID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, fmt.Errorf("no request %d", event.RequestID)
	}
	if err != nil {
		return nil, nil, err
	}
	if request.Status != consts.RequestStatusProcessing {
		return nil, nil, nil
	}

	customer, err := repo.NewCustomerRepo(tx).GetByID(ctx, request.CustomerID)
	if err != nil {
		return nil, nil, err
	}
	if err = uow.Commit(); err != nil {
		return nil, nil, err
	}

	return request, customer, nil
}
