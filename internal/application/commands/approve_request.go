package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/consts"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/dto"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/errs"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/events"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/interfaces"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/config"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db/repo"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/mail"
	dbs "github.com/sitesmith-ai/sitesmith-backend/pkg/db"
)

// ApproveRequest is the operator sign-off. It publishes the reviewed version,
// flips is_current and moves the request to its terminal status, all in one
// transaction so the customer never sees an unapproved version.
type ApproveRequest struct {
	uowFactory *dbs.UOWFactory
	publisher  interfaces.Publisher
	cfg        *config.WorkflowConfig
}

func NewApproveRequest(factory *dbs.UOWFactory, publisher interfaces.Publisher, cfg *config.WorkflowConfig) *ApproveRequest {
	return &ApproveRequest{uowFactory: factory, publisher: publisher, cfg: cfg}
}

func (c *ApproveRequest) Execute(customerID uuid.UUID, requestID *uint64) (*dto.ApproveResponse, error) {
	ctx := context.Background()
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback()
	}()

	requestRepo := repo.NewRequestRepo(tx)
	request, err := resolveRequest(ctx, requestRepo, customerID, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status == consts.RequestStatusApproved {
		// second approve is a no-op, nothing is resent
		return nil, errs.ConflictError{Err: fmt.Errorf("request %d already handled", request.ID)}
	}
	if !consts.CanTransition(request.Status, consts.RequestStatusApproved) {
		return nil, errs.ConflictError{Err: fmt.Errorf("request %d is %s, nothing to approve", request.ID, request.Status)}
	}
	if request.VersionID == nil {
		return nil, errs.ConflictError{Err: fmt.Errorf("request %d has no version to approve", request.ID)}
	}

	customerRepo := repo.NewCustomerRepo(tx)
	customer, err := customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	versionRepo := repo.NewVersionRepo(tx)
	version, err := versionRepo.GetByID(ctx, *request.VersionID)
	if err != nil {
		return nil, err
	}

	// the guarded update is the arbiter between concurrent operators
	approved, err := requestRepo.Approve(ctx, request.ID, time.Now())
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, errs.ConflictError{Err: fmt.Errorf("request %d already handled", request.ID)}
	}

	siteURL, err := c.publisher.PublishSite(ctx, customer.ID, version.HTML)
	if err != nil {
		return nil, fmt.Errorf("err publishing site for %v: %v", customer.ID, err)
	}
	if err = versionRepo.SetCurrent(ctx, customer.ID, version.ID); err != nil {
		return nil, err
	}
	if err = customerRepo.SetWebsiteURL(ctx, customer.ID, siteURL); err != nil {
		return nil, err
	}

	eventRepo := repo.NewEventRepo(tx)
	if err = eventRepo.InsertEvent(ctx, c.deliveryMail(customer, request, siteURL)); err != nil {
		return nil, err
	}

	if err = uow.Commit(); err != nil {
		return nil, err
	}
	slog.Info("request approved", "requestID", request.ID, "customerID", customer.ID, "version", version.VersionNumber)

	return &dto.ApproveResponse{RequestID: request.ID, SiteURL: siteURL}, nil
}

func (c *ApproveRequest) deliveryMail(customer *db.Customer, request *db.CustomizationRequest, siteURL string) events.SendMail {
	year := time.Now().Format("2006")
	if customer.IsPaying && request.Type == consts.RequestTypeInitialPurchase {
		return events.SendMail{
			CustomerID: customer.ID.String(),
			MailType:   string(mail.PaidWelcome),
			Data: mail.PaidWelcomeData{
				BusinessName: customer.BusinessName,
				SiteURL:      siteURL,
				RevisionURL:  c.cfg.RevisionFormURL,
				Year:         year,
			},
		}
	}
	return events.SendMail{
		CustomerID: customer.ID.String(),
		MailType:   string(mail.RevisionDelivered),
		Data: mail.RevisionDeliveredData{
			BusinessName: customer.BusinessName,
			SiteURL:      siteURL,
			Year:         year,
		},
	}
}

// resolveRequest loads a request by id, or falls back to the customer's
// single active request when no id is given. The fallback is unambiguous only
// because at most one request per customer is ever non-terminal.
func resolveRequest(ctx context.Context, requestRepo *repo.RequestRepo, customerID uuid.UUID, requestID *uint64) (*db.CustomizationRequest, error) {
	if requestID != nil {
		request, err := requestRepo.GetByID(ctx, *requestID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFoundError{Err: fmt.Errorf("no request %d", *requestID)}
		}
		if err != nil {
			return nil, err
		}
		if request.CustomerID != customerID {
			return nil, errs.NotFoundError{Err: fmt.Errorf("request %d does not belong to customer %v", *requestID, customerID)}
		}
		return request, nil
	}

	request, err := requestRepo.GetActiveByCustomer(ctx, customerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFoundError{Err: fmt.Errorf("no active request for customer %v", customerID)}
	}
	if err != nil {
		return nil, err
	}
	return request, nil
}
