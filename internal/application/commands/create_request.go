package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/consts"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/dto"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/errs"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/events"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/config"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db/repo"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/mail"
	dbs "github.com/sitesmith-ai/sitesmith-backend/pkg/db"
)

// CreateRequest is the customer-facing entry point: it records a revision
// request and enqueues regeneration. The HTTP caller gets an answer
// immediately; rendering happens via the outbox.
type CreateRequest struct {
	uowFactory *dbs.UOWFactory
	cfg        *config.WorkflowConfig
}

func NewCreateRequest(factory *dbs.UOWFactory, cfg *config.WorkflowConfig) *CreateRequest {
	return &CreateRequest{uowFactory: factory, cfg: cfg}
}

func (c *CreateRequest) Execute(req *dto.CreateRequestRequest) (uint64, error) {
	ctx := context.Background()
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = uow.Rollback()
	}()

	customerRepo := repo.NewCustomerRepo(tx)
	var customer *db.Customer
	if req.CustomerID != nil {
		customer, err = customerRepo.GetByID(ctx, *req.CustomerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.NotFoundError{Err: fmt.Errorf("no customer %v", *req.CustomerID)}
		}
	} else {
		// pre-purchase prospects only give an email
		customer, err = customerRepo.FindOrCreateByEmail(ctx, req.Email, req.Email)
	}
	if err != nil {
		return 0, err
	}

	requestRepo := repo.NewRequestRepo(tx)
	latest, err := requestRepo.GetLatestByCustomer(ctx, customer.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	if latest != nil && time.Since(latest.CreatedAt) < c.cfg.Cooldown {
		return 0, errs.DuplicateSubmissionError{
			Err: fmt.Errorf("a request for %v was already submitted at %v, try again later", req.Email, latest.CreatedAt),
		}
	}

	requestID, err := upsertActiveRequest(ctx, tx, customer.ID, consts.RequestTypeRevision, req.Description)
	if err != nil {
		return 0, err
	}

	eventRepo := repo.NewEventRepo(tx)
	err = eventRepo.InsertEvent(ctx, events.RegenerationRequested{
		RequestID:  requestID,
		CustomerID: customer.ID,
	})
	if err != nil {
		return 0, err
	}
	// best-effort acknowledgment, delivered out of band
	err = eventRepo.InsertEvent(ctx, events.SendMail{
		CustomerID: customer.ID.String(),
		MailType:   string(mail.RequestReceived),
		Data: mail.RequestReceivedData{
			BusinessName: customer.BusinessName,
			RequestText:  req.Description,
			Year:         time.Now().Format("2006"),
		},
	})
	if err != nil {
		return 0, err
	}

	if err = uow.Commit(); err != nil {
		return 0, err
	}
	return requestID, nil
}

// upsertActiveRequest inserts a new request unless the customer already has an
// active one, in which case the description is coalesced into the existing
// row. The insert targets the partial unique index on active requests, so two
// near-simultaneous submissions cannot produce duplicate workflow tokens.
func upsertActiveRequest(ctx context.Context, tx pgx.Tx, customerID uuid.UUID, reqType consts.RequestType, text string) (uint64, error) {
	var requestID uint64
	err := tx.QueryRow(ctx,
		`INSERT INTO sitesmith.customization_requests (customer_id, request_type, request_text, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (customer_id) WHERE status IN ('processing', 'pending_approval') DO NOTHING
		RETURNING id`,
		customerID, reqType, text, consts.RequestStatusProcessing, time.Now()).Scan(&requestID)
	if err == nil {
		return requestID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("insert failed: %v", err)
	}

	requestRepo := repo.NewRequestRepo(tx)
	active, err := requestRepo.GetActiveByCustomer(ctx, customerID)
	if err != nil {
		return 0, fmt.Errorf("active request vanished during coalesce: %v", err)
	}
	if err = requestRepo.AppendText(ctx, active.ID, text); err != nil {
		return 0, err
	}

	return active.ID, nil
}
