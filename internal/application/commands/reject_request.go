package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/consts"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/errs"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/events"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db/repo"
	dbs "github.com/sitesmith-ai/sitesmith-backend/pkg/db"
)

// RejectRequest is the admin regeneration entry point: operator feedback is
// appended to the request text and the request goes back through the worker.
// The rejected version stays on record; only the link moves on the next run.
type RejectRequest struct {
	uowFactory *dbs.UOWFactory
}

func NewRejectRequest(factory *dbs.UOWFactory) *RejectRequest {
	return &RejectRequest{uowFactory: factory}
}

func (c *RejectRequest) Execute(customerID uuid.UUID, requestID *uint64, feedback string) (uint64, error) {
	ctx := context.Background()
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = uow.Rollback()
	}()

	requestRepo := repo.NewRequestRepo(tx)
	request, err := resolveRequest(ctx, requestRepo, customerID, requestID)
	if err != nil {
		return 0, err
	}

	switch request.Status {
	case consts.RequestStatusPendingApproval:
		reopened, err := requestRepo.Reopen(ctx, request.ID, "(Admin feedback) "+feedback)
		if err != nil {
			return 0, err
		}
		if !reopened {
			return 0, errs.ConflictError{Err: fmt.Errorf("request %d already handled", request.ID)}
		}
	case consts.RequestStatusProcessing:
		// stuck request: a failed regeneration leaves the row in processing,
		// re-triggering just enqueues another worker run
		if feedback != "" {
			if err = requestRepo.AppendText(ctx, request.ID, "(Admin feedback) "+feedback); err != nil {
				return 0, err
			}
		}
	default:
		return 0, errs.ConflictError{Err: fmt.Errorf("request %d is %s, cannot regenerate", request.ID, request.Status)}
	}

	eventRepo := repo.NewEventRepo(tx)
	err = eventRepo.InsertEvent(ctx, events.RegenerationRequested{
		RequestID:  request.ID,
		CustomerID: customerID,
	})
	if err != nil {
		return 0, err
	}

	if err = uow.Commit(); err != nil {
		return 0, err
	}
	slog.Info("request sent back for regeneration", "requestID", request.ID, "customerID", customerID)

	return request.ID, nil
}
