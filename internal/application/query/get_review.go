package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/dto"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/errs"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db/repo"
	dbs "github.com/sitesmith-ai/sitesmith-backend/pkg/db"
)

// GetReview renders one pending version for the operator: request metadata
// plus the generated HTML. Customer delivery happens elsewhere; this view is
// operator-only, so unapproved versions never leak.
type GetReview struct {
	uowFactory *dbs.UOWFactory
}

func NewGetReview(factory *dbs.UOWFactory) *GetReview {
	return &GetReview{uowFactory: factory}
}

func (q *GetReview) Query(customerID uuid.UUID, requestID *uint64) (*dto.ReviewDetail, error) {
	ctx := context.Background()
	uow := q.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback()
	}()

	requestRepo := repo.NewRequestRepo(tx)
	var request *db.CustomizationRequest
	var lookupErr error
	if requestID != nil {
		request, lookupErr = requestRepo.GetByID(ctx, *requestID)
	} else {
		request, lookupErr = requestRepo.GetActiveByCustomer(ctx, customerID)
	}
	if errors.Is(lookupErr, pgx.ErrNoRows) {
		return nil, errs.NotFoundError{Err: fmt.Errorf("no reviewable request for customer %v", customerID)}
	}
	if lookupErr != nil {
		return nil, lookupErr
	}
	if request.CustomerID != customerID {
		return nil, errs.NotFoundError{Err: fmt.Errorf("request %d does not belong to customer %v", request.ID, customerID)}
	}
	if request.VersionID == nil {
		return nil, errs.NotFoundError{Err: fmt.Errorf("request %d has no generated version yet", request.ID)}
	}

	customer, err := repo.NewCustomerRepo(tx).GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	version, err := repo.NewVersionRepo(tx).GetByID(ctx, *request.VersionID)
	if err != nil {
		return nil, err
	}

	return &dto.ReviewDetail{
		RequestID:          request.ID,
		CustomerID:         request.CustomerID,
		BusinessName:       customer.BusinessName,
		RequestType:        request.Type,
		RequestText:        request.RequestText,
		Status:             request.Status,
		VersionID:          version.ID,
		VersionNumber:      version.VersionNumber,
		VersionDescription: version.Description,
		HTML:               version.HTML,
		CompletedAt:        request.CompletedAt,
	}, nil
}
