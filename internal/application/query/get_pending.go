package query

import (
	"context"
	"fmt"

	"github.com/sitesmith-ai/sitesmith-backend/internal/application/consts"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/dto"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/config"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db/repo"
	dbs "github.com/sitesmith-ai/sitesmith-backend/pkg/db"
)

// GetPending backs the operator queue: every request awaiting review, split
// into first-time generations and ongoing revisions.
type GetPending struct {
	uowFactory *dbs.UOWFactory
	cfg        *config.WorkflowConfig
}

func NewGetPending(factory *dbs.UOWFactory, cfg *config.WorkflowConfig) *GetPending {
	return &GetPending{uowFactory: factory, cfg: cfg}
}

func (q *GetPending) Query() (*dto.PendingReviewsResponse, error) {
	ctx := context.Background()
	uow := q.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback()
	}()

	requests, err := repo.NewRequestRepo(tx).ListByStatus(ctx, consts.RequestStatusPendingApproval)
	if err != nil {
		return nil, err
	}

	customerRepo := repo.NewCustomerRepo(tx)
	response := &dto.PendingReviewsResponse{
		InitialPurchases: []dto.PendingReview{},
		Revisions:        []dto.PendingReview{},
	}
	for _, request := range requests {
		customer, err := customerRepo.GetByID(ctx, request.CustomerID)
		if err != nil {
			return nil, err
		}
		review := dto.PendingReview{
			RequestID:    request.ID,
			CustomerID:   request.CustomerID,
			BusinessName: customer.BusinessName,
			Email:        customer.Email,
			RequestType:  request.Type,
			RequestText:  request.RequestText,
			CreatedAt:    request.CreatedAt,
			ReviewURL: fmt.Sprintf("%s/review?customerId=%s&requestId=%d",
				q.cfg.ReviewBaseURL, request.CustomerID, request.ID),
		}
		if request.Type == consts.RequestTypeInitialPurchase {
			response.InitialPurchases = append(response.InitialPurchases, review)
		} else {
			response.Revisions = append(response.Revisions, review)
		}
	}

	return response, nil
}
