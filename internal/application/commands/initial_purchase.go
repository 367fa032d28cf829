package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/consts"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/errs"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/events"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db/repo"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/mail"
	dbs "github.com/sitesmith-ai/sitesmith-backend/pkg/db"
)

const initialRequestText = "Initial website generation"

// InitialPurchase is fired once per paid signup, from the payment webhook.
// It marks the customer as paying and funnels the purchase into the same
// request state machine as customer revisions.
type InitialPurchase struct {
	uowFactory *dbs.UOWFactory
}

func NewInitialPurchase(factory *dbs.UOWFactory) *InitialPurchase {
	return &InitialPurchase{uowFactory: factory}
}

func (c *InitialPurchase) Execute(customerID uuid.UUID, stripeID string, onboarding string) (uint64, error) {
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
	customer, err := customerRepo.GetByID(ctx, customerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, errs.NotFoundError{Err: fmt.Errorf("no customer %v", customerID)}
	}
	if err != nil {
		return 0, err
	}
	if err = customerRepo.MarkPaying(ctx, customer.ID, stripeID); err != nil {
		return 0, err
	}

	requestText := initialRequestText
	if onboarding != "" {
		requestText = onboarding
	}
	requestID, err := upsertActiveRequest(ctx, tx, customer.ID, consts.RequestTypeInitialPurchase, requestText)
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
	err = eventRepo.InsertEvent(ctx, events.SendMail{
		CustomerID: customer.ID.String(),
		MailType:   string(mail.RequestReceived),
		Data: mail.RequestReceivedData{
			BusinessName: customer.BusinessName,
			RequestText:  requestText,
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
