package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/dto"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db/repo"
	dbs "github.com/sitesmith-ai/sitesmith-backend/pkg/db"
	"github.com/sitesmith-ai/sitesmith-backend/pkg/env"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

type Payment struct {
	uowFactory      *dbs.UOWFactory
	initialPurchase *InitialPurchase
	cfg             *PaymentConfig
}

type PaymentConfig struct {
	apiKey     string
	webhookKey string
	returnUrl  string
	priceID    string
}

func NewPaymentConfig() *PaymentConfig {
	return &PaymentConfig{
		apiKey:     os.Getenv("STRIPE_KEY"),
		webhookKey: os.Getenv("STRIPE_WEBHOOK"),
		returnUrl:  os.Getenv("STRIPE_RETURN_URL"),
		priceID:    env.GetEnv("STRIPE_PRICE_ID", ""),
	}
}

func NewPayment(uowFactory *dbs.UOWFactory, initialPurchase *InitialPurchase, cfg *PaymentConfig) *Payment {
	stripe.Key = cfg.apiKey
	stripe.SetHTTPClient(&http.Client{Timeout: 10 * time.Second})
	return &Payment{
		uowFactory:      uowFactory,
		initialPurchase: initialPurchase,
		cfg:             cfg,
	}
}

func (c *Payment) CreateCheckout(req *dto.CreatePaymentRequest) (string, error) {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return "", fmt.Errorf("error starting tx, %v", err)
	}
	customer, err := repo.NewCustomerRepo(tx).FindOrCreateByEmail(context.Background(), req.Email, req.BusinessName)
	if err != nil {
		_ = uow.Rollback()
		return "", err
	}
	if err = uow.Commit(); err != nil {
		return "", fmt.Errorf("error commiting tx, %v", err)
	}

	priceID := c.cfg.priceID
	if req.PlanID != "" {
		priceID = req.PlanID
	}

	params := &stripe.CheckoutSessionParams{
		UIMode:        stripe.String("embedded"),
		ReturnURL:     stripe.String(c.cfg.returnUrl + "/complete?session_id={CHECKOUT_SESSION_ID}"),
		CustomerEmail: stripe.String(customer.Email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Metadata: map[string]string{
			"customer_id": customer.ID.String(),
		},
	}

	slog.Info("Creating a checkout session", "customerID", customer.ID)
	s, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("error creating session: %v", err)
	}

	return s.ClientSecret, nil
}

// Webhook turns a completed checkout into the initial-purchase entry point.
func (c *Payment) Webhook(req []byte, stripeHeader string) error {
	event, err := webhook.ConstructEvent(req, stripeHeader, c.cfg.webhookKey)
	if err != nil {
		return fmt.Errorf("error creating event, %v", err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var checkoutSession stripe.CheckoutSession
		err = json.Unmarshal(event.Data.Raw, &checkoutSession)
		if err != nil {
			return fmt.Errorf("error parsing checkout session, %v", err)
		}

		customerID, err := resolveCheckoutCustomer(&checkoutSession)
		if err != nil {
			return err
		}
		stripeID := ""
		if checkoutSession.Customer != nil {
			stripeID = checkoutSession.Customer.ID
		}

		requestID, err := c.initialPurchase.Execute(customerID, stripeID, "")
		if err != nil {
			return fmt.Errorf("err starting initial generation, %v", err)
		}
		slog.Info("initial purchase recorded", "customerID", customerID, "requestID", requestID)

	default:
		slog.Debug("ignoring stripe event", "type", event.Type)
	}

	return nil
}

func resolveCheckoutCustomer(s *stripe.CheckoutSession) (uuid.UUID, error) {
	raw, ok := s.Metadata["customer_id"]
	if !ok {
		return uuid.Nil, fmt.Errorf("checkout session %s carries no customer_id metadata", s.ID)
	}
	customerID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid customer_id %q on session %s, %v", raw, s.ID, err)
	}
	return customerID, nil
}
