package rest

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/dto"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/errs"
)

type Server struct {
	handlers *application.Handlers
}

func NewServer(handlers *application.Handlers) *Server {
	return &Server{handlers: handlers}
}

func RegisterHandlers(app *fiber.App, s *Server) {
	app.Post("/requests", s.CreateRequest)
	app.Get("/pending", s.ListPending)
	app.Get("/review", s.GetReview)
	app.Get("/approve", s.ApproveRequest)
	app.Post("/regenerate", s.Regenerate)
	app.Post("/payments", s.CreatePayment)
	app.Post("/payments/webhook", s.PaymentWebhook)
}

// CreateRequest acknowledges synchronously; generation runs out of band.
func (s *Server) CreateRequest(c *fiber.Ctx) error {
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	if req.Email == "" && req.CustomerID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "email or customerId is required"})
	}

	requestID, err := s.handlers.CreateRequest.Execute(&req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(dto.CreateRequestResponse{RequestID: requestID})
}

func (s *Server) ListPending(c *fiber.Ctx) error {
	pending, err := s.handlers.GetPending.Query()
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(pending)
}

func (s *Server) GetReview(c *fiber.Ctx) error {
	customerID, requestID, err := reviewParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	review, err := s.handlers.GetReview.Query(customerID, requestID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(review)
}

func (s *Server) ApproveRequest(c *fiber.Ctx) error {
	customerID, requestID, err := reviewParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	resp, err := s.handlers.ApproveRequest.Execute(customerID, requestID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (s *Server) Regenerate(c *fiber.Ctx) error {
	var req dto.RegenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	requestID, err := s.handlers.RejectRequest.Execute(req.CustomerID, req.RequestID, req.Feedback)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(dto.RegenerateResponse{RequestID: requestID})
}

func (s *Server) CreatePayment(c *fiber.Ctx) error {
	var req dto.CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	clientSecret, err := s.handlers.Payment.CreateCheckout(&req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.CreatePaymentResponse{ClientSecret: clientSecret})
}

func (s *Server) PaymentWebhook(c *fiber.Ctx) error {
	if err := s.handlers.Payment.Webhook(c.Body(), c.Get("Stripe-Signature")); err != nil {
		return errorResponse(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func reviewParams(c *fiber.Ctx) (uuid.UUID, *uint64, error) {
	customerID, err := uuid.Parse(c.Query("customerId"))
	if err != nil {
		return uuid.Nil, nil, errors.New("customerId is required")
	}
	var requestID *uint64
	if raw := c.Query("requestId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return uuid.Nil, nil, errors.New("requestId must be numeric")
		}
		requestID = &id
	}
	return customerID, requestID, nil
}

func errorResponse(c *fiber.Ctx, err error) error {
	var notFound errs.NotFoundError
	var conflict errs.ConflictError
	var duplicate errs.DuplicateSubmissionError
	switch {
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.As(err, &duplicate):
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
}
