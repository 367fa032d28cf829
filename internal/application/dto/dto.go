package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/consts"
)

type CreateRequestRequest struct {
	CustomerID  *uuid.UUID `json:"customerId,omitempty"`
	Email       string     `json:"email"`
	Description string     `json:"description"`
}

type CreateRequestResponse struct {
	RequestID uint64 `json:"requestId"`
}

type RegenerateRequest struct {
	CustomerID uuid.UUID `json:"customerId"`
	RequestID  *uint64   `json:"requestId,omitempty"`
	Feedback   string    `json:"feedback"`
}

type RegenerateResponse struct {
	RequestID uint64 `json:"requestId"`
}

type ApproveResponse struct {
	RequestID uint64 `json:"requestId"`
	SiteURL   string `json:"siteUrl"`
}

type PendingReview struct {
	RequestID    uint64             `json:"requestId"`
	CustomerID   uuid.UUID          `json:"customerId"`
	BusinessName string             `json:"businessName"`
	Email        string             `json:"email"`
	RequestType  consts.RequestType `json:"requestType"`
	RequestText  string             `json:"requestText"`
	CreatedAt    time.Time          `json:"createdAt"`
	ReviewURL    string             `json:"reviewUrl"`
}

type PendingReviewsResponse struct {
	InitialPurchases []PendingReview `json:"initialPurchases"`
	Revisions        []PendingReview `json:"revisions"`
}

type ReviewDetail struct {
	RequestID          uint64               `json:"requestId"`
	CustomerID         uuid.UUID            `json:"customerId"`
	BusinessName       string               `json:"businessName"`
	RequestType        consts.RequestType   `json:"requestType"`
	RequestText        string               `json:"requestText"`
	Status             consts.RequestStatus `json:"status"`
	VersionID          uint64               `json:"versionId"`
	VersionNumber      int                  `json:"versionNumber"`
	VersionDescription string               `json:"versionDescription"`
	HTML               string               `json:"html"`
	CompletedAt        *time.Time           `json:"completedAt,omitempty"`
}

type RenderedSite struct {
	HTML        string
	Description string
}

type CreatePaymentRequest struct {
	Email        string `json:"email"`
	BusinessName string `json:"businessName"`
	PlanID       string `json:"planId"`
}

type CreatePaymentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
