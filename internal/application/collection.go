package application

import (
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/commands"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/processors"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/query"
)

// Handlers is everything the HTTP surface dispatches to.
type Handlers struct {
	CreateRequest  *commands.CreateRequest
	ApproveRequest *commands.ApproveRequest
	RejectRequest  *commands.RejectRequest
	Payment        *commands.Payment
	GetPending     *query.GetPending
	GetReview      *query.GetReview
}

// Processors handle outbox events, one per event type.
type Processors struct {
	RegenerateWebsite *processors.RegenerateWebsite
	SendMail          *commands.SendMail
}
