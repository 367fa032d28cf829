package interfaces

import (
	"context"

	"github.com/google/uuid"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/dto"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db"
	shared "github.com/sitesmith-ai/sitesmith-backend/pkg/interfaces"
)

// Renderer produces a full website for a customer from a natural-language
// change request. Implementations are expected to bound their own latency.
type Renderer interface {
	RenderWebsite(ctx context.Context, customer db.Customer, changeRequest string) (dto.RenderedSite, error)
}

// Publisher makes approved website HTML reachable at the customer's URL.
type Publisher interface {
	PublishSite(ctx context.Context, customerID uuid.UUID, html string) (string, error)
}

type EventRepo interface {
	InsertEvent(ctx context.Context, event shared.Event) error
}
