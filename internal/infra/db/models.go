package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/consts"
)

type Customer struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	BusinessName string    `db:"business_name"`
	Industry     string    `db:"industry"`
	IsPaying     bool      `db:"is_paying"`
	StripeID     string    `db:"stripe_id"`
	WebsiteURL   string    `db:"website_url"`
	CreatedAt    time.Time `db:"created_at"`
}

// WebsiteVersion rows are immutable once inserted, except for the is_current
// flag which is flipped when a version is approved and delivered.
type WebsiteVersion struct {
	ID            uint64    `db:"id"`
	CustomerID    uuid.UUID `db:"customer_id"`
	VersionNumber int       `db:"version_number"`
	HTML          string    `db:"html"`
	Description   string    `db:"description"`
	IsCurrent     bool      `db:"is_current"`
	CreatedAt     time.Time `db:"created_at"`
}

type CustomizationRequest struct {
	ID          uint64               `db:"id"`
	CustomerID  uuid.UUID            `db:"customer_id"`
	Type        consts.RequestType   `db:"request_type"`
	RequestText string               `db:"request_text"`
	Status      consts.RequestStatus `db:"status"`
	VersionID   *uint64              `db:"version_id"`
	CreatedAt   time.Time            `db:"created_at"`
	CompletedAt *time.Time           `db:"completed_at"`
	ApprovedAt  *time.Time           `db:"approved_at"`
}

type Outbox struct {
	ID        uint64          `db:"id"`
	Event     string          `db:"event"`
	Status    int             `db:"status"`
	Payload   json.RawMessage `db:"payload"`
	CreatedAt time.Time       `db:"created_at"`
}

type Mail struct {
	ID         uint64    `db:"id"`
	MailType   string    `db:"type"`
	Recipients string    `db:"recipients"`
	Subject    string    `db:"subject"`
	Content    string    `db:"content"`
	SentAt     time.Time `db:"sent_at"`
}
