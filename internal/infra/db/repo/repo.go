package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/consts"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/interfaces"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db"
	shared "github.com/sitesmith-ai/sitesmith-backend/pkg/interfaces"
)

type CustomerRepo struct {
	tx pgx.Tx
}

func NewCustomerRepo(tx pgx.Tx) *CustomerRepo {
	return &CustomerRepo{tx: tx}
}

func (c *CustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*db.Customer, error) {
	var customer db.Customer
	query := `SELECT id, email, business_name, industry, is_paying, stripe_id, website_url, created_at
		FROM sitesmith.customers WHERE id = $1`
	err := c.tx.QueryRow(ctx, query, id).Scan(&customer.ID, &customer.Email, &customer.BusinessName,
		&customer.Industry, &customer.IsPaying, &customer.StripeID, &customer.WebsiteURL, &customer.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &customer, nil
}

func (c *CustomerRepo) GetByStripeID(ctx context.Context, stripeID string) (*db.Customer, error) {
	var customer db.Customer
	query := `SELECT id, email, business_name, industry, is_paying, stripe_id, website_url, created_at
		FROM sitesmith.customers WHERE stripe_id = $1`
	err := c.tx.QueryRow(ctx, query, stripeID).Scan(&customer.ID, &customer.Email, &customer.BusinessName,
		&customer.Industry, &customer.IsPaying, &customer.StripeID, &customer.WebsiteURL, &customer.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &customer, nil
}

// FindOrCreateByEmail relies on the unique constraint on email, so two
// near-simultaneous submissions for a new address resolve to one row.
func (c *CustomerRepo) FindOrCreateByEmail(ctx context.Context, email, businessName string) (*db.Customer, error) {
	var customer db.Customer
	query := `INSERT INTO sitesmith.customers (id, email, business_name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, business_name, industry, is_paying, stripe_id, website_url, created_at`
	err := c.tx.QueryRow(ctx, query, uuid.New(), email, businessName, time.Now()).Scan(
		&customer.ID, &customer.Email, &customer.BusinessName, &customer.Industry,
		&customer.IsPaying, &customer.StripeID, &customer.WebsiteURL, &customer.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("err finding or creating customer, %v", err)
	}

	return &customer, nil
}

func (c *CustomerRepo) MarkPaying(ctx context.Context, id uuid.UUID, stripeID string) error {
	_, err := c.tx.Exec(ctx, "UPDATE sitesmith.customers SET is_paying = TRUE, stripe_id = $1 WHERE id = $2",
		stripeID, id)
	return err
}

func (c *CustomerRepo) SetWebsiteURL(ctx context.Context, id uuid.UUID, url string) error {
	_, err := c.tx.Exec(ctx, "UPDATE sitesmith.customers SET website_url = $1 WHERE id = $2", url, id)
	return err
}

type RequestRepo struct {
	tx pgx.Tx
}

func NewRequestRepo(tx pgx.Tx) *RequestRepo {
	return &RequestRepo{tx: tx}
}

const requestColumns = "id, customer_id, request_type, request_text, status, version_id, created_at, completed_at, approved_at"

func scanRequest(row pgx.Row) (*db.CustomizationRequest, error) {
	var request db.CustomizationRequest
	err := row.Scan(&request.ID, &request.CustomerID, &request.Type, &request.RequestText,
		&request.Status, &request.VersionID, &request.CreatedAt, &request.CompletedAt, &request.ApprovedAt)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *RequestRepo) GetByID(ctx context.Context, id uint64) (*db.CustomizationRequest, error) {
	query := "SELECT " + requestColumns + " FROM sitesmith.customization_requests WHERE id = $1"
	return scanRequest(r.tx.QueryRow(ctx, query, id))
}

// GetActiveByCustomer returns the single non-terminal request for a customer,
// pgx.ErrNoRows if there is none. The partial unique index ux_requests_active
// guarantees at most one exists.
func (r *RequestRepo) GetActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*db.CustomizationRequest, error) {
	query := "SELECT " + requestColumns + ` FROM sitesmith.customization_requests
		WHERE customer_id = $1 AND status IN ($2, $3)`
	return scanRequest(r.tx.QueryRow(ctx, query, customerID,
		consts.RequestStatusProcessing, consts.RequestStatusPendingApproval))
}

func (r *RequestRepo) GetLatestByCustomer(ctx context.Context, customerID uuid.UUID) (*db.CustomizationRequest, error) {
	query := "SELECT " + requestColumns + ` FROM sitesmith.customization_requests
		WHERE customer_id = $1 ORDER BY created_at DESC LIMIT 1`
	return scanRequest(r.tx.QueryRow(ctx, query, customerID))
}

func (r *RequestRepo) Insert(ctx context.Context, request db.CustomizationRequest) (uint64, error) {
	var id uint64
	err := r.tx.QueryRow(ctx,
		`INSERT INTO sitesmith.customization_requests (customer_id, request_type, request_text, status, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		request.CustomerID, request.Type, request.RequestText, request.Status, request.CreatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AppendText coalesces a follow-up description into an already active request.
func (r *RequestRepo) AppendText(ctx context.Context, id uint64, text string) error {
	_, err := r.tx.Exec(ctx,
		"UPDATE sitesmith.customization_requests SET request_text = request_text || $1 WHERE id = $2",
		"\n"+text, id)
	return err
}

// LinkVersion is unconditional, last write wins. A duplicate worker run for
// the same request leaves the request pointing at the newest version.
func (r *RequestRepo) LinkVersion(ctx context.Context, id, versionID uint64) error {
	_, err := r.tx.Exec(ctx,
		"UPDATE sitesmith.customization_requests SET version_id = $1 WHERE id = $2", versionID, id)
	return err
}

// MarkPendingApproval transitions processing -> pending_approval. Returns
// false when the request is no longer in processing, making duplicate worker
// completions a no-op.
func (r *RequestRepo) MarkPendingApproval(ctx context.Context, id uint64, completedAt time.Time) (bool, error) {
	tag, err := r.tx.Exec(ctx,
		`UPDATE sitesmith.customization_requests SET status = $1, completed_at = $2
		WHERE id = $3 AND status = $4`,
		consts.RequestStatusPendingApproval, completedAt, id, consts.RequestStatusProcessing)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Approve transitions pending_approval -> approved. Returns false when the
// request was already handled by another operator.
func (r *RequestRepo) Approve(ctx context.Context, id uint64, approvedAt time.Time) (bool, error) {
	tag, err := r.tx.Exec(ctx,
		`UPDATE sitesmith.customization_requests SET status = $1, approved_at = $2
		WHERE id = $3 AND status = $4`,
		consts.RequestStatusApproved, approvedAt, id, consts.RequestStatusPendingApproval)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Reopen transitions pending_approval -> processing with operator feedback
// appended, clearing approved_at and the completion timestamp.
func (r *RequestRepo) Reopen(ctx context.Context, id uint64, feedback string) (bool, error) {
	tag, err := r.tx.Exec(ctx,
		`UPDATE sitesmith.customization_requests
		SET status = $1, request_text = request_text || $2, approved_at = NULL, completed_at = NULL
		WHERE id = $3 AND status = $4`,
		consts.RequestStatusProcessing, "\n"+feedback, id, consts.RequestStatusPendingApproval)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RequestRepo) ListByStatus(ctx context.Context, status consts.RequestStatus) ([]db.CustomizationRequest, error) {
	query := "SELECT " + requestColumns + ` FROM sitesmith.customization_requests
		WHERE status = $1 ORDER BY created_at`
	rows, err := r.tx.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []db.CustomizationRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}

	return requests, rows.Err()
}

type VersionRepo struct {
	tx pgx.Tx
}

func NewVersionRepo(tx pgx.Tx) *VersionRepo {
	return &VersionRepo{tx: tx}
}

// Insert assigns the next sequential version number for the customer inside
// the current transaction. The unique (customer_id, version_number)
// constraint backs the numbering against concurrent inserts.
func (v *VersionRepo) Insert(ctx context.Context, version db.WebsiteVersion) (*db.WebsiteVersion, error) {
	query := `INSERT INTO sitesmith.website_versions (customer_id, version_number, html, description, is_current, created_at)
		SELECT $1, COALESCE(MAX(version_number), 0) + 1, $2, $3, FALSE, $4
		FROM sitesmith.website_versions WHERE customer_id = $1
		RETURNING id, version_number`
	err := v.tx.QueryRow(ctx, query, version.CustomerID, version.HTML, version.Description, version.CreatedAt).
		Scan(&version.ID, &version.VersionNumber)
	if err != nil {
		return nil, err
	}
	version.IsCurrent = false

	return &version, nil
}

func (v *VersionRepo) GetByID(ctx context.Context, id uint64) (*db.WebsiteVersion, error) {
	var version db.WebsiteVersion
	query := `SELECT id, customer_id, version_number, html, description, is_current, created_at
		FROM sitesmith.website_versions WHERE id = $1`
	err := v.tx.QueryRow(ctx, query, id).Scan(&version.ID, &version.CustomerID, &version.VersionNumber,
		&version.HTML, &version.Description, &version.IsCurrent, &version.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &version, nil
}

func (v *VersionRepo) GetCurrent(ctx context.Context, customerID uuid.UUID) (*db.WebsiteVersion, error) {
	var version db.WebsiteVersion
	query := `SELECT id, customer_id, version_number, html, description, is_current, created_at
		FROM sitesmith.website_versions WHERE customer_id = $1 AND is_current`
	err := v.tx.QueryRow(ctx, query, customerID).Scan(&version.ID, &version.CustomerID, &version.VersionNumber,
		&version.HTML, &version.Description, &version.IsCurrent, &version.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &version, nil
}

// SetCurrent clears the flag on every other version before setting it, both
// statements inside the caller's transaction.
func (v *VersionRepo) SetCurrent(ctx context.Context, customerID uuid.UUID, versionID uint64) error {
	_, err := v.tx.Exec(ctx,
		"UPDATE sitesmith.website_versions SET is_current = FALSE WHERE customer_id = $1 AND is_current", customerID)
	if err != nil {
		return err
	}
	_, err = v.tx.Exec(ctx,
		"UPDATE sitesmith.website_versions SET is_current = TRUE WHERE id = $1 AND customer_id = $2",
		versionID, customerID)
	return err
}

type EventRepo struct {
	tx pgx.Tx
}

var _ interfaces.EventRepo = (*EventRepo)(nil)

func NewEventRepo(tx pgx.Tx) *EventRepo {
	return &EventRepo{tx: tx}
}

func (e *EventRepo) InsertEvent(ctx context.Context, event shared.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("err marshalling event payload, %v", err)
	}
	outbox := db.Outbox{
		Event:     event.GetType(),
		Status:    int(consts.NotProcessed),
		Payload:   json.RawMessage(payload),
		CreatedAt: time.Now(),
	}
	_, err = e.tx.Exec(ctx, "INSERT INTO sitesmith.outbox (event, status, payload, created_at) VALUES ($1,$2,$3,$4)",
		outbox.Event, outbox.Status, outbox.Payload, outbox.CreatedAt)
	if err != nil {
		return fmt.Errorf("err inserting a new event, %v", err)
	}

	return nil
}
