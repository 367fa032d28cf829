package testinfra

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var Pool *pgxpool.Pool

func init() {
	Pool = SetupDB()
}

func SetupDB() *pgxpool.Pool {

	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:17.2-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections"),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	if err != nil {
		log.Panicf("start postgres: %v", err)
	}

	pgHostPort, err := pgC.Endpoint(ctx, "")
	if err != nil {
		log.Panicf("postgres endpoint: %v", err)
	}
	pgDSN := fmt.Sprintf("postgres://postgres:password@%s/testdb?sslmode=disable", pgHostPort)

	pool, err := pgxpool.New(ctx, pgDSN)
	if err != nil {
		log.Panicf("pgxpool connect: %v", err)
	}

	ok := false
	for i := 0; i < 20; i++ {
		slog.Info("ping db", "try", i)
		ctxPing, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		err = pool.Ping(ctxPing)
		cancel()
		if err == nil {
			ok = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ok {
		log.Panic("db did not respond after 20 attempts")
	}

	_, err = pool.Exec(ctx, `
		CREATE SCHEMA IF NOT EXISTS sitesmith;
		CREATE TABLE IF NOT EXISTS sitesmith.customers (
			id UUID PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			business_name TEXT NOT NULL DEFAULT '',
			industry TEXT NOT NULL DEFAULT '',
			is_paying BOOLEAN NOT NULL DEFAULT FALSE,
			stripe_id TEXT NOT NULL DEFAULT '',
			website_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS sitesmith.website_versions (
			id BIGSERIAL PRIMARY KEY,
			customer_id UUID NOT NULL REFERENCES sitesmith.customers(id),
			version_number INT NOT NULL,
			html TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_current BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (customer_id, version_number)
		);
		CREATE TABLE IF NOT EXISTS sitesmith.customization_requests (
			id BIGSERIAL PRIMARY KEY,
			customer_id UUID NOT NULL REFERENCES sitesmith.customers(id),
			request_type VARCHAR(40) NOT NULL,
			request_text TEXT NOT NULL,
			status VARCHAR(40) NOT NULL,
			version_id BIGINT REFERENCES sitesmith.website_versions(id),
			created_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ,
			approved_at TIMESTAMPTZ
		);
		CREATE UNIQUE INDEX IF NOT EXISTS ux_requests_active
			ON sitesmith.customization_requests (customer_id)
			WHERE status IN ('processing', 'pending_approval');
		CREATE TABLE IF NOT EXISTS sitesmith.outbox (
			id BIGSERIAL PRIMARY KEY,
			event VARCHAR(60) NOT NULL,
			status INT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS sitesmith.mails (
			id BIGSERIAL PRIMARY KEY,
			"type" VARCHAR(40) NOT NULL,
			recipients TEXT NOT NULL,
			subject TEXT NOT NULL,
			content TEXT NOT NULL,
			sent_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS sitesmith.mail_templates (
			"type" VARCHAR(40) PRIMARY KEY,
			content TEXT NOT NULL
		);
		INSERT INTO sitesmith.mail_templates ("type", content) VALUES
			('RequestReceived', '<p>Hi {{.BusinessName}}, we received your request and will be in touch.</p>'),
			('ReviewRequested', '<p>{{.BusinessName}} is awaiting review: <a href="{{.ReviewURL}}">review</a></p>'),
			('PaidWelcome', '<p>Welcome {{.BusinessName}}! Your site is live at {{.SiteURL}}.</p>'),
			('RevisionDelivered', '<p>{{.BusinessName}}, your updated site is at {{.SiteURL}}.</p>'),
			('GenerationFailed', '<p>Generation failed for {{.CustomerID}}: {{.Error}}</p>')
		ON CONFLICT ("type") DO NOTHING;
	`)
	if err != nil {
		log.Panicf("create tables: %v", err)
	}

	return pool
}
