package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/sitesmith-ai/sitesmith-backend/internal/application/events"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/mail"
	dbs "github.com/sitesmith-ai/sitesmith-backend/pkg/db"
	shared "github.com/sitesmith-ai/sitesmith-backend/pkg/interfaces"
)

// SendMail delivers the transactional mails enqueued by the workflow. It runs
// from the outbox, after the state transition that produced it has committed,
// so a failed send never rolls a transition back.
type SendMail struct {
	server     *mail.MailServer
	cfg        *mail.MailConfig
	uowFactory *dbs.UOWFactory
}

func NewSendMail(server *mail.MailServer, cfg *mail.MailConfig, uowFactory *dbs.UOWFactory) *SendMail {
	return &SendMail{server: server, cfg: cfg, uowFactory: uowFactory}
}

func (c *SendMail) Handle(ctx context.Context, event events.SendMail) (shared.UoW, error) {
	mailData, err := mapToMailData(event)
	if err != nil {
		return nil, err
	}
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, err
	}

	recipients := make([]string, 0)
	if mailData.OperatorFacing() {
		recipients = append(recipients, c.cfg.AdminEmail)
	} else {
		var email string
		err = tx.QueryRow(ctx, "SELECT email FROM sitesmith.customers WHERE id = $1", event.CustomerID).Scan(&email)
		if err != nil {
			return uow, err
		}
		recipients = append(recipients, email)
	}

	var mailTemplate string
	err = tx.QueryRow(ctx, "SELECT content FROM sitesmith.mail_templates WHERE type = $1", mailData.GetMailType()).Scan(&mailTemplate)
	if err != nil {
		return uow, err
	}

	htmlBody, err := renderHTML(mailTemplate, mailData)
	if err != nil {
		return uow, fmt.Errorf("error rendering html, %v", err)
	}

	record := db.Mail{
		MailType:   string(mailData.GetMailType()),
		Recipients: strings.Join(recipients, ","),
		Subject:    mailData.GetSubject(),
		Content:    htmlBody,
		SentAt:     time.Now(),
	}
	_, err = tx.Exec(ctx, "INSERT INTO sitesmith.mails(type, recipients, subject, content, sent_at) VALUES ($1,$2,$3,$4,$5)",
		record.MailType, record.Recipients, record.Subject, record.Content, record.SentAt,
	)
	if err != nil {
		return uow, err
	}
	err = c.server.SendMail(recipients, record.Subject, record.Content)
	if err != nil {
		return uow, err
	}

	return uow, nil
}

func renderHTML(tmpl string, data mail.MailData) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func mapToMailData(event events.SendMail) (mail.MailData, error) {
	raw, _ := json.Marshal(event.Data)

	switch mail.MailType(event.MailType) {
	case mail.RequestReceived:
		var data mail.RequestReceivedData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("error mapping to mailData, %v", err)
		}
		return data, nil
	case mail.ReviewRequested:
		var data mail.ReviewRequestedData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("error mapping to mailData, %v", err)
		}
		return data, nil
	case mail.PaidWelcome:
		var data mail.PaidWelcomeData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("error mapping to mailData, %v", err)
		}
		return data, nil
	case mail.RevisionDelivered:
		var data mail.RevisionDeliveredData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("error mapping to mailData, %v", err)
		}
		return data, nil
	case mail.GenerationFailed:
		var data mail.GenerationFailedData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("error mapping to mailData, %v", err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("no such mailData type exists: %s", event.MailType)
}
