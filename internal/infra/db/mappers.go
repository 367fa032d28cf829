package db

import (
	"encoding/json"
	"log/slog"

	"github.com/sitesmith-ai/sitesmith-backend/internal/application/events"
)

func MapOutboxModelToRegenerationRequested(outbox Outbox) events.RegenerationRequested {
	var regeneration events.RegenerationRequested
	if err := json.Unmarshal(outbox.Payload, &regeneration); err != nil {
		slog.Error("error unmarshaling event", "err", err)
		return events.RegenerationRequested{}
	}
	regeneration.CreatedAt = outbox.CreatedAt

	return regeneration
}

func MapOutboxModelToSendMail(outbox Outbox) events.SendMail {
	var payload struct {
		CustomerID string      `json:"CustomerID"`
		MailType   string      `json:"MailType"`
		Data       interface{} `json:"Data"`
	}

	if err := json.Unmarshal(outbox.Payload, &payload); err != nil {
		slog.Error("error unmarshaling event", "err", err)
		return events.SendMail{}
	}

	return events.SendMail{
		CustomerID: payload.CustomerID,
		MailType:   payload.MailType,
		Data:       payload.Data,
	}
}
