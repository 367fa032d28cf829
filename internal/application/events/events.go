package events

import (
	"time"

	"github.com/google/uuid"
)

type RegenerationRequested struct {
	RequestID  uint64
	CustomerID uuid.UUID
	CreatedAt  time.Time
}

func (e RegenerationRequested) GetType() string {
	return "RegenerationRequested"
}

type SendMail struct {
	CustomerID string
	MailType   string
	Data       interface{}
}

func (e SendMail) GetType() string {
	return "SendMail"
}
