package mail

import (
	"os"

	"github.com/sitesmith-ai/sitesmith-backend/pkg/env"
)

type MailConfig struct {
	SMTPHost   string
	SMTPPort   string
	Username   string
	Password   string
	AdminEmail string
}

func NewMailConfig() *MailConfig {
	return &MailConfig{
		SMTPHost:   os.Getenv("MAIL_HOST"),
		SMTPPort:   os.Getenv("MAIL_PORT"),
		Username:   os.Getenv("MAIL_USERNAME"),
		Password:   os.Getenv("MAIL_PASSWORD"),
		AdminEmail: env.GetEnv("MAIL_ADMIN", "review@sitesmith.ai"),
	}
}
