package config

import (
	"strconv"
	"time"

	"github.com/sitesmith-ai/sitesmith-backend/pkg/env"
)

// WorkflowConfig carries the knobs of the revision workflow: where the
// operator review screen lives, where customers request changes, and how long
// the resubmission cooldown lasts.
type WorkflowConfig struct {
	ReviewBaseURL   string
	RevisionFormURL string
	Cooldown        time.Duration
}

func NewWorkflowConfig() *WorkflowConfig {
	cooldownMinutes, err := strconv.Atoi(env.GetEnv("REQUEST_COOLDOWN_MINUTES", "60"))
	if err != nil {
		cooldownMinutes = 60
	}
	return &WorkflowConfig{
		ReviewBaseURL:   env.GetEnv("REVIEW_BASE_URL", "http://localhost:8080"),
		RevisionFormURL: env.GetEnv("REVISION_FORM_URL", "http://localhost:3000/revise"),
		Cooldown:        time.Duration(cooldownMinutes) * time.Minute,
	}
}
