package ai

import (
	"strconv"
	"time"

	"github.com/sitesmith-ai/sitesmith-backend/pkg/env"
)

type OpenAIConfig struct {
	apiKey        string
	model         string
	maxTokens     int64
	renderTimeout time.Duration
}

func NewOpenAIConfig() OpenAIConfig {
	maxTokens, err := strconv.Atoi(env.GetEnv("OPENAI_TOKENS", "8000"))
	if err != nil {
		maxTokens = 8000
	}
	timeoutSeconds, err := strconv.Atoi(env.GetEnv("RENDER_TIMEOUT", "180"))
	if err != nil {
		timeoutSeconds = 180
	}
	return OpenAIConfig{
		apiKey:        env.GetEnv("OPENAI_KEY", ""),
		model:         env.GetEnv("OPENAI_MODEL", "gpt-4o"),
		maxTokens:     int64(maxTokens),
		renderTimeout: time.Duration(timeoutSeconds) * time.Second,
	}
}
