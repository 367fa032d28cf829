package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/sitesmith-ai/sitesmith-backend/internal/application/dto"
	"github.com/sitesmith-ai/sitesmith-backend/internal/infra/db"
)

const systemPrompt = `You are a website generator for small businesses.
Produce a complete, self-contained HTML5 document (inline CSS, no external assets)
for the business described by the user. After the closing </html> tag, write one
short plain-text line starting with "SUMMARY:" describing what was generated or changed.`

type OpenAIClient struct {
	cfg    OpenAIConfig
	client openai.Client
}

func NewOpenAIClient(config OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		config,
		openai.NewClient(option.WithAPIKey(config.apiKey)),
	}
}

// RenderWebsite generates a full site for the customer. The call is bounded
// by the configured render timeout; a timeout surfaces as a plain error and
// is handled like any other renderer failure.
func (c *OpenAIClient) RenderWebsite(ctx context.Context, customer db.Customer, changeRequest string) (dto.RenderedSite, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.cfg.renderTimeout)
	defer cancel()

	prompt := fmt.Sprintf("Business name: %s\nIndustry: %s\nContact email: %s\n\nRequest:\n%s",
		customer.BusinessName, customer.Industry, customer.Email, changeRequest)

	messages := []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: param.Opt[string]{Value: systemPrompt},
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: param.Opt[string]{Value: prompt},
				},
			},
		},
	}

	chatCompletion, err := c.client.Chat.Completions.New(timeoutCtx, openai.ChatCompletionNewParams{
		Model:               c.cfg.model,
		Messages:            messages,
		MaxCompletionTokens: param.Opt[int64]{Value: c.cfg.maxTokens},
		N:                   param.Opt[int64]{Value: 1},
		Temperature:         param.Opt[float64]{Value: 0.8},
	})
	if err != nil {
		return dto.RenderedSite{}, fmt.Errorf("renderer call failed, %w", err)
	}
	if len(chatCompletion.Choices) == 0 {
		return dto.RenderedSite{}, fmt.Errorf("renderer returned no choices")
	}

	return parseRendered(chatCompletion.Choices[0].Message.Content)
}

func parseRendered(content string) (dto.RenderedSite, error) {
	idx := strings.LastIndex(content, "</html>")
	if idx == -1 {
		return dto.RenderedSite{}, fmt.Errorf("renderer output is not a complete html document")
	}
	html := strings.TrimSpace(content[:idx+len("</html>")])

	description := "Website generated"
	if sumIdx := strings.LastIndex(content, "SUMMARY:"); sumIdx > idx {
		if summary := strings.TrimSpace(content[sumIdx+len("SUMMARY:"):]); summary != "" {
			description = summary
		}
	}

	return dto.RenderedSite{HTML: html, Description: description}, nil
}
