// Package claude generates advisory text with the Anthropic messages API.
package claude

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/sweetpotato0/agri-advisor/contrib/provider"
)

const DefaultModel = "claude-sonnet-4-5-20250929"

var _ provider.Provider = (*Provider)(nil)

type Provider struct {
	s      provider.Settings
	client anthropic.Client
}

func New(s provider.Settings) *Provider {
	s = s.WithDefaults(DefaultModel)
	opts := []option.RequestOption{option.WithAPIKey(s.APIKey), option.WithMaxRetries(0)}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	return &Provider{s: s, client: anthropic.NewClient(opts...)}
}

func (*Provider) Name() string { return "claude" }

// Generate joins the text blocks of the reply; tool and thinking blocks
// are ignored.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.s.Model),
		MaxTokens: int64(p.s.MaxTokens),
		System:    []anthropic.TextBlockParam{{Text: p.s.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if p.s.Temperature > 0 {
		params.Temperature = param.NewOpt(p.s.Temperature)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", provider.Unavailable(p.Name(), err)
	}
	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", provider.EmptyResponse(p.Name())
	}
	return strings.Join(parts, "\n"), nil
}
