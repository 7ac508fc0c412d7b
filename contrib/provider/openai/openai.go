// Package openai generates advisory text through the OpenAI chat
// completions API or any endpoint that speaks it.
package openai

import (
	"context"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/sweetpotato0/agri-advisor/contrib/provider"
)

const DefaultModel = "gpt-4o-mini"

var _ provider.Provider = (*Provider)(nil)

type Provider struct {
	name   string
	s      provider.Settings
	client openai.Client
}

// New returns a provider reporting itself as name. Retries are left to the
// caller, which already bounds each call with a timeout.
func New(name string, s provider.Settings) *Provider {
	if name == "" {
		name = "openai"
	}
	s = s.WithDefaults(DefaultModel)
	opts := []option.RequestOption{option.WithAPIKey(s.APIKey), option.WithMaxRetries(0)}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	return &Provider{name: name, s: s, client: openai.NewClient(opts...)}
}

func (p *Provider) Name() string { return p.name }

// Generate sends the system instruction and prompt as a two-message chat.
// A reply cut off by the token limit is still returned.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.s.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.s.System),
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: param.NewOpt(int64(p.s.MaxTokens)),
	}
	if p.s.Temperature > 0 {
		params.Temperature = param.NewOpt(p.s.Temperature)
	}

	res, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", provider.Unavailable(p.name, err)
	}
	for _, choice := range res.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
	}
	return "", provider.EmptyResponse(p.name)
}
