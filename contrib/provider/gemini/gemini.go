// Package gemini generates advisory text with the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sweetpotato0/agri-advisor/contrib/provider"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-1.5-flash"

var _ provider.Provider = (*Provider)(nil)

// Provider holds a gRPC client; Close releases it.
type Provider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// New dials the Gemini API. s.BaseURL is ignored.
func New(ctx context.Context, s provider.Settings) (*Provider, error) {
	s = s.WithDefaults(DefaultModel)
	client, err := genai.NewClient(ctx, option.WithAPIKey(s.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	model := client.GenerativeModel(s.Model)
	model.SetMaxOutputTokens(int32(s.MaxTokens))
	if s.Temperature > 0 {
		model.SetTemperature(float32(s.Temperature))
	}
	model.SystemInstruction = genai.NewUserContent(genai.Text(s.System))
	return &Provider{client: client, model: model}, nil
}

func (*Provider) Name() string { return "gemini" }

// Generate returns the text of the first candidate that has any.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	res, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", provider.Unavailable(p.Name(), err)
	}
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			return text, nil
		}
	}
	return "", provider.EmptyResponse(p.Name())
}

func (p *Provider) Close() error {
	return p.client.Close()
}
