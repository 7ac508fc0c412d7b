package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetpotato0/agri-advisor/contrib/provider"
	"github.com/sweetpotato0/agri-advisor/errors"
)

func messagesServer(t *testing.T, blocks []map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		var body struct {
			Model     string           `json:"model"`
			MaxTokens int              `json:"max_tokens"`
			System    []map[string]any `json:"system"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, DefaultModel, body.Model)
		assert.Equal(t, 1024, body.MaxTokens)
		if assert.Len(t, body.System, 1) {
			assert.Equal(t, provider.SystemInstruction, body.System[0]["text"])
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"model":       DefaultModel,
			"content":     blocks,
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 1, "output_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateJoinsTextBlocks(t *testing.T) {
	srv := messagesServer(t, []map[string]any{
		{"type": "text", "text": "## Crop Advisory"},
		{"type": "text", "text": "Sow after 75 mm rain."},
	})
	p := New(provider.Settings{APIKey: "key", BaseURL: srv.URL})

	got, err := p.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "## Crop Advisory\nSow after 75 mm rain.", got)
}

func TestGenerateEmpty(t *testing.T) {
	srv := messagesServer(t, []map[string]any{{"type": "text", "text": " "}})
	_, err := New(provider.Settings{APIKey: "key", BaseURL: srv.URL}).Generate(context.Background(), "prompt")
	require.ErrorIs(t, err, errors.ErrValidationUnavailable)
}
