package openai

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

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, DefaultModel, body.Model)
		if assert.Len(t, body.Messages, 2) {
			assert.Equal(t, "system", body.Messages[0].Role)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   DefaultModel,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "  Irrigate lightly.  ")
	p := New("", provider.Settings{APIKey: "sk-test", BaseURL: srv.URL})
	require.Equal(t, "openai", p.Name())

	got, err := p.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "Irrigate lightly.", got)
}

func TestGenerateEmptyAndFailure(t *testing.T) {
	empty := New("groq", provider.Settings{BaseURL: chatServer(t, http.StatusOK, "").URL})
	_, err := empty.Generate(context.Background(), "prompt")
	require.ErrorIs(t, err, errors.ErrValidationUnavailable)
	require.ErrorContains(t, err, "groq")

	failing := New("", provider.Settings{BaseURL: chatServer(t, http.StatusInternalServerError, "x").URL})
	_, err = failing.Generate(context.Background(), "prompt")
	require.ErrorIs(t, err, errors.ErrValidationUnavailable)
}
