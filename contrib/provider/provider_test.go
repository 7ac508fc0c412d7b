package provider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	agerrors "github.com/sweetpotato0/agri-advisor/errors"
)

func TestSettingsWithDefaults(t *testing.T) {
	s := Settings{APIKey: "k"}.WithDefaults("model-a")
	require.Equal(t, "model-a", s.Model)
	require.Equal(t, 1024, s.MaxTokens)
	require.Equal(t, SystemInstruction, s.System)

	s = Settings{Model: "mine", MaxTokens: 64, System: "be brief"}.WithDefaults("model-a")
	require.Equal(t, Settings{Model: "mine", MaxTokens: 64, System: "be brief"}, s)
}

func TestErrorsClassifyAsUnavailable(t *testing.T) {
	cause := errors.New("503")
	err := Unavailable("openai", cause)
	require.ErrorIs(t, err, agerrors.ErrValidationUnavailable)
	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, EmptyResponse("claude"), agerrors.ErrValidationUnavailable)
}
