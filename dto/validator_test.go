package dto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnhancePromptRequestValidate(t *testing.T) {
	require.NoError(t, EnhancePromptRequest{Text: "hello"}.Validate())
	require.NoError(t, EnhancePromptRequest{Text: "hello", Format: "bullet"}.Validate())

	require.Error(t, EnhancePromptRequest{}.Validate())
	require.Error(t, EnhancePromptRequest{Text: "hello", Format: "limerick"}.Validate())
}

func TestTokenRequestValidate(t *testing.T) {
	require.NoError(t, TokenRequest{ClientSecret: "shh"}.Validate())
	require.NoError(t, TokenRequest{ClientID: "acme", ClientSecret: "shh"}.Validate())

	require.Error(t, TokenRequest{}.Validate())
	require.Error(t, TokenRequest{ClientID: "acme"}.Validate())
}

func TestFormatValidationErrors(t *testing.T) {
	err := EnhancePromptRequest{Format: "limerick"}.Validate()
	require.Error(t, err)

	details := FormatValidationErrors(err)
	require.Len(t, details, 2)

	fields := []string{details[0].Field, details[1].Field}
	require.Contains(t, fields, "Text")
	require.Contains(t, fields, "Format")
	for _, d := range details {
		require.NotEmpty(t, d.Message)
	}
}
