package dto

import "time"

// EnhancePromptRequest is the body of POST /v1/prompts and PUT /v1/prompts/:id.
// Text length is additionally capped per environment by the prompt service;
// oversized input is a 413, not a validation failure.
type EnhancePromptRequest struct {
	Text   string `json:"text" validate:"required"`
	Format string `json:"format" validate:"omitempty,prompt_format"`
}

func (r EnhancePromptRequest) Validate() error {
	return validate.Struct(r)
}

type PromptResponse struct {
	ID           string    `json:"id"`
	OriginalText string    `json:"originalText"`
	EnhancedText string    `json:"enhancedText"`
	Format       string    `json:"format"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
}

type PromptListResponse struct {
	Prompts []PromptResponse `json:"prompts"`
	Count   int              `json:"count"`
}
