package handlers

import (
	"context"

	"github.com/promptforge-labs/forge_api/dto"
	"github.com/promptforge-labs/forge_api/model"
)

type AuthServiceInterface interface {
	IssueToken(req dto.TokenRequest, clientIP string) (*dto.TokenResponse, error)
}

type PromptServiceInterface interface {
	Create(ctx context.Context, req *dto.EnhancePromptRequest) (*model.Prompt, error)
	List() ([]model.Prompt, error)
	Get(id string) (*model.Prompt, error)
	Update(ctx context.Context, id string, req *dto.EnhancePromptRequest) (*model.Prompt, error)
	Delete(id string) error
}
