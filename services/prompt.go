package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/promptforge-labs/forge_api/dto"
	"github.com/promptforge-labs/forge_api/model"
	"github.com/promptforge-labs/forge_api/shared"
)

// PromptService orchestrates prompt CRUD: length checks, enhancement with a
// deadline, and persistence through the sqlite layer.
type PromptService struct {
	appContext.DefaultService

	maxTextLen     int
	enhanceTimeout time.Duration

	sqliteSvc   *SqliteService
	enhancerSvc *EnhancerService
}

const PROMPT_SVC = "prompt_svc"

const (
	maxPromptLenProduction  = 5000
	maxPromptLenDevelopment = 8000
	defaultEnhanceTimeout   = 35 * time.Second
)

func (svc PromptService) Id() string {
	return PROMPT_SVC
}

func (svc *PromptService) Configure(ctx *appContext.Context) error {
	svc.sqliteSvc = ctx.Service(SQLITE_SVC).(*SqliteService)
	svc.enhancerSvc = ctx.Service(ENHANCER_SVC).(*EnhancerService)

	svc.maxTextLen = maxPromptLenDevelopment
	if os.Getenv("ENV") == "production" {
		svc.maxTextLen = maxPromptLenProduction
	}
	if v, err := strconv.Atoi(os.Getenv("MAX_PROMPT_LENGTH")); err == nil && v > 0 {
		svc.maxTextLen = v
	}

	svc.enhanceTimeout = defaultEnhanceTimeout
	if d, err := time.ParseDuration(os.Getenv("ENHANCE_TIMEOUT")); err == nil && d > 0 {
		svc.enhanceTimeout = d
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *PromptService) Start() error {
	return nil
}

func (svc *PromptService) checkLength(text string) error {
	if len(text) > svc.maxTextLen {
		return shared.NewPayloadTooLargeError(
			fmt.Sprintf("Prompt text exceeds the maximum length of %d characters", svc.maxTextLen))
	}
	return nil
}

// enhance runs the active enhancer under the configured deadline and maps
// provider failures onto the API error taxonomy.
func (svc *PromptService) enhance(ctx context.Context, text, format string) (string, error) {
	enhancer := svc.enhancerSvc.Enhancer()

	timeoutCtx, cancel := context.WithTimeout(ctx, svc.enhanceTimeout)
	defer cancel()

	start := time.Now()
	enhanced, err := enhancer.Enhance(timeoutCtx, text, format)
	ObserveEnhancementDuration(enhancer.Provider(), time.Since(start).Seconds(), err == nil)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", shared.NewServiceUnavailableError(shared.CodeEnhancementTimeout,
				"Prompt enhancement timed out. Please try again.", err)
		}
		log.WithError(err).Error("Prompt enhancement failed")
		return "", shared.NewServiceUnavailableError(shared.CodeServiceError,
			"Prompt enhancement is temporarily unavailable.", err)
	}
	return enhanced, nil
}

func (svc *PromptService) Create(ctx context.Context, req *dto.EnhancePromptRequest) (*model.Prompt, error) {
	if err := svc.checkLength(req.Text); err != nil {
		return nil, err
	}

	format := req.Format
	if format == "" {
		format = shared.FormatParagraph
	}

	enhanced, err := svc.enhance(ctx, req.Text, format)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	prompt := &model.Prompt{
		ID:           uuid.NewString(),
		OriginalText: req.Text,
		EnhancedText: enhanced,
		Format:       format,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := svc.sqliteSvc.SavePrompt(prompt); err != nil {
		return nil, shared.NewInternalError(err)
	}

	RecordPromptCreated()
	return prompt, nil
}

func (svc *PromptService) List() ([]model.Prompt, error) {
	prompts, err := svc.sqliteSvc.ListPrompts()
	if err != nil {
		return nil, shared.NewInternalError(err)
	}
	return prompts, nil
}

func (svc *PromptService) Get(id string) (*model.Prompt, error) {
	prompt, err := svc.sqliteSvc.GetPrompt(id)
	if err != nil {
		return nil, shared.NewInternalError(err)
	}
	if prompt == nil {
		return nil, shared.NewNotFoundError("Prompt not found")
	}
	return prompt, nil
}

// Update replaces the original text and re-enhances it.
func (svc *PromptService) Update(ctx context.Context, id string, req *dto.EnhancePromptRequest) (*model.Prompt, error) {
	prompt, err := svc.Get(id)
	if err != nil {
		return nil, err
	}

	if err := svc.checkLength(req.Text); err != nil {
		return nil, err
	}

	format := req.Format
	if format == "" {
		format = prompt.Format
	}

	enhanced, err := svc.enhance(ctx, req.Text, format)
	if err != nil {
		return nil, err
	}

	prompt.OriginalText = req.Text
	prompt.EnhancedText = enhanced
	prompt.Format = format
	prompt.UpdatedAt = time.Now().UTC()

	if err := svc.sqliteSvc.UpdatePrompt(prompt); err != nil {
		return nil, shared.NewInternalError(err)
	}
	return prompt, nil
}

func (svc *PromptService) Delete(id string) error {
	deleted, err := svc.sqliteSvc.DeletePrompt(id)
	if err != nil {
		return shared.NewInternalError(err)
	}
	if !deleted {
		return shared.NewNotFoundError("Prompt not found")
	}
	return nil
}
