package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/promptforge-labs/forge_api/dto"
	"github.com/promptforge-labs/forge_api/model"
	"github.com/promptforge-labs/forge_api/shared"
)

type PromptHandler struct {
	promptSvc PromptServiceInterface
}

func NewPromptHandler(promptSvc PromptServiceInterface) *PromptHandler {
	return &PromptHandler{promptSvc: promptSvc}
}

// @Summary Enhance and store a prompt
// @Description Rewrite the submitted text into an enhanced prompt and persist it
// @Tags prompts
// @Accept json
// @Produce json
// @Security Bearer
// @Param enhanceRequest body dto.EnhancePromptRequest true "Prompt to enhance"
// @Success 200 {object} dto.PromptResponse
// @Failure 400 {object} shared.ErrorResponse
// @Failure 413 {object} shared.ErrorResponse
// @Failure 503 {object} shared.ErrorResponse
// @Router /v1/prompts [post]
func (h *PromptHandler) Create(c *fiber.Ctx) error {
	req, err := h.parseBody(c)
	if err != nil {
		return err
	}

	prompt, err := h.promptSvc.Create(c.Context(), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, toPromptResponse(prompt))
}

// @Summary List prompts
// @Description List all stored prompts, newest first
// @Tags prompts
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.PromptListResponse
// @Router /v1/prompts [get]
func (h *PromptHandler) List(c *fiber.Ctx) error {
	prompts, err := h.promptSvc.List()
	if err != nil {
		return err
	}

	resp := dto.PromptListResponse{
		Prompts: make([]dto.PromptResponse, 0, len(prompts)),
		Count:   len(prompts),
	}
	for i := range prompts {
		resp.Prompts = append(resp.Prompts, toPromptResponse(&prompts[i]))
	}

	return shared.ResponseJSON(c, fiber.StatusOK, resp)
}

// @Summary Get a prompt
// @Tags prompts
// @Produce json
// @Security Bearer
// @Param id path string true "Prompt ID"
// @Success 200 {object} dto.PromptResponse
// @Failure 404 {object} shared.ErrorResponse
// @Router /v1/prompts/{id} [get]
func (h *PromptHandler) Get(c *fiber.Ctx) error {
	prompt, err := h.promptSvc.Get(c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, toPromptResponse(prompt))
}

// @Summary Update a prompt
// @Description Replace the original text and re-run enhancement
// @Tags prompts
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Prompt ID"
// @Param enhanceRequest body dto.EnhancePromptRequest true "Replacement text"
// @Success 200 {object} dto.PromptResponse
// @Failure 404 {object} shared.ErrorResponse
// @Router /v1/prompts/{id} [put]
func (h *PromptHandler) Update(c *fiber.Ctx) error {
	req, err := h.parseBody(c)
	if err != nil {
		return err
	}

	prompt, err := h.promptSvc.Update(c.Context(), c.Params("id"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, toPromptResponse(prompt))
}

// @Summary Delete a prompt
// @Tags prompts
// @Security Bearer
// @Param id path string true "Prompt ID"
// @Success 204
// @Failure 404 {object} shared.ErrorResponse
// @Router /v1/prompts/{id} [delete]
func (h *PromptHandler) Delete(c *fiber.Ctx) error {
	if err := h.promptSvc.Delete(c.Params("id")); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PromptHandler) parseBody(c *fiber.Ctx) (*dto.EnhancePromptRequest, error) {
	var req dto.EnhancePromptRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, shared.NewBadRequestError(shared.CodeValidationFailed, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		if req.Text == "" {
			return nil, shared.NewBadRequestError(shared.CodeMissingRequiredField, "text is required").
				WithDetails(dto.FormatValidationErrors(err))
		}
		return nil, shared.NewBadRequestError(shared.CodeValidationFailed, "Request validation failed").
			WithDetails(dto.FormatValidationErrors(err))
	}

	return &req, nil
}

func toPromptResponse(p *model.Prompt) dto.PromptResponse {
	return dto.PromptResponse{
		ID:           p.ID,
		OriginalText: p.OriginalText,
		EnhancedText: p.EnhancedText,
		Format:       p.Format,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
