package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/promptforge-labs/forge_api/dto"
	"github.com/promptforge-labs/forge_api/shared"
)

type AuthHandler struct {
	authSvc AuthServiceInterface
}

func NewAuthHandler(authSvc AuthServiceInterface) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// @Summary Issue an access token
// @Description Exchange client credentials for a short-lived bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param tokenRequest body dto.TokenRequest true "Client credentials"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} shared.ErrorResponse
// @Failure 401 {object} shared.ErrorResponse
// @Failure 429 {object} shared.ErrorResponse
// @Router /v1/auth/token [post]
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(shared.CodeValidationFailed, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(shared.CodeMissingRequiredField, "clientSecret is required").
			WithDetails(dto.FormatValidationErrors(err))
	}

	resp, err := h.authSvc.IssueToken(req, shared.ClientIP(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, resp)
}

// @Summary Introspect the current credentials
// @Description Describe the identity attached to this request by the authentication gate
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.IntrospectResponse
// @Failure 401 {object} shared.ErrorResponse
// @Router /v1/auth/introspect [get]
func (h *AuthHandler) Introspect(c *fiber.Ctx) error {
	clientID, _ := c.Locals(shared.ClientID).(string)
	method, _ := c.Locals(shared.AuthMethod).(string)
	scope, _ := c.Locals(shared.AuthScope).(string)
	authTime, _ := c.Locals(shared.AuthTime).(int64)

	return shared.ResponseJSON(c, fiber.StatusOK, dto.IntrospectResponse{
		ClientID:   clientID,
		AuthMethod: method,
		Scope:      scope,
		AuthTime:   authTime,
	})
}