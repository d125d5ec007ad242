package shared

import (
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

var jsonAPI = sonic.Config{
	UseNumber:            true,
	EscapeHTML:           false,
	SortMapKeys:          false,
	CompactMarshaler:     true,
	NoQuoteTextMarshaler: true,
	NoNullSliceOrMap:     true,
}.Froze()

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ResponseJSON writes payload with the frozen sonic encoder.
func ResponseJSON(c *fiber.Ctx, httpCode int, payload interface{}) error {
	body, err := jsonAPI.Marshal(payload)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Status(httpCode).Send(body)
}

// ResponseError writes the structured error envelope. Details are the
// caller's responsibility; pass nil when they must be suppressed.
func ResponseError(c *fiber.Ctx, httpCode int, code, message string, details interface{}) error {
	return ResponseJSON(c, httpCode, ErrorResponse{Error: ErrorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}
