package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/promptforge-labs/forge_api/shared"
)

// PromptEnhancer rewrites a raw prompt into an enhanced form. Implementations
// must respect ctx cancellation.
type PromptEnhancer interface {
	Enhance(ctx context.Context, text, format string) (string, error)
	Provider() string
}

// EnhancerService owns the active PromptEnhancer. When PROVIDER_API_KEY is
// set it calls an OpenAI-compatible chat completions endpoint, otherwise it
// falls back to the built-in template enhancer so the API works offline.
type EnhancerService struct {
	appContext.DefaultService

	enhancer PromptEnhancer
}

const ENHANCER_SVC = "enhancer_svc"

func (svc EnhancerService) Id() string {
	return ENHANCER_SVC
}

func (svc *EnhancerService) Configure(ctx *appContext.Context) error {
	if apiKey := os.Getenv("PROVIDER_API_KEY"); apiKey != "" {
		svc.enhancer = newProviderEnhancer(apiKey, os.Getenv("PROVIDER_BASE_URL"), os.Getenv("PROVIDER_MODEL"))
	} else {
		svc.enhancer = &templateEnhancer{}
	}
	log.WithField("provider", svc.enhancer.Provider()).Info("Prompt enhancer configured")
	return svc.DefaultService.Configure(ctx)
}

func (svc *EnhancerService) Start() error {
	return nil
}

func (svc *EnhancerService) Enhancer() PromptEnhancer {
	return svc.enhancer
}

// templateEnhancer is the deterministic fallback: it wraps the prompt in
// format-specific framing instructions without calling out to any model.
type templateEnhancer struct{}

func (e *templateEnhancer) Provider() string {
	return "template"
}

var formatFraming = map[string]struct {
	preamble string
	guidance string
}{
	shared.FormatParagraph: {
		preamble: "Respond in flowing prose organized into coherent paragraphs.",
		guidance: "Keep transitions natural and avoid list formatting.",
	},
	shared.FormatBullet: {
		preamble: "Respond as a concise bullet list.",
		guidance: "Each bullet should carry a single idea.",
	},
	shared.FormatStructured: {
		preamble: "Respond with clearly labeled sections and headings.",
		guidance: "Order sections from context to conclusion.",
	},
	shared.FormatConversational: {
		preamble: "Respond in a friendly, conversational register.",
		guidance: "Prefer direct address and plain wording.",
	},
}

func (e *templateEnhancer) Enhance(ctx context.Context, text, format string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	framing, ok := formatFraming[format]
	if !ok {
		framing = formatFraming[shared.FormatParagraph]
	}

	var b strings.Builder
	b.WriteString("You are assisting with the following task. ")
	b.WriteString(framing.preamble)
	b.WriteString("\n\nTask: ")
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n\nGuidance: ")
	b.WriteString(framing.guidance)
	b.WriteString(" Be specific, state assumptions, and note any information that is missing.")
	return b.String(), nil
}

// providerEnhancer calls an OpenAI-compatible chat completions endpoint.
type providerEnhancer struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

const (
	defaultProviderBaseURL = "https://api.openai.com/v1"
	defaultProviderModel   = "gpt-4o-mini"
)

func newProviderEnhancer(apiKey, baseURL, model string) *providerEnhancer {
	if baseURL == "" {
		baseURL = defaultProviderBaseURL
	}
	if model == "" {
		model = defaultProviderModel
	}
	return &providerEnhancer{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  http.DefaultClient,
	}
}

func (e *providerEnhancer) Provider() string {
	return "openai"
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const enhanceSystemPrompt = "You rewrite user prompts to be clearer and more effective. " +
	"Return only the rewritten prompt, no commentary."

func (e *providerEnhancer) Enhance(ctx context.Context, text, format string) (string, error) {
	framing, ok := formatFraming[format]
	if !ok {
		framing = formatFraming[shared.FormatParagraph]
	}

	body, err := json.Marshal(&chatCompletionRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: enhanceSystemPrompt + " " + framing.preamble},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)

	start := time.Now()
	resp, err := e.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.WithFields(log.Fields{
			"status":   resp.StatusCode,
			"duration": time.Since(start),
		}).Error("Enhancement provider returned an error")
		return "", fmt.Errorf("provider error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("provider returned no choices")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}
