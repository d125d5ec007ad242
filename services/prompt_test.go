package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/promptforge-labs/forge_api/dto"
	"github.com/promptforge-labs/forge_api/shared"
)

var testDBCounter int

func newTestSqliteService(t *testing.T) *SqliteService {
	t.Helper()

	testDBCounter++
	svc := &SqliteService{
		database: fmt.Sprintf("file:prompttest%d?mode=memory&cache=shared", testDBCounter),
	}
	require.NoError(t, svc.Start())
	return svc
}

func newTestPromptService(t *testing.T, enhancer PromptEnhancer) *PromptService {
	t.Helper()

	return &PromptService{
		maxTextLen:     5000,
		enhanceTimeout: time.Second,
		sqliteSvc:      newTestSqliteService(t),
		enhancerSvc:    &EnhancerService{enhancer: enhancer},
	}
}

func TestPromptCreateAndGet(t *testing.T) {
	svc := newTestPromptService(t, &templateEnhancer{})
	ctx := context.Background()

	prompt, err := svc.Create(ctx, &dto.EnhancePromptRequest{Text: "Summarize this report"})
	require.NoError(t, err)
	require.NotEmpty(t, prompt.ID)
	require.Equal(t, "Summarize this report", prompt.OriginalText)
	require.Contains(t, prompt.EnhancedText, "Summarize this report")
	require.Equal(t, shared.FormatParagraph, prompt.Format)
	require.False(t, prompt.CreatedAt.IsZero())

	got, err := svc.Get(prompt.ID)
	require.NoError(t, err)
	require.Equal(t, prompt.ID, got.ID)
	require.Equal(t, prompt.EnhancedText, got.EnhancedText)
}

func TestPromptGetMissing(t *testing.T) {
	svc := newTestPromptService(t, &templateEnhancer{})

	_, err := svc.Get("does-not-exist")
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	require.Equal(t, shared.CodeResourceNotFound, appErr.Code)
}

func TestPromptList(t *testing.T) {
	svc := newTestPromptService(t, &templateEnhancer{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, &dto.EnhancePromptRequest{
			Text:   fmt.Sprintf("prompt number %d", i),
			Format: shared.FormatBullet,
		})
		require.NoError(t, err)
	}

	prompts, err := svc.List()
	require.NoError(t, err)
	require.Len(t, prompts, 3)
}

func TestPromptUpdateReEnhances(t *testing.T) {
	svc := newTestPromptService(t, &templateEnhancer{})
	ctx := context.Background()

	prompt, err := svc.Create(ctx, &dto.EnhancePromptRequest{Text: "original", Format: shared.FormatBullet})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, prompt.ID, &dto.EnhancePromptRequest{Text: "replacement"})
	require.NoError(t, err)
	require.Equal(t, "replacement", updated.OriginalText)
	require.Contains(t, updated.EnhancedText, "replacement")
	require.NotContains(t, updated.EnhancedText, "original")
	// Format carries over when the update does not specify one.
	require.Equal(t, shared.FormatBullet, updated.Format)
}

func TestPromptUpdateMissing(t *testing.T) {
	svc := newTestPromptService(t, &templateEnhancer{})

	_, err := svc.Update(context.Background(), "nope", &dto.EnhancePromptRequest{Text: "x"})
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	require.Equal(t, shared.CodeResourceNotFound, appErr.Code)
}

func TestPromptDelete(t *testing.T) {
	svc := newTestPromptService(t, &templateEnhancer{})
	ctx := context.Background()

	prompt, err := svc.Create(ctx, &dto.EnhancePromptRequest{Text: "short lived"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(prompt.ID))

	err = svc.Delete(prompt.ID)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	require.Equal(t, shared.CodeResourceNotFound, appErr.Code)
}

func TestPromptOversizedText(t *testing.T) {
	svc := newTestPromptService(t, &templateEnhancer{})
	svc.maxTextLen = 100

	_, err := svc.Create(context.Background(), &dto.EnhancePromptRequest{
		Text: strings.Repeat("a", 101),
	})
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	require.Equal(t, shared.CodePayloadTooLarge, appErr.Code)
	require.Equal(t, 413, appErr.StatusCode)
}

// stallingEnhancer never answers; it only honors cancellation.
type stallingEnhancer struct{}

func (e *stallingEnhancer) Provider() string { return "stalling" }

func (e *stallingEnhancer) Enhance(ctx context.Context, text, format string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestPromptEnhancementTimeout(t *testing.T) {
	svc := newTestPromptService(t, &stallingEnhancer{})
	svc.enhanceTimeout = 50 * time.Millisecond

	_, err := svc.Create(context.Background(), &dto.EnhancePromptRequest{Text: "slow"})
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	require.Equal(t, shared.CodeEnhancementTimeout, appErr.Code)
	require.Equal(t, 503, appErr.StatusCode)
}

// brokenEnhancer fails immediately with a provider fault.
type brokenEnhancer struct{}

func (e *brokenEnhancer) Provider() string { return "broken" }

func (e *brokenEnhancer) Enhance(ctx context.Context, text, format string) (string, error) {
	return "", fmt.Errorf("upstream exploded")
}

func TestPromptEnhancementFailure(t *testing.T) {
	svc := newTestPromptService(t, &brokenEnhancer{})

	_, err := svc.Create(context.Background(), &dto.EnhancePromptRequest{Text: "doomed"})
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	require.Equal(t, shared.CodeServiceError, appErr.Code)
	require.Equal(t, 503, appErr.StatusCode)
}
