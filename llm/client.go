package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"forum-letter/logger"
	"forum-letter/models"
)

// CallRecorder persists one AILog per model call.
type CallRecorder interface {
	RecordAICall(ctx context.Context, log models.AILog) error
}

// maxLoggedChars bounds the prompt and response kept in ai_logs.
const maxLoggedChars = 20000

// Client wraps a Generator with quota, call logging and tagged failures.
type Client struct {
	gen      Generator
	quota    *QuotaLimiter
	recorder CallRecorder
}

// NewClient builds a Client; quota and recorder may be nil.
func NewClient(gen Generator, quota *QuotaLimiter, recorder CallRecorder) *Client {
	return &Client{gen: gen, quota: quota, recorder: recorder}
}

// Call sends req and returns the raw JSON payload found in the response.
// Every failure is a *CallError.
func (c *Client) Call(ctx context.Context, stage string, req Request) ([]byte, error) {
	ok, err := c.quota.WaitAndReserve(ctx)
	if err != nil {
		return nil, callError(stage, ReasonCanceled, err)
	}
	if !ok {
		return nil, callError(stage, ReasonQuota, ErrQuotaExceeded)
	}

	started := time.Now()
	resp, genErr := c.gen.Generate(ctx, req)
	finished := time.Now()
	c.record(ctx, stage, req, resp, genErr, started, finished)

	if genErr != nil {
		if errors.Is(genErr, context.Canceled) || errors.Is(genErr, context.DeadlineExceeded) {
			return nil, callError(stage, ReasonCanceled, genErr)
		}
		return nil, callError(stage, ReasonTransport, genErr)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return nil, callError(stage, ReasonEmpty, ErrEmptyResponse)
	}
	raw, found := ExtractJSON(resp.Text)
	if !found {
		return nil, callError(stage, ReasonMalformed, fmt.Errorf("%w: no JSON in %d bytes of output", ErrMalformedResponse, len(resp.Text)))
	}

	logger.DebugWithFields("llm call finished", logger.Fields{
		"stage":         stage,
		"model":         req.Model,
		"latency_ms":    finished.Sub(started).Milliseconds(),
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
		"quota_left":    c.quota.Remaining(),
	})
	return raw, nil
}

func (c *Client) record(ctx context.Context, stage string, req Request, resp *Response, callErr error, started, finished time.Time) {
	if c.recorder == nil {
		return
	}
	entry := models.AILog{
		Stage:       stage,
		Provider:    c.gen.Provider(),
		ModelName:   req.Model,
		DurationMs:  finished.Sub(started).Milliseconds(),
		InputPrompt: clip(req.System+"\n\n"+req.Prompt, maxLoggedChars),
		RequestedAt: started,
		CompletedAt: finished,
	}
	if resp != nil {
		entry.ModelVersion = resp.ModelVersion
		entry.InputTokens = resp.Usage.InputTokens
		entry.OutputTokens = resp.Usage.OutputTokens
		entry.TotalTokens = resp.Usage.TotalTokens
		entry.OutputResponse = clip(resp.Text, maxLoggedChars)
	}
	if callErr != nil {
		msg := callErr.Error()
		entry.ErrorMessage = &msg
	}
	if err := c.recorder.RecordAICall(context.WithoutCancel(ctx), entry); err != nil {
		logger.Log.Warnf("failed to record ai log: %v", err)
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}
