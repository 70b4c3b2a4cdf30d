// Package llmclient is a minimal client for the hosted generateContent REST
// endpoint. It makes exactly one HTTP call per request and never retries.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"csv-insights/config"
	apperrors "csv-insights/errors"
	"csv-insights/utils"

	"go.uber.org/zap"
)

// Roles used in multi-turn requests.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// maxErrorBody caps how much of a failed response body is kept on an APIError.
const maxErrorBody = 4096

// Part is one piece of message content.
type Part struct {
	Text string `json:"text"`
}

// Content is one message in a request.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerationConfig carries optional per-request sampling settings.
type GenerationConfig struct {
	Temperature   *float64 `json:"temperature,omitempty"`
	StopSequences []string `json:"stopSequences,omitempty"`
}

type generateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// APIError is returned for any non-200 response. It wraps ErrLLMCommunication.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Error: %d, %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return apperrors.ErrLLMCommunication
}

type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.LLMRequestTimeout},
		logger:     logger,
	}
}

// Generate sends a single-prompt request and returns the reply text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.GenerateContents(ctx, []Content{{Parts: []Part{{Text: prompt}}}}, nil)
}

// GenerateContents sends a multi-turn request. gen may be nil.
func (c *Client) GenerateContents(ctx context.Context, contents []Content, gen *GenerationConfig) (string, error) {
	if c.cfg.GeminiAPIKey == "" {
		return "", apperrors.ErrMissingCredential
	}

	jsonBody, err := json.Marshal(generateRequest{Contents: contents, GenerationConfig: gen})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(c.cfg.GeminiBaseURL, "/"), url.PathEscape(c.cfg.GeminiModel))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.GeminiAPIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrLLMCommunication, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body := utils.TruncateBytes(string(bodyBytes), maxErrorBody)
		c.logger.Warn("Model endpoint returned non-200",
			zap.Int("status", resp.StatusCode),
			zap.String("model", c.cfg.GeminiModel))
		return "", &APIError{StatusCode: resp.StatusCode, Body: body}
	}

	var gr generateResponse
	if err := json.Unmarshal(bodyBytes, &gr); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	if gr.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", apperrors.ErrLLMCommunication, gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in response", apperrors.ErrLLMCommunication)
	}

	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
