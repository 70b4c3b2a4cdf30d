// Package gemini wraps the Gemini Go SDK for the two chat actions that go
// through it: a greeting chat turn and a one-file summary.
package gemini

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"csv-insights/config"
	apperrors "csv-insights/errors"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// SummaryPrompt is sent alongside an uploaded file.
const SummaryPrompt = "Give me a summary of this file."

const filePollInterval = 2 * time.Second

// Client opens a fresh SDK client for every call, so no remote chat state is
// shared between users.
type Client struct {
	cfg          *config.Config
	logger       *zap.Logger
	pollInterval time.Duration
}

func New(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{cfg: cfg, logger: logger, pollInterval: filePollInterval}
}

func (c *Client) open(ctx context.Context) (*genai.Client, *genai.GenerativeModel, error) {
	if c.cfg.GeminiAPIKey == "" {
		return nil, nil, apperrors.ErrMissingCredential
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.cfg.GeminiAPIKey))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: create genai client: %v", apperrors.ErrLLMCommunication, err)
	}

	model := client.GenerativeModel(c.cfg.GeminiModel)
	model.SetTemperature(1)
	model.SetTopP(0.95)
	model.SetTopK(40)
	model.SetMaxOutputTokens(8192)
	model.ResponseMIMEType = "text/plain"
	return client, model, nil
}

// Chat starts a new chat session, sends message and returns the reply text.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	client, model, err := c.open(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	resp, err := model.StartChat().SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("%w: send chat message: %v", apperrors.ErrLLMCommunication, err)
	}
	return responseText(resp)
}

// SummarizeFile uploads r, waits for it to become active, asks for a summary
// and deletes the remote copy afterwards.
func (c *Client) SummarizeFile(ctx context.Context, r io.Reader, mimeType string) (string, error) {
	client, model, err := c.open(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	return c.summarize(ctx, client, r, mimeType, func(file *genai.File) (*genai.GenerateContentResponse, error) {
		return model.GenerateContent(ctx, genai.Text(SummaryPrompt), genai.FileData{URI: file.URI, MIMEType: file.MIMEType})
	})
}

// fileStore is the part of *genai.Client that manages uploaded files.
type fileStore interface {
	UploadFile(ctx context.Context, name string, r io.Reader, opts *genai.UploadFileOptions) (*genai.File, error)
	GetFile(ctx context.Context, name string) (*genai.File, error)
	DeleteFile(ctx context.Context, name string) error
}

type generateFunc func(file *genai.File) (*genai.GenerateContentResponse, error)

func (c *Client) summarize(ctx context.Context, files fileStore, r io.Reader, mimeType string, generate generateFunc) (string, error) {
	file, err := files.UploadFile(ctx, "", r, &genai.UploadFileOptions{MIMEType: mimeType})
	if err != nil {
		return "", fmt.Errorf("%w: upload file: %v", apperrors.ErrLLMCommunication, err)
	}
	if file == nil {
		return "", fmt.Errorf("%w: upload file: no file returned", apperrors.ErrLLMCommunication)
	}
	name := file.Name
	defer func() {
		if err := files.DeleteFile(context.WithoutCancel(ctx), name); err != nil {
			c.logger.Warn("Failed to delete uploaded file", zap.String("file", name), zap.Error(err))
		}
	}()

	for file.State == genai.FileStateProcessing {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
		next, err := files.GetFile(ctx, name)
		if err != nil {
			return "", fmt.Errorf("%w: get file state: %v", apperrors.ErrLLMCommunication, err)
		}
		if next == nil {
			return "", fmt.Errorf("%w: get file state: no file returned", apperrors.ErrLLMCommunication)
		}
		file = next
	}
	if file.State != genai.FileStateActive {
		return "", fmt.Errorf("%w: uploaded file %s is in state %s", apperrors.ErrLLMCommunication, name, file.State)
	}

	c.logger.Debug("Requesting file summary", zap.String("file", name), zap.String("mime_type", mimeType))
	resp, err := generate(file)
	if err != nil {
		return "", fmt.Errorf("%w: generate summary: %v", apperrors.ErrLLMCommunication, err)
	}
	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty response", apperrors.ErrLLMCommunication)
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}
