package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"csv-insights/agent"
	apperrors "csv-insights/errors"
	"csv-insights/llmclient"
	"csv-insights/utils"
	"csv-insights/web/types"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"
)

// QA messages shown in place of an answer.
const (
	MsgMissingQuestion = "Please enter a question about your data."
	MsgMissingFile     = "Please upload a CSV file to ask about."
	msgNotConfigured   = "The question-answering model is not configured. Set GEMINI_API_KEY to enable it."
)

// QAAgent answers a question about the CSV at csvPath.
type QAAgent interface {
	Run(ctx context.Context, csvPath, question string) (string, error)
}

// QAService hands an uploaded file and a question to the agent.
type QAService struct {
	agent          QAAgent
	maxAnswerChars int
	logger         *zap.Logger
}

func NewQAService(a QAAgent, maxAnswerChars int, logger *zap.Logger) *QAService {
	return &QAService{agent: a, maxAnswerChars: maxAnswerChars, logger: logger}
}

// Ask writes the upload to a temporary file for the duration of the call and
// returns the agent's answer or a user-facing error.
func (qs *QAService) Ask(ctx context.Context, upload *Upload, question string) *types.QAResult {
	result := &types.QAResult{Question: question}
	if strings.TrimSpace(question) == "" {
		result.Error = MsgMissingQuestion
		return result
	}
	if upload == nil {
		result.Error = MsgMissingFile
		return result
	}

	answer, err := qs.withTempFile(upload, func(path string) (string, error) {
		return qs.agent.Run(ctx, path, question)
	})
	if err != nil {
		qs.logger.Warn("Question could not be answered",
			zap.String("filename", upload.Filename),
			zap.Error(err))
		result.Error = qaErrorMessage(err)
		return result
	}

	result.Answer, result.Truncated = qs.truncate(answer)
	return result
}

func (qs *QAService) withTempFile(upload *Upload, fn func(path string) (string, error)) (string, error) {
	data, err := upload.Bytes()
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: the uploaded file is empty", apperrors.ErrInvalidInput)
	}

	f, err := os.CreateTemp("", "csv-insights-*"+upload.Ext())
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			qs.logger.Warn("Failed to remove temp file", zap.String("path", path), zap.Error(err))
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return fn(path)
}

// truncate cuts an over-long answer at the last sentence boundary that fits.
func (qs *QAService) truncate(answer string) (string, bool) {
	if qs.maxAnswerChars <= 0 || len(answer) <= qs.maxAnswerChars {
		return answer, false
	}

	doc, err := prose.NewDocument(answer,
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		qs.logger.Warn("Failed to segment answer, truncating at character boundary", zap.Error(err))
		return utils.TruncateBytes(answer, qs.maxAnswerChars), true
	}

	var sb strings.Builder
	for _, sent := range doc.Sentences() {
		next := sent.Text
		if sb.Len() > 0 {
			next = " " + next
		}
		if sb.Len()+len(next) > qs.maxAnswerChars {
			break
		}
		sb.WriteString(next)
	}
	if sb.Len() == 0 {
		return utils.TruncateBytes(answer, qs.maxAnswerChars), true
	}
	return sb.String(), true
}

func qaErrorMessage(err error) string {
	var apiErr *llmclient.APIError
	switch {
	case apperrors.IsMissingCredential(err):
		return msgNotConfigured
	case apperrors.IsInvalidInput(err):
		return "Error reading the file: " + err.Error()
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, agent.ErrNoAnswer):
		return "The agent could not find an answer: " + strings.TrimPrefix(err.Error(), agent.ErrNoAnswer.Error()+": ")
	default:
		return "Error: " + err.Error()
	}
}
