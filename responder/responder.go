// Package responder answers chat messages. Only two exact phrases are
// recognised; this is demo behaviour, not intent detection. Matching is
// case-sensitive and nothing is trimmed.
package responder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	apperrors "csv-insights/errors"

	"go.uber.org/zap"
)

// Trigger phrases.
const (
	GreetingPhrase     = "Hi"
	GraphSummaryPhrase = "what does this graph specifies"
)

// RefusalText is returned for every message that is not a trigger phrase.
const RefusalText = "I'm sorry, I don't understand that message."

const noGraphText = "There is no graph to summarize yet. Upload a CSV file first."

// Trigger identifies which canned behaviour a message selects.
type Trigger int

const (
	TriggerNone Trigger = iota
	TriggerGreeting
	TriggerGraphSummary
)

func (t Trigger) String() string {
	switch t {
	case TriggerGreeting:
		return "greeting"
	case TriggerGraphSummary:
		return "graph_summary"
	default:
		return "none"
	}
}

// Match maps a message to its trigger by exact string equality.
func Match(message string) Trigger {
	switch message {
	case GreetingPhrase:
		return TriggerGreeting
	case GraphSummaryPhrase:
		return TriggerGraphSummary
	default:
		return TriggerNone
	}
}

// ReplyKind tags how a reply was produced.
type ReplyKind string

const (
	ReplyModel   ReplyKind = "model"
	ReplyRefusal ReplyKind = "refusal"
	ReplyFailure ReplyKind = "failure"
)

// Reply is the bot's answer. Failure replies carry a message meant for the user.
type Reply struct {
	Kind ReplyKind
	Text string
}

// Model is the remote generative service.
type Model interface {
	Chat(ctx context.Context, message string) (string, error)
	SummarizeFile(ctx context.Context, r io.Reader, mimeType string) (string, error)
}

// Request is one incoming chat message plus what the session knows.
type Request struct {
	Message string
	// LastChartPNG is the most recent chart rendered in this session, if any.
	LastChartPNG []byte
}

type Responder struct {
	model            Model
	graphSummaryFile string
	logger           *zap.Logger
}

// New builds a responder. graphSummaryFile is optional; when set it is
// summarized instead of the session's last chart.
func New(model Model, graphSummaryFile string, logger *zap.Logger) *Responder {
	return &Responder{model: model, graphSummaryFile: graphSummaryFile, logger: logger}
}

// Respond never returns an error; remote failures become ReplyFailure.
func (r *Responder) Respond(ctx context.Context, req Request) Reply {
	trigger := Match(req.Message)
	r.logger.Debug("Responder dispatch", zap.String("trigger", trigger.String()))

	switch trigger {
	case TriggerGreeting:
		text, err := r.model.Chat(ctx, req.Message)
		if err != nil {
			return r.failure("greeting", err)
		}
		return Reply{Kind: ReplyModel, Text: text}

	case TriggerGraphSummary:
		data, mimeType, err := r.graphImage(req.LastChartPNG)
		if err != nil {
			return r.failure("graph summary", err)
		}
		if data == nil {
			return Reply{Kind: ReplyFailure, Text: noGraphText}
		}
		text, err := r.model.SummarizeFile(ctx, bytes.NewReader(data), mimeType)
		if err != nil {
			return r.failure("graph summary", err)
		}
		return Reply{Kind: ReplyModel, Text: text}

	default:
		return Reply{Kind: ReplyRefusal, Text: RefusalText}
	}
}

func (r *Responder) graphImage(lastChart []byte) ([]byte, string, error) {
	if r.graphSummaryFile != "" {
		data, err := os.ReadFile(r.graphSummaryFile)
		if err != nil {
			return nil, "", fmt.Errorf("read graph file %s: %w", filepath.Base(r.graphSummaryFile), err)
		}
		return data, mimeForImage(r.graphSummaryFile), nil
	}
	if len(lastChart) == 0 {
		return nil, "", nil
	}
	return lastChart, "image/png", nil
}

func (r *Responder) failure(action string, err error) Reply {
	r.logger.Error("Responder remote call failed", zap.String("action", action), zap.Error(err))
	if apperrors.IsMissingCredential(err) {
		return Reply{Kind: ReplyFailure, Text: "The chat model is not configured. Set GEMINI_API_KEY to enable it."}
	}
	return Reply{Kind: ReplyFailure, Text: fmt.Sprintf("Sorry, the %s request failed: %v", action, err)}
}

func mimeForImage(path string) string {
	switch filepath.Ext(path) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".svg":
		return "image/svg+xml"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
