// Package agent answers free-text questions about a CSV file by letting a
// remote model call a small set of table tools in a Thought / Action /
// Observation loop.
package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"csv-insights/config"
	"csv-insights/dataset"
	apperrors "csv-insights/errors"
	"csv-insights/llmclient"
	"csv-insights/prompts"
	"csv-insights/utils"

	"go.uber.org/zap"
)

// ErrNoAnswer is returned when the loop stops before the model gives a final answer.
var ErrNoAnswer = errors.New("agent stopped without an answer")

const maxObservationChars = 4000

// Generator is the remote model the agent talks to.
type Generator interface {
	GenerateContents(ctx context.Context, contents []llmclient.Content, gen *llmclient.GenerationConfig) (string, error)
}

type Agent struct {
	cfg             *config.Config
	model           Generator
	tools           *Toolbox
	responseHandler *ResponseHandler
	logger          *zap.Logger
}

func NewAgent(cfg *config.Config, model Generator, logger *zap.Logger) *Agent {
	return &Agent{
		cfg:             cfg,
		model:           model,
		tools:           NewToolbox(),
		responseHandler: NewResponseHandler(logger),
		logger:          logger,
	}
}

// Run loads csvPath and works on question until the model produces a final
// answer or the loop limits are hit. Remote failures end the run immediately.
func (a *Agent) Run(ctx context.Context, csvPath, question string) (string, error) {
	table, err := dataset.LoadFile(csvPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if table.Empty() {
		return "", fmt.Errorf("%w: dataset is empty", apperrors.ErrInvalidInput)
	}

	schema, _ := columnsTool(table, "")
	system := prompts.CSVAgent(filepath.Base(csvPath), schema, a.tools.Describe())
	history := []llmclient.Content{
		userContent(system + "\nQuestion: " + question),
	}

	temperature := 0.0
	gen := &llmclient.GenerationConfig{
		Temperature:   &temperature,
		StopSequences: []string{"Observation:"},
	}

	loop := NewConversationLoop(a.cfg, a.logger)
	cache := NewActionCache()
	memory := NewMemoryManager(a.cfg.AgentHistoryChars, a.logger)

	for turn := 0; ; turn++ {
		if ok, reason := loop.ShouldContinue(turn); !ok {
			return "", fmt.Errorf("%w: %s", ErrNoAnswer, reason)
		}

		memory.ManageHistory(&history)
		reply, err := a.model.GenerateContents(ctx, history, gen)
		if err != nil {
			return "", fmt.Errorf("agent turn %d: %w", turn+1, err)
		}

		step, err := a.responseHandler.Parse(reply)
		if err != nil {
			loop.RecordError()
			history = append(history,
				modelContent(reply),
				userContent("Observation: "+err.Error()+". "+formatReminderMsg))
			continue
		}
		history = append(history, modelContent(step.Raw))

		if step.FinalAnswer != "" {
			a.logger.Info("Agent produced final answer",
				zap.Int("turns", turn+1),
				zap.Int("tool_calls", cache.Len()))
			return step.FinalAnswer, nil
		}

		observation := a.act(table, step, turn, cache, loop)
		history = append(history, userContent("Observation: "+observation))
	}
}

func (a *Agent) act(table *dataset.Table, step Step, turn int, cache *ActionCache, loop *ConversationLoop) string {
	sig := ActionSignature{Tool: step.Action, Input: step.ActionInput}
	if prev, ok := cache.Lookup(sig); ok {
		loop.RecordError()
		a.logger.Debug("Repeated agent action", zap.String("action", sig.String()), zap.Int("first_turn", prev.Turn+1))
		return prev.Output + "\n(You already ran this exact action. Use the result above or try something different.)"
	}

	output, err := a.tools.Run(table, step.Action, step.ActionInput)
	res := &ActionResult{Signature: sig, Turn: turn, Success: err == nil}
	if err != nil {
		loop.RecordError()
		res.Output = "Error: " + err.Error()
		a.logger.Debug("Agent tool call failed", zap.String("action", sig.String()), zap.Error(err))
	} else {
		loop.RecordSuccess()
		res.Output = truncate(output, maxObservationChars)
	}
	cache.Record(res)
	return res.Output
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return strings.TrimRight(s, "\n")
	}
	return utils.TruncateBytes(s, n) + "\n... (truncated)"
}

func userContent(text string) llmclient.Content {
	return llmclient.Content{Role: llmclient.RoleUser, Parts: []llmclient.Part{{Text: text}}}
}

func modelContent(text string) llmclient.Content {
	return llmclient.Content{Role: llmclient.RoleModel, Parts: []llmclient.Part{{Text: text}}}
}
