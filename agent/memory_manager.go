package agent

import (
	"fmt"

	"csv-insights/llmclient"

	"go.uber.org/zap"
)

// MemoryManager keeps the loop history under a character budget by dropping
// the oldest action/observation pairs.
type MemoryManager struct {
	limitChars int
	dropped    int
	logger     *zap.Logger
}

// NewMemoryManager creates a new memory manager instance.
func NewMemoryManager(limitChars int, logger *zap.Logger) *MemoryManager {
	return &MemoryManager{
		limitChars: limitChars,
		logger:     logger,
	}
}

// CalculateHistorySize returns the number of characters across all parts.
func (m *MemoryManager) CalculateHistorySize(history []llmclient.Content) int {
	total := 0
	for _, c := range history {
		for _, p := range c.Parts {
			total += len(p.Text)
		}
	}
	return total
}

func (m *MemoryManager) IsOverThreshold(history []llmclient.Content) bool {
	return m.limitChars > 0 && m.CalculateHistorySize(history) > m.limitChars
}

// ManageHistory trims history in place when it exceeds the budget. history[0]
// is the prompt and is always kept; after it, model replies and observations
// alternate and are removed in pairs.
func (m *MemoryManager) ManageHistory(history *[]llmclient.Content) {
	if !m.IsOverThreshold(*history) {
		return
	}

	steps := (*history)[1:]
	cutoff := len(steps) / 2
	// Never split a model reply from the observation that answers it.
	if cutoff%2 == 1 {
		cutoff++
	}
	if cutoff == 0 || cutoff >= len(steps) {
		return
	}
	m.dropped += cutoff / 2

	prompt := (*history)[0]
	parts := append([]llmclient.Part(nil), prompt.Parts...)
	note := llmclient.Part{Text: fmt.Sprintf("(%d earlier steps were dropped to save space; repeat an action if you need its result again.)", m.dropped)}
	if m.dropped > cutoff/2 {
		// Replace the previous note rather than stacking them.
		parts[len(parts)-1] = note
	} else {
		parts = append(parts, note)
	}

	trimmed := make([]llmclient.Content, 0, 1+len(steps)-cutoff)
	trimmed = append(trimmed, llmclient.Content{Role: prompt.Role, Parts: parts})
	trimmed = append(trimmed, steps[cutoff:]...)
	*history = trimmed

	m.logger.Info("Agent history trimmed",
		zap.Int("steps_dropped", cutoff/2),
		zap.Int("remaining_messages", len(*history)),
		zap.Int("history_chars", m.CalculateHistorySize(*history)))
}

// Dropped reports how many action/observation pairs have been removed so far.
func (m *MemoryManager) Dropped() int {
	return m.dropped
}
