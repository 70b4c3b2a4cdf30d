package agent

import (
	"csv-insights/config"

	"go.uber.org/zap"
)

// Stop reasons reported when the loop ends without a final answer.
const (
	ReasonConsecutiveErrors = "Consecutive errors, the agent could not make progress."
	ReasonMaxTurns          = "Maximum turns reached."
)

// ConversationLoop tracks turns and failed steps for one Run and decides
// when to give up.
type ConversationLoop struct {
	maxTurns          int
	maxErrors         int
	consecutiveErrors int
	logger            *zap.Logger
}

// NewConversationLoop creates a loop bounded by MAX_TURNS and CONSECUTIVE_ERRORS.
func NewConversationLoop(cfg *config.Config, logger *zap.Logger) *ConversationLoop {
	return &ConversationLoop{
		maxTurns:  cfg.MaxTurns,
		maxErrors: cfg.ConsecutiveErrors,
		logger:    logger,
	}
}

// ShouldContinue reports whether another model turn may start. When it
// returns false, reason says why.
func (c *ConversationLoop) ShouldContinue(turn int) (bool, string) {
	if c.consecutiveErrors >= c.maxErrors {
		c.logger.Warn("Agent produced consecutive errors, stopping",
			zap.Int("consecutive_errors", c.consecutiveErrors))
		return false, ReasonConsecutiveErrors
	}

	if turn >= c.maxTurns {
		c.logger.Info("Reached maximum turns limit",
			zap.Int("max_turns", c.maxTurns))
		return false, ReasonMaxTurns
	}

	return true, ""
}

// RecordError counts a malformed reply or failed tool call.
func (c *ConversationLoop) RecordError() {
	c.consecutiveErrors++
	c.logger.Debug("Recorded agent step error",
		zap.Int("consecutive_errors", c.consecutiveErrors))
}

// RecordSuccess resets the consecutive error counter.
func (c *ConversationLoop) RecordSuccess() {
	if c.consecutiveErrors > 0 {
		c.logger.Debug("Resetting consecutive error count after successful step")
		c.consecutiveErrors = 0
	}
}

// ConsecutiveErrors returns the current consecutive error count.
func (c *ConversationLoop) ConsecutiveErrors() int {
	return c.consecutiveErrors
}
