package agent

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// ActionSignature identifies a tool call independent of whitespace and case.
type ActionSignature struct {
	Tool  string
	Input string
}

// ComputeHash returns a deterministic key for the signature.
func (a ActionSignature) ComputeHash() string {
	normalized := strings.ToLower(strings.TrimSpace(a.Tool)) + "\x00" +
		strings.Join(strings.Fields(strings.ToLower(a.Input)), " ")
	hash := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hash[:8])
}

func (a ActionSignature) String() string {
	return fmt.Sprintf("%s(%s)", a.Tool, a.Input)
}

// ActionResult stores the outcome of an executed tool call.
type ActionResult struct {
	Signature ActionSignature
	Output    string
	Success   bool
	Turn      int
}

// ActionCache remembers the tool calls made during one Run so repeats can be
// answered from memory and flagged to the model.
type ActionCache struct {
	completed map[string]*ActionResult
}

func NewActionCache() *ActionCache {
	return &ActionCache{completed: make(map[string]*ActionResult)}
}

// Lookup returns the earlier result for an identical call, if any.
func (c *ActionCache) Lookup(sig ActionSignature) (*ActionResult, bool) {
	res, ok := c.completed[sig.ComputeHash()]
	return res, ok
}

// Record stores the result of a call.
func (c *ActionCache) Record(res *ActionResult) {
	c.completed[res.Signature.ComputeHash()] = res
}

// Len returns the number of distinct calls recorded.
func (c *ActionCache) Len() int {
	return len(c.completed)
}
