package agent

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	actionRe      = regexp.MustCompile(`(?m)^[ \t]*Action:[ \t]*(.+?)[ \t]*$`)
	actionInputRe = regexp.MustCompile(`(?m)^[ \t]*Action Input:[ \t]*(.*?)[ \t]*$`)
	finalAnswerRe = regexp.MustCompile(`(?m)^[ \t]*Final Answer:[ \t]*`)
	thoughtRe     = regexp.MustCompile(`(?m)^[ \t]*Thought:[ \t]*(.*?)[ \t]*$`)
)

var (
	errEmptyResponse  = errors.New("the reply was empty")
	errInvalidFormat  = errors.New("the reply did not contain an Action or a Final Answer; use the Action / Action Input or Final Answer format")
	errMissingInput   = errors.New("the Action line must be followed by an Action Input line")
	formatReminderMsg = "Reply with either 'Action:' and 'Action Input:' lines, or a 'Final Answer:' line."
)

// Step is one parsed model reply. Exactly one of Action or FinalAnswer is set.
type Step struct {
	Thought     string
	Action      string
	ActionInput string
	FinalAnswer string
	// Raw is the reply trimmed to the part that was acted on.
	Raw string
}

// ResponseHandler parses replies written in the Thought / Action / Final Answer format.
type ResponseHandler struct {
	logger *zap.Logger
}

func NewResponseHandler(logger *zap.Logger) *ResponseHandler {
	return &ResponseHandler{logger: logger}
}

// Parse extracts the next step. When a reply holds both an action and a final
// answer, whichever comes first wins.
func (r *ResponseHandler) Parse(response string) (Step, error) {
	text := strings.TrimSpace(response)
	if r.IsEmpty(text) {
		return Step{}, errEmptyResponse
	}

	var step Step
	if m := thoughtRe.FindStringSubmatch(text); m != nil {
		step.Thought = m[1]
	}

	actionLoc := actionRe.FindStringSubmatchIndex(text)
	finalLoc := finalAnswerRe.FindStringIndex(text)

	switch {
	case finalLoc != nil && (actionLoc == nil || finalLoc[0] < actionLoc[0]):
		answer := text[finalLoc[1]:]
		// A hallucinated follow-up turn is not part of the answer.
		if idx := strings.Index(answer, "\nObservation:"); idx >= 0 {
			answer = answer[:idx]
		}
		step.FinalAnswer = strings.TrimSpace(answer)
		if step.FinalAnswer == "" {
			return Step{}, errInvalidFormat
		}
		step.Raw = text
		return step, nil

	case actionLoc != nil:
		step.Action = text[actionLoc[2]:actionLoc[3]]
		rest := text[actionLoc[1]:]
		inputLoc := actionInputRe.FindStringSubmatchIndex(rest)
		if inputLoc == nil {
			return Step{}, errMissingInput
		}
		step.ActionInput = rest[inputLoc[2]:inputLoc[3]]
		step.Raw = text[:actionLoc[1]+inputLoc[1]]
		return step, nil
	}

	r.logger.Debug("Unparseable agent reply", zap.String("reply", text))
	return Step{}, errInvalidFormat
}

// IsEmpty checks if the response is empty or only whitespace.
func (r *ResponseHandler) IsEmpty(response string) bool {
	return strings.TrimSpace(response) == ""
}
