package types

import (
	"html/template"
	"time"

	"github.com/google/uuid"
)

// Speaker identifies who produced a transcript turn.
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerBot  Speaker = "bot"
)

// Turn is one entry in a chat transcript.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
	// HTML is the rendered form of Text for bot replies.
	HTML template.HTML `json:"-"`
	// ChartImage is a PNG data URI when the turn is a chart.
	ChartImage string `json:"chart_image,omitempty"`
}

// Session is the per-browser state. Handlers receive a copy and hand it back
// to the session store when they are done.
type Session struct {
	ID           uuid.UUID
	Transcript   []Turn
	LastChartPNG []byte
	CreatedAt    time.Time
	LastActive   time.Time
}

// Append adds turns to the end of the transcript.
func (s *Session) Append(turns ...Turn) {
	s.Transcript = append(s.Transcript, turns...)
}

// Clone returns a copy whose transcript can be appended to without touching s.
func (s *Session) Clone() *Session {
	c := *s
	c.Transcript = append([]Turn(nil), s.Transcript...)
	return &c
}

// ChartInfo describes a rendered chart for JSON clients.
type ChartInfo struct {
	Kind  string `json:"kind"`
	X     string `json:"x"`
	Y     string `json:"y"`
	Title string `json:"title"`
}

// VisualizationResult is the outcome of one dashboard request. Either Message
// is set (nothing was drawn) or Chart is.
type VisualizationResult struct {
	Message    string        `json:"message,omitempty"`
	Chart      *ChartInfo    `json:"chart,omitempty"`
	Insight    string        `json:"insight,omitempty"`
	Image      string        `json:"image,omitempty"`
	SVG        string        `json:"svg,omitempty"`
	ChartHTML  template.HTML `json:"-"`
	UsedSample bool          `json:"used_sample"`
}

// QAResult is the outcome of one question about an uploaded CSV.
type QAResult struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
	Error    string `json:"error,omitempty"`
	// Truncated is set when the answer was cut to the configured length.
	Truncated bool `json:"truncated,omitempty"`
}
