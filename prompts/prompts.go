package prompts

import (
	_ "embed"
	"strings"
)

//go:embed csv_agent.txt
var csvAgent string

// CSVAgent returns the system prompt for the CSV question-answering agent.
func CSVAgent(file, schema, tools string) string {
	return strings.NewReplacer(
		"{file}", file,
		"{schema}", schema,
		"{tools}", tools,
	).Replace(csvAgent)
}
