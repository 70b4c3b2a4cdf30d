// Package viz turns a plain-text chart request and a table into a rendered
// chart. The keyword match is deliberately simple: it is a placeholder for a
// real natural-language-to-chart engine, not one.
package viz

import (
	"strings"

	"csv-insights/dataset"
)

// Kind is a supported chart shape.
type Kind string

const (
	KindBar     Kind = "bar"
	KindLine    Kind = "line"
	KindScatter Kind = "scatter"
)

// keywords are checked in order; the first hit wins.
var keywords = []Kind{KindBar, KindLine, KindScatter}

var titles = map[Kind]string{
	KindBar:     "Bar Chart",
	KindLine:    "Line Graph",
	KindScatter: "Scatter Plot",
}

// ChartSpec is what to draw. It is derived fresh for every request.
type ChartSpec struct {
	Kind  Kind
	X     string
	Y     string
	Title string
}

// Classify picks the chart kind from the lower-cased text and uses the first
// two columns of t as the axes. A table narrower than two columns leaves the
// missing axis names empty; Render rejects it.
func Classify(text string, t *dataset.Table) ChartSpec {
	lower := strings.ToLower(text)
	kind := KindBar
	for _, k := range keywords {
		if strings.Contains(lower, string(k)) {
			kind = k
			break
		}
	}
	return NewSpec(kind, t)
}

// NewSpec builds the spec for an explicit kind over the first two columns.
func NewSpec(kind Kind, t *dataset.Table) ChartSpec {
	spec := ChartSpec{Kind: kind, Title: Title(kind)}
	names := t.ColumnNames()
	if len(names) > 0 {
		spec.X = names[0]
	}
	if len(names) > 1 {
		spec.Y = names[1]
	}
	return spec
}

// Title returns the fixed title for a kind, or "" if the kind is unknown.
func Title(kind Kind) string {
	return titles[kind]
}
