package agent

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"csv-insights/dataset"
)

const (
	defaultHeadRows = 5
	maxHeadRows     = 50
	maxUniqueValues = 20
)

// Tool is one operation the model can request against the loaded table.
type Tool struct {
	Name        string
	Description string
	Run         func(t *dataset.Table, input string) (string, error)
}

// Toolbox holds the tools available to the agent, in prompt order.
type Toolbox struct {
	tools []Tool
	index map[string]Tool
}

func NewToolbox() *Toolbox {
	tools := []Tool{
		{Name: "columns", Description: "List every column with its inferred type. Input is ignored.", Run: columnsTool},
		{Name: "head", Description: "Show the first N rows as CSV. Input: N (default 5, max 50).", Run: headTool},
		{Name: "describe", Description: "Summary statistics for one column, or for every column when the input is empty.", Run: describeTool},
		{Name: "unique", Description: "Distinct values of a column with their counts, most frequent first. Input: column name.", Run: uniqueTool},
		{Name: "count_where", Description: "Count rows matching a condition. Input: <column> <op> <value>, op is one of == != > >= < <= contains.", Run: countWhereTool},
	}
	tb := &Toolbox{tools: tools, index: make(map[string]Tool, len(tools))}
	for _, tool := range tools {
		tb.index[tool.Name] = tool
	}
	return tb
}

// Describe renders the tool list for the system prompt.
func (tb *Toolbox) Describe() string {
	var sb strings.Builder
	for _, tool := range tb.tools {
		fmt.Fprintf(&sb, "- %s: %s\n", tool.Name, tool.Description)
	}
	return sb.String()
}

// Run executes the named tool.
func (tb *Toolbox) Run(t *dataset.Table, name, input string) (string, error) {
	tool, ok := tb.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unknown tool %q; available tools: %s", name, strings.Join(tb.names(), ", "))
	}
	return tool.Run(t, cleanInput(input))
}

func (tb *Toolbox) names() []string {
	names := make([]string, len(tb.tools))
	for i, tool := range tb.tools {
		names[i] = tool.Name
	}
	return names
}

// cleanInput strips whitespace and a single layer of quotes or backticks.
func cleanInput(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

func lookupColumn(t *dataset.Table, name string) (*dataset.Column, error) {
	if c, ok := t.Column(name); ok {
		return c, nil
	}
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i], nil
		}
	}
	return nil, fmt.Errorf("column %q not found; columns are: %s", name, strings.Join(t.ColumnNames(), ", "))
}

func columnsTool(t *dataset.Table, _ string) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d rows, %d columns\n", t.NumRows(), t.NumColumns())
	for _, c := range t.Columns {
		fmt.Fprintf(&sb, "- %s (%s)\n", c.Name, c.Kind)
	}
	return sb.String(), nil
}

func headTool(t *dataset.Table, input string) (string, error) {
	n := defaultHeadRows
	if input != "" {
		v, err := strconv.Atoi(input)
		if err != nil || v <= 0 {
			return "", fmt.Errorf("head expects a positive row count, got %q", input)
		}
		n = v
	}
	if n > maxHeadRows {
		n = maxHeadRows
	}
	if n > t.NumRows() {
		n = t.NumRows()
	}

	names := t.ColumnNames()
	head := &dataset.Table{Columns: make([]dataset.Column, len(names))}
	for i, c := range t.Columns {
		head.Columns[i] = dataset.Column{Name: c.Name, Kind: c.Kind, Values: c.Values[:n]}
	}
	var sb strings.Builder
	if err := head.WriteCSV(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func describeTool(t *dataset.Table, input string) (string, error) {
	if input == "" {
		var sb strings.Builder
		for i := range t.Columns {
			sb.WriteString(describeColumn(&t.Columns[i]))
		}
		return sb.String(), nil
	}
	c, err := lookupColumn(t, input)
	if err != nil {
		return "", err
	}
	return describeColumn(c), nil
}

func describeColumn(c *dataset.Column) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", c.Name, c.Kind)

	if c.Kind == dataset.KindNumber {
		vals := make([]float64, 0, len(c.Numbers))
		for _, v := range c.Numbers {
			if !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		fmt.Fprintf(&sb, "  count: %d\n", len(vals))
		if len(vals) == 0 {
			return sb.String()
		}
		sort.Float64s(vals)
		mean, std := meanStd(vals)
		fmt.Fprintf(&sb, "  mean: %s\n  std: %s\n", formatFloat(mean), formatFloat(std))
		fmt.Fprintf(&sb, "  min: %s\n", formatFloat(vals[0]))
		fmt.Fprintf(&sb, "  25%%: %s\n", formatFloat(quantile(vals, 0.25)))
		fmt.Fprintf(&sb, "  50%%: %s\n", formatFloat(quantile(vals, 0.5)))
		fmt.Fprintf(&sb, "  75%%: %s\n", formatFloat(quantile(vals, 0.75)))
		fmt.Fprintf(&sb, "  max: %s\n", formatFloat(vals[len(vals)-1]))
		return sb.String()
	}

	counts := valueCounts(c)
	nonEmpty := 0
	for _, vc := range counts {
		nonEmpty += vc.count
	}
	fmt.Fprintf(&sb, "  count: %d\n  unique: %d\n", nonEmpty, len(counts))
	if len(counts) > 0 {
		fmt.Fprintf(&sb, "  top: %s\n  freq: %d\n", counts[0].value, counts[0].count)
	}
	return sb.String()
}

// meanStd returns the mean and the sample standard deviation (n-1).
func meanStd(vals []float64) (float64, float64) {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	if len(vals) < 2 {
		return mean, math.NaN()
	}
	var ss float64
	for _, v := range vals {
		ss += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(ss / float64(len(vals)-1))
}

// quantile uses linear interpolation between closest ranks; sorted must be ascending.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type valueCount struct {
	value string
	count int
}

// valueCounts tallies non-empty cells, most frequent first, ties by first appearance.
func valueCounts(c *dataset.Column) []valueCount {
	pos := make(map[string]int)
	var counts []valueCount
	for _, v := range c.Values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if i, ok := pos[v]; ok {
			counts[i].count++
			continue
		}
		pos[v] = len(counts)
		counts = append(counts, valueCount{value: v, count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].count > counts[j].count })
	return counts
}

func uniqueTool(t *dataset.Table, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("unique needs a column name")
	}
	c, err := lookupColumn(t, input)
	if err != nil {
		return "", err
	}
	counts := valueCounts(c)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d distinct values in %s\n", len(counts), c.Name)
	for i, vc := range counts {
		if i == maxUniqueValues {
			fmt.Fprintf(&sb, "... %d more\n", len(counts)-maxUniqueValues)
			break
		}
		fmt.Fprintf(&sb, "%s: %d\n", vc.value, vc.count)
	}
	return sb.String(), nil
}

// operators are matched longest first so ">=" is not read as ">".
var operators = []string{" contains ", ">=", "<=", "!=", "==", ">", "<", "="}

func countWhereTool(t *dataset.Table, input string) (string, error) {
	name, op, want, err := parseCondition(input)
	if err != nil {
		return "", err
	}
	c, err := lookupColumn(t, name)
	if err != nil {
		return "", err
	}

	wantNum, numErr := strconv.ParseFloat(want, 64)
	numeric := c.Kind == dataset.KindNumber && numErr == nil && op != "contains"
	if c.Kind == dataset.KindNumber && op != "contains" && op != "==" && op != "!=" && numErr != nil {
		return "", fmt.Errorf("%q is not a number", want)
	}
	if !numeric && (op == ">" || op == ">=" || op == "<" || op == "<=") {
		return "", fmt.Errorf("operator %s needs a numeric column; %s is %s", op, c.Name, c.Kind)
	}

	matches := 0
	for i, v := range c.Values {
		var ok bool
		if numeric {
			x := c.Numbers[i]
			if math.IsNaN(x) {
				continue
			}
			ok = compareFloat(x, op, wantNum)
		} else {
			ok = compareText(v, op, want)
		}
		if ok {
			matches++
		}
	}
	return fmt.Sprintf("%d of %d rows match %s %s %s", matches, len(c.Values), c.Name, op, want), nil
}

func parseCondition(input string) (column, op, value string, err error) {
	for _, candidate := range operators {
		idx := strings.Index(input, candidate)
		if idx <= 0 {
			continue
		}
		column = cleanInput(input[:idx])
		value = cleanInput(input[idx+len(candidate):])
		op = strings.TrimSpace(candidate)
		if op == "=" {
			op = "=="
		}
		if column == "" {
			break
		}
		return column, op, value, nil
	}
	return "", "", "", fmt.Errorf("could not parse condition %q; expected <column> <op> <value>", input)
}

func compareFloat(x float64, op string, want float64) bool {
	switch op {
	case "==":
		return x == want
	case "!=":
		return x != want
	case ">":
		return x > want
	case ">=":
		return x >= want
	case "<":
		return x < want
	case "<=":
		return x <= want
	}
	return false
}

func compareText(v, op, want string) bool {
	switch op {
	case "==":
		return strings.EqualFold(strings.TrimSpace(v), want)
	case "!=":
		return !strings.EqualFold(strings.TrimSpace(v), want)
	case "contains":
		return strings.Contains(strings.ToLower(v), strings.ToLower(want))
	}
	return false
}
