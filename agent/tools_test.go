package agent

import (
	"strings"
	"testing"

	"csv-insights/dataset"
)

func TestToolbox(t *testing.T) {
	table := dataset.Sample()
	tb := NewToolbox()

	tests := []struct {
		name         string
		tool         string
		input        string
		wantContains []string
		wantErr      bool
	}{
		{name: "columns", tool: "columns", wantContains: []string{"4 rows, 3 columns", "- Category (text)", "- Sales (number)"}},
		{name: "tool_name_case_insensitive", tool: " Columns ", wantContains: []string{"- Profit (number)"}},
		{name: "head_two", tool: "head", input: "2", wantContains: []string{"Category,Sales,Profit\nA,100,20\nB,200,50\n"}},
		{name: "head_default_caps_at_rows", tool: "head", wantContains: []string{"D,300,70"}},
		{name: "head_bad_input", tool: "head", input: "many", wantErr: true},
		{
			name:         "describe_numeric",
			tool:         "describe",
			input:        "Sales",
			wantContains: []string{"count: 4", "mean: 187.5", "min: 100", "25%: 137.5", "50%: 175", "75%: 225", "max: 300"},
		},
		{name: "describe_quoted_and_case_folded", tool: "describe", input: `"sales"`, wantContains: []string{"mean: 187.5"}},
		{name: "describe_text", tool: "describe", input: "Category", wantContains: []string{"count: 4", "unique: 4", "top: A", "freq: 1"}},
		{name: "describe_all", tool: "describe", wantContains: []string{"Category (text)", "Profit (number)", "mean: 42.5"}},
		{name: "describe_missing_column", tool: "describe", input: "Revenue", wantErr: true},
		{name: "unique", tool: "unique", input: "Category", wantContains: []string{"4 distinct values in Category", "A: 1", "D: 1"}},
		{name: "unique_needs_column", tool: "unique", wantErr: true},
		{name: "count_where_numeric", tool: "count_where", input: "Sales >= 150", wantContains: []string{"3 of 4 rows match Sales >= 150"}},
		{name: "count_where_le", tool: "count_where", input: "Profit <= 30", wantContains: []string{"2 of 4 rows match Profit <= 30"}},
		{name: "count_where_single_equals", tool: "count_where", input: "Sales = 200", wantContains: []string{"1 of 4 rows match Sales == 200"}},
		{name: "count_where_text", tool: "count_where", input: "Category == b", wantContains: []string{"1 of 4 rows match"}},
		{name: "count_where_contains", tool: "count_where", input: "Category contains c", wantContains: []string{"1 of 4 rows match"}},
		{name: "count_where_text_ordering", tool: "count_where", input: "Category > B", wantErr: true},
		{name: "count_where_not_number", tool: "count_where", input: "Sales > lots", wantErr: true},
		{name: "count_where_unparseable", tool: "count_where", input: "Sales", wantErr: true},
		{name: "unknown_tool", tool: "python", input: "print(1)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tb.Run(table, tt.tool, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Run(%s, %q) expected error, got %q", tt.tool, tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Run(%s, %q) error = %v", tt.tool, tt.input, err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Run(%s, %q) = %q, missing %q", tt.tool, tt.input, got, want)
				}
			}
		})
	}
}

func TestToolboxDescribeListsEveryTool(t *testing.T) {
	desc := NewToolbox().Describe()
	for _, name := range []string{"columns", "head", "describe", "unique", "count_where"} {
		if !strings.Contains(desc, "- "+name+":") {
			t.Errorf("Describe() missing %s", name)
		}
	}
}

func TestQuantile(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1}, {0.25, 2}, {0.5, 3}, {0.9, 4.6}, {1, 5},
	}
	for _, tt := range tests {
		if got := quantile(vals, tt.q); got < tt.want-1e-9 || got > tt.want+1e-9 {
			t.Errorf("quantile(%v) = %v, want %v", tt.q, got, tt.want)
		}
	}
}
