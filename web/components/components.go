// Package components renders the pages and htmx fragments of the web UI.
package components

import (
	"context"
	"embed"
	"html/template"
	"io"

	"csv-insights/web/format"
	"csv-insights/web/types"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var files embed.FS

var (
	base  = template.Must(template.New("").ParseFS(files, "templates/*.html"))
	pages = map[string]*template.Template{
		"dashboard": page("dashboard"),
		"chat":      page("chat"),
		"ask":       page("ask"),
	}
)

// page binds the shared layout to the named "<name>_content" block.
func page(name string) *template.Template {
	t := template.Must(base.Clone())
	return template.Must(t.New("content").Parse(`{{template "` + name + `_content" .Data}}`))
}

type layoutData struct {
	Title  string
	Active string
	Data   any
}

func render(t *template.Template, name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, name, data)
	})
}

func DashboardPage() templ.Component {
	return render(pages["dashboard"], "layout", layoutData{Title: "Dashboard", Active: "dashboard"})
}

type visualizationView struct {
	Title      string
	Message    string
	UsedSample bool
	// ChartHTML is a full page, escaped into the iframe's srcdoc attribute.
	ChartHTML string
	Image     template.URL
	SVG       template.URL
	Insight   string
}

// Visualization is the dashboard result fragment.
func Visualization(res *types.VisualizationResult) templ.Component {
	v := visualizationView{
		Message:    res.Message,
		UsedSample: res.UsedSample,
		ChartHTML:  string(res.ChartHTML),
		Image:      template.URL(res.Image),
		SVG:        template.URL(res.SVG),
		Insight:    res.Insight,
	}
	if res.Chart != nil {
		v.Title = res.Chart.Title
	}
	return render(base, "visualization", v)
}

type turnView struct {
	Speaker    types.Speaker
	Text       string
	HTML       template.HTML
	ChartImage template.URL
}

func turnViews(turns []types.Turn) []turnView {
	views := make([]turnView, len(turns))
	for i, t := range turns {
		views[i] = turnView{Speaker: t.Speaker, Text: t.Text, HTML: t.HTML, ChartImage: template.URL(t.ChartImage)}
	}
	return views
}

func ChatPage(session *types.Session) templ.Component {
	data := struct{ Turns []turnView }{Turns: turnViews(session.Transcript)}
	return render(pages["chat"], "layout", layoutData{Title: "Chat", Active: "chat", Data: data})
}

// Turns renders transcript entries for appending to the chat page.
func Turns(turns []types.Turn) templ.Component {
	return render(base, "turns", turnViews(turns))
}

func AskPage() templ.Component {
	return render(pages["ask"], "layout", layoutData{Title: "Ask", Active: "ask"})
}

type answerView struct {
	Question  string
	Error     string
	HTML      template.HTML
	Truncated bool
}

// Answer is the fragment for one answered (or failed) question.
func Answer(res *types.QAResult) templ.Component {
	return render(base, "answer", answerView{
		Question:  res.Question,
		Error:     res.Error,
		HTML:      format.ToHTML(res.Answer),
		Truncated: res.Truncated,
	})
}
