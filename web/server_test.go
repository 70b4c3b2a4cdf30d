package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"csv-insights/config"
	"csv-insights/responder"
	"csv-insights/web/middleware"
	"csv-insights/web/types"

	"go.uber.org/zap"
)

type fakeModel struct {
	summarized []byte
}

func (m *fakeModel) Chat(_ context.Context, message string) (string, error) {
	return "Hello! Upload a CSV to get started.", nil
}

func (m *fakeModel) SummarizeFile(_ context.Context, r io.Reader, _ string) (string, error) {
	m.summarized, _ = io.ReadAll(r)
	return "The graph shows **visits** rising.", nil
}

type fakeAgent struct{}

func (fakeAgent) Run(_ context.Context, _, question string) (string, error) {
	return "Answer to: " + question, nil
}

func testConfig() *config.Config {
	return &config.Config{
		MaxUploadBytes:          1 << 20,
		SessionCapacity:         16,
		QAMaxAnswerChars:        4000,
		RateLimitMessagesPerMin: 60,
		RateLimitFilesPerHour:   30,
		RateLimitBurstSize:      10,
	}
}

func newTestServer(t *testing.T, cfg *config.Config, model *fakeModel) *Server {
	t.Helper()
	s, err := NewServer(cfg, zap.NewNop(), responder.New(model, "", zap.NewNop()), fakeAgent{})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return s
}

func multipartRequest(t *testing.T, path string, fields map[string]string, filename, file string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte(file))
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func formRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeVisualization(t *testing.T, rec *httptest.ResponseRecorder) types.VisualizationResult {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var res types.VisualizationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v; body = %s", err, rec.Body.String())
	}
	return res
}

func TestVisualizeEndToEnd(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeModel{})
	const salesCSV = "Category,Sales,Profit\nA,100,20\nB,200,50\n"

	t.Run("uploaded_bar", func(t *testing.T) {
		req := multipartRequest(t, "/visualize", map[string]string{"description": "Bar chart please"}, "sales.csv", salesCSV)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		res := decodeVisualization(t, rec)
		if res.Chart == nil || res.Chart.Kind != "bar" || res.Chart.X != "Category" || res.Chart.Y != "Sales" {
			t.Fatalf("chart = %+v, message = %q", res.Chart, res.Message)
		}
		if want := "Based on the bar, the data shows trends between Category and Sales."; res.Insight != want {
			t.Errorf("Insight = %q, want %q", res.Insight, want)
		}
		if res.UsedSample {
			t.Error("UsedSample = true for an uploaded file")
		}
	})

	t.Run("data_uri_contents", func(t *testing.T) {
		uri := "data:text/csv;base64," + base64.StdEncoding.EncodeToString([]byte(salesCSV))
		req := formRequest("/visualize", url.Values{"description": {"a LINE please"}, "contents": {uri}})
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		res := decodeVisualization(t, rec)
		if res.Chart == nil || res.Chart.Kind != "line" {
			t.Fatalf("chart = %+v, message = %q", res.Chart, res.Message)
		}
	})

	t.Run("sample_scatter", func(t *testing.T) {
		req := formRequest("/visualize", url.Values{"description": {"scatter"}})
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		res := decodeVisualization(t, rec)
		if res.Chart == nil || res.Chart.Kind != "scatter" || res.Chart.X != "Category" || res.Chart.Y != "Sales" {
			t.Fatalf("chart = %+v, message = %q", res.Chart, res.Message)
		}
		if !res.UsedSample {
			t.Error("UsedSample = false without an upload")
		}
	})

	t.Run("empty_description", func(t *testing.T) {
		req := formRequest("/visualize", url.Values{"description": {""}, "contents": {"not a data uri"}})
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		res := decodeVisualization(t, rec)
		if res.Message != "Please provide a description of the visualization." {
			t.Errorf("Message = %q", res.Message)
		}
		if res.Chart != nil {
			t.Errorf("unexpected chart %+v", res.Chart)
		}
	})

	t.Run("html_fragment", func(t *testing.T) {
		req := formRequest("/visualize", url.Values{"description": {"bar"}})
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		body := rec.Body.String()
		if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
			t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
		}
		if !strings.Contains(body, `src="data:image/png;base64,`) {
			t.Errorf("fragment lacks the chart image: %.300s", body)
		}
		if !strings.Contains(body, "Based on the bar, the data shows trends between Category and Sales.") {
			t.Errorf("fragment lacks the insight")
		}
	})

	t.Run("oversize_upload", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxUploadBytes = 8
		small := newTestServer(t, cfg, &fakeModel{})
		req := multipartRequest(t, "/visualize", map[string]string{"description": "bar"}, "sales.csv", salesCSV)
		rec := httptest.NewRecorder()
		small.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
	})

	t.Run("oversize_data_uri", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxUploadBytes = 8
		small := newTestServer(t, cfg, &fakeModel{})
		uri := "data:text/csv;base64," + base64.StdEncoding.EncodeToString([]byte(salesCSV))
		rec := httptest.NewRecorder()
		small.Handler().ServeHTTP(rec, formRequest("/visualize", url.Values{"description": {"bar"}, "contents": {uri}}))
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
	})
}

func TestPagesRender(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeModel{})
	for _, path := range []string{"/", "/chat", "/ask"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "<!DOCTYPE html>") {
				t.Errorf("body is not a page: %.200s", rec.Body.String())
			}
		})
	}
}

// sessionCookie replays the session cookie set by the first response.
func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func chatTurns(t *testing.T, rec *httptest.ResponseRecorder) []types.Turn {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Turns []types.Turn `json:"turns"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body.Turns
}

func TestChatSession(t *testing.T) {
	model := &fakeModel{}
	s := newTestServer(t, testConfig(), model)

	send := func(cookie *http.Cookie, message string) *httptest.ResponseRecorder {
		req := formRequest("/chat/message", url.Values{"message": {message}})
		req.Header.Set("Accept", "application/json")
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec
	}

	rec := send(nil, "Hi")
	cookie := sessionCookie(t, rec)
	turns := chatTurns(t, rec)
	if len(turns) != 2 || turns[1].Text != "Hello! Upload a CSV to get started." {
		t.Fatalf("greeting turns = %+v", turns)
	}

	turns = chatTurns(t, send(cookie, "hello"))
	if turns[1].Text != responder.RefusalText {
		t.Errorf("lowercase hello reply = %q, want refusal", turns[1].Text)
	}

	upload := multipartRequest(t, "/chat/upload", nil, "visits.csv", "day,visits\n2024-01-01,3\n2024-01-02,5\n")
	upload.Header.Set("Accept", "application/json")
	upload.AddCookie(cookie)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, upload)
	turns = chatTurns(t, rec)
	if len(turns) != 2 || turns[0].Text != "CSV file uploaded successfully!" || turns[1].ChartImage == "" {
		t.Fatalf("upload turns = %+v", turns)
	}

	turns = chatTurns(t, send(cookie, "what does this graph specifies"))
	if turns[1].Text != "The graph shows **visits** rising." {
		t.Errorf("summary reply = %q", turns[1].Text)
	}
	if !bytes.HasPrefix(model.summarized, []byte("\x89PNG")) {
		t.Errorf("model did not receive the session chart")
	}

	page := httptest.NewRequest(http.MethodGet, "/chat", nil)
	page.AddCookie(cookie)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, page)
	body := rec.Body.String()
	for _, want := range []string{"hello", "understand that message", "<strong>visits</strong>"} {
		if !strings.Contains(body, want) {
			t.Errorf("chat page lacks %q", want)
		}
	}

	// A different browser starts with an empty transcript.
	other := httptest.NewRecorder()
	s.Handler().ServeHTTP(other, httptest.NewRequest(http.MethodGet, "/chat", nil))
	if strings.Contains(other.Body.String(), "hello") {
		t.Error("transcript leaked across sessions")
	}

	if rec := send(cookie, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("empty message status = %d, want 400", rec.Code)
	}
}

func TestChatConcurrentMessagesKeepEveryTurn(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeModel{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, formRequest("/chat/message", url.Values{"message": {"Hi"}}))
	cookie := sessionCookie(t, rec)

	const senders = 8
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := formRequest("/chat/message", url.Values{"message": {fmt.Sprintf("note %d", i)}})
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Errorf("message %d status = %d", i, rec.Code)
			}
		}(i)
	}
	wg.Wait()

	page := httptest.NewRequest(http.MethodGet, "/chat", nil)
	page.AddCookie(cookie)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, page)
	for i := 0; i < senders; i++ {
		if want := fmt.Sprintf("note %d", i); !strings.Contains(rec.Body.String(), want) {
			t.Errorf("chat page is missing %q", want)
		}
	}
}

func TestAsk(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeModel{})

	req := multipartRequest(t, "/ask", map[string]string{"question": "Which category sells most?"}, "sales.csv", "Category,Sales\nA,1\n")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var res types.QAResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Answer != "Answer to: Which category sells most?" || res.Error != "" {
		t.Errorf("result = %+v", res)
	}

	req = formRequest("/ask", url.Values{"question": {"anything"}})
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), "Please upload a CSV file to ask about.") {
		t.Errorf("missing file fragment = %s", rec.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitBurstSize = 2
	cfg.RateLimitMessagesPerMin = 1
	s := newTestServer(t, cfg, &fakeModel{})

	var cookie *http.Cookie
	codes := make([]int, 3)
	for i := range codes {
		req := formRequest("/chat/message", url.Values{"message": {"hello"}})
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if cookie == nil {
			cookie = sessionCookie(t, rec)
		}
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 200 429]", codes)
	}
}

func TestCleanupStaleSessions(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeModel{})

	req := formRequest("/chat/message", url.Values{"message": {"hello"}})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if s.sessions.Len() != 1 || s.limiter.Tracked() != 1 {
		t.Fatalf("sessions = %d, limiter = %d", s.sessions.Len(), s.limiter.Tracked())
	}

	cleanup := s.Cleanup()
	if n := cleanup.CleanupStaleSessions(time.Hour); n != 0 {
		t.Errorf("fresh session removed: %d", n)
	}
	// A negative age puts the cutoff in the future, so every session is stale.
	if n := cleanup.CleanupStaleSessions(-time.Minute); n != 1 {
		t.Errorf("CleanupStaleSessions() = %d, want 1", n)
	}
	if s.sessions.Len() != 0 || s.limiter.Tracked() != 0 {
		t.Errorf("after cleanup sessions = %d, limiter = %d", s.sessions.Len(), s.limiter.Tracked())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleanup.StartSessionCleanup(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("StartSessionCleanup did not stop on cancel")
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeModel{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeModel{})
	req := multipartRequest(t, "/chat/upload", nil, "run.exe", "MZ")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid file type") {
		t.Errorf("body = %s", rec.Body.String())
	}

	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString([]byte("MZ"))
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, formRequest("/ask", url.Values{
		"question": {"What is this?"}, "filename": {"run.exe"}, "contents": {uri},
	}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("data URI status = %d, want 400", rec.Code)
	}
}
