package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/resume-builder/internal/bullets"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/pipeline"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is a scripted llm.Client that counts calls.
type fakeClient struct {
	mu     sync.Mutex
	text   string
	err    error
	calls  int
	closed bool
}

func (f *fakeClient) GenerateContent(context.Context, string, llm.ModelTier) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.text, f.err
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return "fake" }

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

const modelOutput = "- Built ETL pipelines in Python and SQL\n" +
	"- Reduced query latency by 40% with indexing\n" +
	"- Deployed services with Docker\n" +
	"- Automated reports for finance\n"

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestServer(t *testing.T, client *fakeClient, mutate func(*Config)) *Server {
	t.Helper()
	cfg := Config{
		MaxConcurrentGenerations: 2,
		RateLimit:                &ratelimit.Config{Enabled: false},
		Logger:                   quietLogger,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	p := pipeline.New(bullets.NewGenerator(client, bullets.WithLogger(quietLogger)), pipeline.WithLogger(quietLogger))
	s := New(cfg, p, client)
	t.Cleanup(s.rateLimiter.Stop)
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseHTML(t *testing.T, body *bytes.Buffer) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(body)
	require.NoError(t, err)
	return doc
}

func formValues() url.Values {
	return url.Values{
		"name":                {"Asha Rao"},
		"email":               {"asha@example.com"},
		"summary":             {"Final-year CS student."},
		"education":           {"B.Tech Computer Science\nClass XII"},
		"skills":              {"Python, SQL, Docker"},
		"project_title":       {"Library App"},
		"project_description": {"Book tracking web app"},
		"target_role":         {"Data Engineer"},
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &fakeClient{}, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestHandleIndex(t *testing.T) {
	s := newTestServer(t, &fakeClient{}, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	doc := parseHTML(t, rec.Body)
	assert.Equal(t, 1, doc.Find("#profile-form").Length())
	assert.Equal(t, 0, doc.Find("#errors").Length())

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGenerate_Preview(t *testing.T) {
	client := &fakeClient{text: modelOutput}
	s := newTestServer(t, client, nil)

	values := formValues()
	values.Set("job_description", "Python SQL Kubernetes")
	rec := serve(s, postForm("/generate", values))
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec.Body)
	assert.Equal(t, 4, doc.Find("#generated li").Length())
	assert.Equal(t, "Built ETL pipelines in Python and SQL.", doc.Find("#generated li").First().Text())
	assert.Equal(t, 0, doc.Find("#fallback-notice").Length())
	assert.Contains(t, doc.Find("#score").Text(), "Approximate keyword match score:")
	assert.Contains(t, doc.Find("#missing").Text(), "kubernetes")
	assert.Equal(t, "Asha Rao", doc.Find("#preview-name").Text())
	assert.Equal(t, 2, doc.Find("#education p").Length())

	// The download form carries the same bullets
	var posted []string
	doc.Find(`#download-form input[name="bullet"]`).Each(func(_ int, sel *goquery.Selection) {
		posted = append(posted, sel.AttrOr("value", ""))
	})
	assert.Len(t, posted, 4)
	assert.Equal(t, 1, client.callCount())
}

func TestHandleGenerate_Fallback(t *testing.T) {
	s := newTestServer(t, &fakeClient{err: assert.AnError}, nil)

	rec := serve(s, postForm("/generate", formValues()))
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec.Body)
	assert.Equal(t, 1, doc.Find("#fallback-notice").Length())
	assert.Equal(t,
		"Proficient in Python, SQL, Docker, applied knowledge to academic projects and coursework.",
		doc.Find("#generated li").First().Text())
	assert.Equal(t, 0, doc.Find("#score").Length())
}

func TestHandleGenerate_ValidationError(t *testing.T) {
	client := &fakeClient{text: modelOutput}
	s := newTestServer(t, client, nil)

	values := formValues()
	values.Set("email", "not-an-email")
	rec := serve(s, postForm("/generate", values))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	doc := parseHTML(t, rec.Body)
	assert.Contains(t, doc.Find("#errors").Text(), "email must be a valid email address")
	assert.Equal(t, "Asha Rao", doc.Find("#name").AttrOr("value", ""))
	assert.Equal(t, "not-an-email", doc.Find("#email").AttrOr("value", ""))
	assert.Zero(t, client.callCount())
}

func TestHandleResumePDF_PostedBullets(t *testing.T) {
	client := &fakeClient{text: modelOutput}
	s := newTestServer(t, client, nil)

	values := formValues()
	values["bullet"] = []string{"Shipped a thing.", "  ", "Fixed a bug."}
	rec := serve(s, postForm("/resume.pdf", values))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Asha_Rao.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
	assert.Zero(t, client.callCount(), "posted bullets are printed without generating")
}

func TestHandleResumePDF_GeneratesWithoutBullets(t *testing.T) {
	client := &fakeClient{text: modelOutput}
	s := newTestServer(t, client, nil)

	values := formValues()
	values.Del("name")
	rec := serve(s, postForm("/resume.pdf", values))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="resume.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, 1, client.callCount())
}

func TestHandleAPIGenerate(t *testing.T) {
	s := newTestServer(t, &fakeClient{text: modelOutput}, nil)

	rec := serve(s, postJSON("/api/generate",
		`{"skills":"Python, SQL","target_role":"Data Engineer","job_description":"Python SQL Airflow"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RunID                string   `json:"run_id"`
		Bullets              []string `json:"bullets"`
		Source               string   `json:"source"`
		Score                *float64 `json:"score"`
		MatchedKeywords      []string `json:"matched_keywords"`
		JobDescriptionSource string   `json:"job_description_source"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Len(t, resp.Bullets, 4)
	assert.Equal(t, "generated", resp.Source)
	require.NotNil(t, resp.Score)
	assert.Contains(t, resp.MatchedKeywords, "python")
	assert.Equal(t, "pasted", resp.JobDescriptionSource)
}

func TestHandleAPIGenerate_LoopbackJobURLIsNotFetched(t *testing.T) {
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("AccessKeyId hunter2secret token zzinternalonly"))
	}))
	defer internal.Close()

	s := newTestServer(t, &fakeClient{text: modelOutput}, nil)

	rec := serve(s, postJSON("/api/generate",
		`{"skills":"Python","job_url":"`+internal.URL+`/latest/meta-data"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"score":null`)
	assert.NotContains(t, body, "matched_keywords")
	assert.NotContains(t, body, "missing_keywords")
	assert.NotContains(t, body, "job_description_source")
	assert.NotContains(t, body, "hunter2secret")
}

func TestHandleAPIGenerate_NoJobGivesNullScore(t *testing.T) {
	s := newTestServer(t, &fakeClient{text: modelOutput}, nil)

	rec := serve(s, postJSON("/api/generate", `{"skills":"Go"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "null", string(raw["score"]))
}

func TestHandleAPIGenerate_BadRequests(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDetail string
	}{
		{"unknown field", `{"nickname":"x"}`, http.StatusBadRequest, "(root)"},
		{"wrong type", `{"skills":["Go"]}`, http.StatusBadRequest, "skills"},
		{"malformed", `{"skills":`, http.StatusBadRequest, "invalid JSON"},
		{"bad email", `{"email":"nope"}`, http.StatusBadRequest, "email must be a valid email address"},
		{"bad url", `{"job_url":"ftp://x.example"}`, http.StatusBadRequest, "job_url"},
		{"too large", `{"summary":"` + strings.Repeat("a", int(maxBodyBytes)) + `"}`, http.StatusRequestEntityTooLarge, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{text: modelOutput}
			s := newTestServer(t, client, nil)

			rec := serve(s, postJSON("/api/generate", tt.body))
			require.Equal(t, tt.wantStatus, rec.Code)

			var resp struct {
				Error   string   `json:"error"`
				Details []string `json:"details"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			if tt.wantDetail != "" {
				assert.Contains(t, strings.Join(resp.Details, "\n"), tt.wantDetail)
			}
			assert.Zero(t, client.callCount())
		})
	}
}

func TestHandleAPIGenerateStream(t *testing.T) {
	s := newTestServer(t, &fakeClient{text: modelOutput}, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/generate/stream", "application/json",
		strings.NewReader(`{"skills":"Python","job_description":"Python SQL"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "event: progress\n")
	assert.Contains(t, text, `"step":"generate_bullets"`)
	assert.Contains(t, text, `"step":"score"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(text), "}"))
	assert.Contains(t, text, "event: result\n")
}

func TestHandleAPIScore(t *testing.T) {
	s := newTestServer(t, &fakeClient{}, nil)

	rec := serve(s, postJSON("/api/score", `{"bullets":["python sql"],"job_description":"python"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.ScoreResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Score)
	assert.Equal(t, 58.0, *resp.Score)
	assert.Equal(t, []string{"python"}, resp.MatchedKeywords)

	rec = serve(s, postJSON("/api/score", `{"bullets":[],"job_description":"python"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"score":null`)

	rec = serve(s, postJSON("/api/score", `{"bullets":["x"]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "job_description")
}

func TestHandleAPIPDF(t *testing.T) {
	client := &fakeClient{text: modelOutput}
	s := newTestServer(t, client, nil)

	rec := serve(s, postJSON("/api/pdf", `{"name":"Asha Rao","skills":"Go","bullets":["Did things."]}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
	assert.Zero(t, client.callCount())

	rec = serve(s, postJSON("/api/pdf", `{"bullets":[""]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerationGate_Busy(t *testing.T) {
	client := &fakeClient{text: modelOutput}
	s := newTestServer(t, client, func(c *Config) {
		c.MaxConcurrentGenerations = 1
		c.QueueTimeout = 20 * time.Millisecond
	})
	require.NoError(t, s.gate.Acquire(context.Background(), 1))
	defer s.gate.Release(1)

	rec := serve(s, postJSON("/api/generate", `{"skills":"Go"}`))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Zero(t, client.callCount())

	rec = serve(s, postForm("/generate", formValues()))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, parseHTML(t, rec.Body).Find("#errors").Text(), "busy")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, &fakeClient{}, func(c *Config) {
		c.RateLimit = &ratelimit.Config{
			Enabled:       true,
			DefaultLimit:  100,
			DefaultWindow: time.Minute,
			EndpointConfigs: []ratelimit.EndpointConfig{
				{Path: "/api/score", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1},
			},
		}
	})
	body := `{"bullets":["a"],"job_description":"a"}`

	rec := serve(s, postJSON("/api/score", body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = serve(s, postJSON("/api/score", body))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")

	for i := 0; i < 5; i++ {
		rec = serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, &fakeClient{}, nil)

	rec := serve(s, httptest.NewRequest(http.MethodOptions, "/api/generate", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestClose_ClosesClient(t *testing.T) {
	client := &fakeClient{}
	s := newTestServer(t, client, nil)

	s.Close()

	assert.True(t, client.closed)
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	client := &fakeClient{}
	s := newTestServer(t, client, func(c *Config) { c.Port = 0 })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, client.closed)
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, `attachment; filename="Asha_Rao.pdf"`, contentDisposition("Asha_Rao.pdf"))
	assert.Equal(t, `attachment; filename*=utf-8''Jos%C3%A9.pdf`, contentDisposition("José.pdf"))
	assert.NotContains(t, contentDisposition(`a"b.pdf`), `a"b`)
}
