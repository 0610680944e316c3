package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jonathan/resume-builder/internal/bullets"
	"github.com/jonathan/resume-builder/internal/fetch"
	"github.com/jonathan/resume-builder/internal/ingestion"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	text string
	err  error
}

func (f *fakeClient) GenerateContent(context.Context, string, llm.ModelTier) (string, error) {
	return f.text, f.err
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return "fake" }
func (f *fakeClient) Close() error                  { return nil }

const modelOutput = "- Built ETL pipelines in Python and SQL\n" +
	"- Reduced query latency by 40% with indexing\n" +
	"- Deployed services with Docker\n"

var submission = types.Submission{
	Name:               "Asha Rao",
	Email:              "asha@example.com",
	Summary:            "Final-year CS student.",
	Education:          "B.Tech Computer Science",
	Skills:             "Python, SQL, Docker",
	ProjectTitle:       "Library App",
	ProjectDescription: "Book tracking web app",
	TargetRole:         "Data Engineer",
}

func collect() (ProgressCallback, func() []ProgressEvent) {
	var mu sync.Mutex
	var events []ProgressEvent
	return func(e ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
		}, func() []ProgressEvent {
			mu.Lock()
			defer mu.Unlock()
			return events
		}
}

func steps(events []ProgressEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Step)
	}
	return out
}

func TestRun_GeneratedWithPastedJob(t *testing.T) {
	p := New(bullets.NewGenerator(&fakeClient{text: modelOutput}))
	sub := submission
	sub.JobDescription = "Python SQL Kubernetes"

	onProgress, events := collect()
	result := p.Run(context.Background(), sub, onProgress)

	require.NotNil(t, result)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "Data Engineer", result.Role)
	assert.Equal(t, types.SourceGenerated, result.Source)
	assert.Len(t, result.Bullets, 3)

	require.True(t, result.HasScore())
	assert.GreaterOrEqual(t, *result.Score, 0.0)
	assert.LessOrEqual(t, *result.Score, 100.0)
	assert.Contains(t, result.MatchedKeywords, "python")
	assert.Contains(t, result.MissingKeywords, "kubernetes")

	require.NotNil(t, result.Posting)
	assert.Equal(t, ingestion.OriginPasted, result.Posting.Origin)

	got := steps(events())
	assert.ElementsMatch(t, []string{StepGenerate, StepJobDescription, StepScore}, got)
	assert.Equal(t, StepScore, got[len(got)-1])
	for _, e := range events() {
		assert.Equal(t, result.RunID, e.RunID)
	}
}

func TestRun_FallbackWithoutJob(t *testing.T) {
	p := New(bullets.NewGenerator(&fakeClient{err: errors.New("quota exceeded")}))

	result := p.Run(context.Background(), submission, nil)

	assert.Equal(t, types.SourceFallback, result.Source)
	assert.Contains(t, result.Reason, "quota exceeded")
	assert.Equal(t, []string{
		"Proficient in Python, SQL, Docker, applied knowledge to academic projects and coursework.",
		"Library App: Book tracking web app.",
	}, result.Bullets)
	assert.False(t, result.HasScore())
	assert.True(t, result.Posting.Empty())
}

func TestRun_NilClientDefaultsRole(t *testing.T) {
	p := New(bullets.NewGenerator(nil))

	result := p.Run(context.Background(), types.Submission{}, nil)

	assert.Equal(t, types.DefaultRole, result.Role)
	assert.Equal(t, types.SourceFallback, result.Source)
	assert.Equal(t, []string{"Motivated candidate targeting General with strong academic background."}, result.Bullets)
}

// localIngestion lets tests fetch from httptest servers on loopback.
func localIngestion() *ingestion.Options {
	opts := fetch.DefaultOptions()
	opts.AllowPrivateNetworks = true
	return &ingestion.Options{Fetch: opts}
}

func TestRun_FetchesJobURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><nav>Menu</nav><main><h1>Data Engineer</h1>
<p>We need Python and SQL experience. Airflow is a plus.</p></main></body></html>`))
	}))
	defer server.Close()

	p := New(bullets.NewGenerator(&fakeClient{text: modelOutput}), WithIngestionOptions(localIngestion()))
	sub := submission
	sub.JobURL = server.URL + "/jobs/1"

	result := p.Run(context.Background(), sub, nil)

	require.NotNil(t, result.Posting)
	assert.Equal(t, ingestion.OriginURL, result.Posting.Origin)
	assert.Contains(t, result.Posting.Text, "Airflow")
	assert.True(t, result.HasScore())
}

func TestRun_FetchFailureSkipsScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	p := New(bullets.NewGenerator(&fakeClient{text: modelOutput}), WithIngestionOptions(localIngestion()))
	sub := submission
	sub.JobURL = server.URL

	onProgress, events := collect()
	result := p.Run(context.Background(), sub, onProgress)

	assert.Equal(t, types.SourceGenerated, result.Source)
	assert.False(t, result.HasScore())
	assert.Nil(t, result.Posting)
	assert.NotContains(t, steps(events()), StepScore)
}

func TestRun_LoopbackJobURLIsNotFetched(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("AccessKeyId internalsecret token"))
	}))
	defer server.Close()

	p := New(bullets.NewGenerator(&fakeClient{text: modelOutput}))
	sub := submission
	sub.JobURL = server.URL + "/latest/meta-data"

	result := p.Run(context.Background(), sub, nil)

	assert.Equal(t, types.SourceGenerated, result.Source)
	assert.Nil(t, result.Posting)
	assert.False(t, result.HasScore())
	assert.Empty(t, result.MissingKeywords)
	assert.Zero(t, hits.Load())
}

func TestResult_Document(t *testing.T) {
	score := 42.5
	result := &Result{
		Name:  "Asha",
		Email: "asha@example.com",
		Profile: types.Profile{
			Summary:  "Student",
			Skills:   []string{"Go"},
			Projects: []types.Project{{Title: "CLI", Description: "A tool"}},
		},
		GenerationResult: types.GenerationResult{Bullets: []string{"Did a thing."}},
		ScoreResult:      types.ScoreResult{Score: &score, MatchedKeywords: []string{"go"}},
	}

	doc := result.Document()

	assert.Equal(t, "Asha", doc.Name)
	assert.Equal(t, "Student", doc.Summary)
	assert.Equal(t, []string{"Go"}, doc.Skills)
	assert.Equal(t, []string{"Did a thing."}, doc.Bullets)
	require.NotNil(t, doc.Score)
	assert.Equal(t, 42.5, *doc.Score)
	assert.Equal(t, []string{"go"}, doc.MatchedKeywords)
}
