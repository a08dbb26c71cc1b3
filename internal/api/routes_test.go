package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phrase-sentiment/internal/analysis"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeProvider records the texts it receives and replays canned results.
type fakeProvider struct {
	mu           sync.Mutex
	entityTexts  []string
	sentTexts    []string
	entities     analysis.EntityAnalysis
	sentiment    analysis.Sentiment
	entitiesErr  error
	sentimentErr error
}

func (f *fakeProvider) DetectEntities(ctx context.Context, text string) (analysis.EntityAnalysis, error) {
	f.mu.Lock()
	f.entityTexts = append(f.entityTexts, text)
	f.mu.Unlock()
	if f.entitiesErr != nil {
		return analysis.EntityAnalysis{}, f.entitiesErr
	}
	return f.entities, nil
}

func (f *fakeProvider) DetectSentiment(ctx context.Context, text string) (analysis.Sentiment, error) {
	f.mu.Lock()
	f.sentTexts = append(f.sentTexts, text)
	f.mu.Unlock()
	if f.sentimentErr != nil {
		return analysis.Sentiment{}, f.sentimentErr
	}
	return f.sentiment, nil
}

const testResultView = `RESULT input=[{{.input}}] sentiment={{.sentiment}}{{range .analysis.Entities}} entity={{.Name}}{{end}}`

func writeViews(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("LANDING PAGE"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "result.html"), []byte(testResultView), 0o644))
	return dir
}

func newTestRouter(t *testing.T, cfg Config) (*gin.Engine, *Server) {
	t.Helper()
	if cfg.ProviderName == "" {
		cfg.ProviderName = "fake"
	}
	server, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })
	router, err := server.Router()
	require.NoError(t, err)
	return router, server
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestNewServerRequiresProvider(t *testing.T) {
	_, err := NewServer(Config{ViewsDir: t.TempDir()})
	require.Error(t, err)
}

func TestIndexRendersLandingTemplate(t *testing.T) {
	router, _ := newTestRouter(t, Config{ViewsDir: writeViews(t), Provider: &fakeProvider{}})

	rec := get(t, router, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "LANDING PAGE", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestIndexMissingTemplate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	router, _ := newTestRouter(t, Config{ViewsDir: dir, Provider: &fakeProvider{}})

	_, readErr := os.ReadFile(filepath.Join(dir, "index.html"))
	require.Error(t, readErr)

	rec := get(t, router, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Error: "+readErr.Error(), rec.Body.String())
}

func TestProcessPhraseLabels(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		score    float64
		entities []analysis.Entity
		want     []string
	}{
		{
			name:     "positive",
			query:    "/process_phrase?phrase=I+love+this",
			score:    0.8,
			entities: []analysis.Entity{{Name: "this", Type: "OTHER"}},
			want:     []string{"sentiment=Positive", "entity=this", "input=[I love this]"},
		},
		{
			name:  "negative",
			query: "/process_phrase?phrase=I+hate+this",
			score: -0.6,
			want:  []string{"sentiment=Negative", "input=[I hate this]"},
		},
		{
			name:  "zero is positive",
			query: "/process_phrase?phrase=meh",
			score: 0,
			want:  []string{"sentiment=Positive"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			provider := &fakeProvider{
				entities:  analysis.EntityAnalysis{Entities: tc.entities},
				sentiment: analysis.Sentiment{Score: tc.score},
			}
			router, _ := newTestRouter(t, Config{ViewsDir: writeViews(t), Provider: provider})

			rec := get(t, router, tc.query)

			assert.Equal(t, http.StatusOK, rec.Code)
			for _, want := range tc.want {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}

func TestProcessPhraseDefaultsToSingleSpace(t *testing.T) {
	for _, target := range []string{"/process_phrase", "/process_phrase?phrase="} {
		t.Run(target, func(t *testing.T) {
			provider := &fakeProvider{sentiment: analysis.Sentiment{Score: 0.1}}
			router, _ := newTestRouter(t, Config{ViewsDir: writeViews(t), Provider: provider})

			rec := get(t, router, target)

			assert.Contains(t, rec.Body.String(), "input=[ ]")
			assert.Equal(t, []string{" "}, provider.entityTexts)
			assert.Equal(t, []string{" "}, provider.sentTexts)
		})
	}
}

func TestProcessPhraseProviderFailure(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		want     string
	}{
		{"entities", &fakeProvider{entitiesErr: errors.New("entity quota exceeded")}, "Error: entity quota exceeded"},
		{"sentiment", &fakeProvider{sentimentErr: errors.New("sentiment unavailable")}, "Error: sentiment unavailable"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := newTestRouter(t, Config{ViewsDir: writeViews(t), Provider: tc.provider})

			rec := get(t, router, "/process_phrase?phrase=hello")

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.want, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "RESULT")
		})
	}
}

func TestProcessPhraseWithBundledViews(t *testing.T) {
	provider := &fakeProvider{
		entities:  analysis.EntityAnalysis{Entities: []analysis.Entity{{Name: "Paris", Type: "LOCATION", Salience: 1}}, Language: "en"},
		sentiment: analysis.Sentiment{Score: 0.8},
	}
	router, _ := newTestRouter(t, Config{ViewsDir: filepath.Join("..", "..", "views"), Provider: provider})

	rec := get(t, router, "/process_phrase?phrase=I+love+Paris")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Positive")
	assert.Contains(t, rec.Body.String(), "Paris")
	assert.Contains(t, rec.Body.String(), "LOCATION")

	landing := get(t, router, "/")
	assert.Contains(t, landing.Body.String(), `action="/process_phrase"`)
}

func TestProcessPhraseEscapesInput(t *testing.T) {
	provider := &fakeProvider{sentiment: analysis.Sentiment{Score: 0.2}}
	router, _ := newTestRouter(t, Config{ViewsDir: writeViews(t), Provider: provider})

	rec := get(t, router, "/process_phrase?phrase=%3Cscript%3E")

	assert.NotContains(t, rec.Body.String(), "<script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, Config{ViewsDir: writeViews(t), Provider: &fakeProvider{}, ProviderName: "vader"})

	rec := get(t, router, "/api/healthz")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "vader", body["provider"])
}

func TestHistoryDisabledByDefault(t *testing.T) {
	router, _ := newTestRouter(t, Config{ViewsDir: writeViews(t), Provider: &fakeProvider{}})

	rec := get(t, router, "/api/history")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryRecordsSuccessfulAnalyses(t *testing.T) {
	provider := &fakeProvider{
		entities:  analysis.EntityAnalysis{Entities: []analysis.Entity{{Name: "this"}}, Language: "en"},
		sentiment: analysis.Sentiment{Score: -0.6, Magnitude: 0.6},
	}
	router, _ := newTestRouter(t, Config{
		ViewsDir:      writeViews(t),
		Provider:      provider,
		HistoryDBPath: filepath.Join(t.TempDir(), "history.db"),
		SilentDB:      true,
	})

	get(t, router, "/process_phrase?phrase=I+hate+this")

	rec := get(t, router, "/api/history")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.EqualValues(t, 1, resp.Total)
	require.Len(t, resp.Items, 1)
	item := resp.Items[0]
	assert.Equal(t, "I hate this", item.Phrase)
	assert.Equal(t, analysis.LabelNegative, item.Sentiment)
	assert.Equal(t, []string{"this"}, item.Entities)
	assert.Equal(t, "fake", item.Provider)
}

func TestHistorySkipsFailures(t *testing.T) {
	router, _ := newTestRouter(t, Config{
		ViewsDir:      writeViews(t),
		Provider:      &fakeProvider{sentimentErr: errors.New("boom")},
		HistoryDBPath: filepath.Join(t.TempDir(), "history.db"),
		SilentDB:      true,
	})

	get(t, router, "/process_phrase?phrase=hello")

	rec := get(t, router, "/api/history")
	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 0, resp.Total)
	assert.Empty(t, resp.Items)
}

func TestHistoryRejectsBadLimit(t *testing.T) {
	router, _ := newTestRouter(t, Config{
		ViewsDir:      writeViews(t),
		Provider:      &fakeProvider{},
		HistoryDBPath: filepath.Join(t.TempDir(), "history.db"),
		SilentDB:      true,
	})

	rec := get(t, router, "/api/history?limit=abc")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
