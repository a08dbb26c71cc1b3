package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"phrase-sentiment/internal/analysis"
	"phrase-sentiment/internal/store"
	"phrase-sentiment/internal/view"
)

const (
	indexView  = "index.html"
	resultView = "result.html"

	// defaultPhrase stands in for a missing or empty phrase query parameter.
	defaultPhrase = " "
)

// Analyzer runs the combined entity and sentiment analysis for one text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (analysis.Result, error)
}

// Config defines server dependencies.
type Config struct {
	ViewsDir       string
	Provider       analysis.Provider
	ProviderName   string
	HistoryDBPath  string
	SilentDB       bool
	AllowedOrigins []string
}

// Server wires HTTP handlers with the analysis client and view renderer.
type Server struct {
	views          *view.Renderer
	analyzer       Analyzer
	providerName   string
	history        *store.Database
	allowedOrigins []string
}

// NewServer constructs the HTTP server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Provider == nil {
		return nil, errors.New("analysis provider required")
	}
	viewsDir := strings.TrimSpace(cfg.ViewsDir)
	if viewsDir == "" {
		viewsDir = "views"
	}

	server := &Server{
		views:          view.NewRenderer(viewsDir),
		analyzer:       analysis.NewClient(cfg.Provider),
		providerName:   cfg.ProviderName,
		allowedOrigins: cfg.AllowedOrigins,
	}

	if path := strings.TrimSpace(cfg.HistoryDBPath); path != "" {
		db, err := store.Open(path, cfg.SilentDB)
		if err != nil {
			return nil, fmt.Errorf("history store: %w", err)
		}
		server.history = db
		logrus.WithField("path", path).Info("analysis history enabled")
	}

	return server, nil
}

// Close releases the history store, if any.
func (s *Server) Close() error {
	if s == nil || s.history == nil {
		return nil
	}
	return s.history.Close()
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	r.Use(secure.New(secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	r.GET("/", s.handleIndex)
	r.GET("/process_phrase", s.handleProcessPhrase)

	corsCfg := cors.DefaultConfig()
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "OPTIONS"}

	api := r.Group("/api")
	api.Use(cors.New(corsCfg))
	{
		api.GET("/healthz", s.handleHealth)
		if s.history != nil {
			api.GET("/history", s.handleHistory)
		}
	}

	return r, nil
}

func (s *Server) handleIndex(c *gin.Context) {
	s.sendView(c, indexView, nil)
}

func (s *Server) handleProcessPhrase(c *gin.Context) {
	text := c.Query("phrase")
	if text == "" {
		text = defaultPhrase
	}

	start := time.Now()
	result, err := s.analyzer.Analyze(c.Request.Context(), text)
	if err != nil {
		logrus.WithError(err).WithField("provider", s.providerName).Warn("analyze phrase")
		s.renderError(c, err)
		return
	}
	elapsed := time.Since(start)

	label := analysis.Label(result.Sentiment.Score)
	logrus.WithFields(logrus.Fields{
		"provider":   s.providerName,
		"label":      label,
		"entities":   len(result.Analysis.Entities),
		"elapsed_ms": elapsed.Milliseconds(),
	}).Info("phrase analyzed")

	s.recordHistory(text, label, result, elapsed)

	s.sendView(c, resultView, gin.H{
		"input":     text,
		"sentiment": label,
		"analysis":  result.Analysis,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "provider": s.providerName})
}

func (s *Server) handleHistory(c *gin.Context) {
	limit, err := parseIntQuery(c, "limit", store.DefaultListLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	offset, err := parseIntQuery(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, total, err := s.history.ListAnalyses(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	items := make([]AnalysisDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, AnalysisFromModel(row))
	}
	c.JSON(http.StatusOK, HistoryResponse{Items: items, Total: total})
}

func (s *Server) recordHistory(text, label string, result analysis.Result, elapsed time.Duration) {
	if s.history == nil {
		return
	}
	names := make([]string, 0, len(result.Analysis.Entities))
	for _, e := range result.Analysis.Entities {
		names = append(names, e.Name)
	}
	row := &store.Analysis{
		Phrase:           text,
		Label:            label,
		Score:            result.Sentiment.Score,
		Magnitude:        result.Sentiment.Magnitude,
		Language:         result.Analysis.Language,
		Provider:         s.providerName,
		ProcessingTimeMs: elapsed.Milliseconds(),
	}
	row.SetEntityNames(names)
	if err := s.history.SaveAnalysis(row); err != nil {
		logrus.WithError(err).Warn("save analysis history")
	}
}

// sendView renders a template and ends the response. A render failure is echoed
// inline with the same status as a successful page.
func (s *Server) sendView(c *gin.Context, name string, data any) {
	body, err := s.views.Render(name, data)
	if err != nil {
		logrus.WithError(err).WithField("view", name).Warn("render view")
		s.renderError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(body))
}

func (s *Server) renderError(c *gin.Context, err error) {
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte("Error: "+err.Error()))
}

func parseIntQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}
