package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"phrase-sentiment/internal/analysis"
	"phrase-sentiment/internal/api"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithError(err).Warn("load .env file")
	}

	providerCfg := analysis.ProviderConfig{
		Name: os.Getenv("ANALYSIS_PROVIDER"),
		Google: analysis.GoogleConfig{
			CredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		},
		OpenAI: analysis.OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   os.Getenv("OPENAI_MODEL"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
	}
	if temp := os.Getenv("OPENAI_TEMPERATURE"); temp != "" {
		if v, err := strconv.ParseFloat(temp, 64); err == nil {
			providerCfg.OpenAI.Temperature = v
		}
	}
	if maxTokens := os.Getenv("OPENAI_MAX_TOKENS"); maxTokens != "" {
		if v, err := strconv.Atoi(maxTokens); err == nil {
			providerCfg.OpenAI.MaxTokens = v
		}
	}
	providerName := strings.ToLower(strings.TrimSpace(providerCfg.Name))
	if providerName == "" {
		providerName = analysis.ProviderGoogle
	}

	provider, closeProvider, err := analysis.NewProvider(context.Background(), providerCfg)
	if err != nil {
		logrus.Fatalf("create analysis provider: %v", err)
	}
	defer closeProvider()

	viewsDir := "views"
	if v := strings.TrimSpace(os.Getenv("VIEWS_DIR")); v != "" {
		viewsDir = v
	}

	var allowedOrigins []string
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins = append(allowedOrigins, origin)
		}
	}

	cfg := api.Config{
		ViewsDir:       viewsDir,
		Provider:       provider,
		ProviderName:   providerName,
		HistoryDBPath:  strings.TrimSpace(os.Getenv("HISTORY_DB_PATH")),
		SilentDB:       strings.EqualFold(strings.TrimSpace(os.Getenv("HISTORY_DB_SILENT")), "true"),
		AllowedOrigins: allowedOrigins,
	}

	server, err := api.NewServer(cfg)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	defer server.Close()

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logrus.WithField("provider", providerName).Infof("Listening to port %s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
