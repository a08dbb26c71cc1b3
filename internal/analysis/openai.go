package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
)

// OpenAIConfig holds OpenAI configuration parameters.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// OpenAI implements Provider with chat completions that reply in strict JSON.
type OpenAI struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

var ErrDisabled = errors.New("openai provider disabled: no api key")

const (
	entitiesSystemPrompt = "You are a named entity recognizer. Reply with a strict JSON object of the form " +
		`{"language": "<ISO-639-1 code>", "entities": [{"name": "...", "type": "PERSON|LOCATION|ORGANIZATION|EVENT|WORK_OF_ART|CONSUMER_GOOD|OTHER", "salience": 0.0}]}. ` +
		"Salience is a decimal between 0 and 1 and the salience values sum to at most 1. " +
		"Return an empty entities array when nothing is found. Emit nothing outside the JSON object."
	sentimentSystemPrompt = "You are a sentiment analyzer. Reply with a strict JSON object of the form " +
		`{"score": 0.0, "magnitude": 0.0}. ` +
		"score is a decimal between -1 (very negative) and 1 (very positive); magnitude is the non-negative overall strength of emotion. " +
		"Emit nothing outside the JSON object."
)

// NewOpenAI constructs an OpenAI provider if the supplied configuration is valid.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1-mini"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrDisabled
	}
	temp := cfg.Temperature
	if temp < 0 {
		temp = 0
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 800
	}
	return &OpenAI{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		temperature: temp,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// DetectEntities asks the model for the named entities in text.
func (o *OpenAI) DetectEntities(ctx context.Context, text string) (EntityAnalysis, error) {
	content, err := o.complete(ctx, entitiesSystemPrompt, text)
	if err != nil {
		return EntityAnalysis{}, err
	}
	var decoded struct {
		Language string `json:"language"`
		Entities []struct {
			Name     string  `json:"name"`
			Type     string  `json:"type"`
			Salience float64 `json:"salience"`
		} `json:"entities"`
	}
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		return EntityAnalysis{}, fmt.Errorf("parse entities response: %w", err)
	}

	out := EntityAnalysis{
		Entities: make([]Entity, 0, len(decoded.Entities)),
		Language: strings.TrimSpace(decoded.Language),
	}
	for _, e := range decoded.Entities {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		entityType := strings.ToUpper(strings.TrimSpace(e.Type))
		if entityType == "" {
			entityType = "OTHER"
		}
		out.Entities = append(out.Entities, Entity{
			Name:     name,
			Type:     entityType,
			Salience: clampFloat(e.Salience, 0, 1),
			Mentions: mentionsOf(text, name),
		})
	}
	return out, nil
}

// DetectSentiment asks the model for a document-level polarity score.
func (o *OpenAI) DetectSentiment(ctx context.Context, text string) (Sentiment, error) {
	content, err := o.complete(ctx, sentimentSystemPrompt, text)
	if err != nil {
		return Sentiment{}, err
	}
	var decoded struct {
		Score     *float64 `json:"score"`
		Magnitude float64  `json:"magnitude"`
	}
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		return Sentiment{}, fmt.Errorf("parse sentiment response: %w", err)
	}
	if decoded.Score == nil {
		return Sentiment{}, errors.New("openai sentiment score missing")
	}
	return Sentiment{
		Score:     clampFloat(*decoded.Score, -1, 1),
		Magnitude: math.Max(0, decoded.Magnitude),
	}, nil
}

func (o *OpenAI) complete(ctx context.Context, systemPrompt, text string) (string, error) {
	if o == nil || o.apiKey == "" {
		return "", ErrDisabled
	}

	body, err := json.Marshal(o.buildPayload(systemPrompt, text))
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return "", fmt.Errorf("openai status %d: %v", resp.StatusCode, apiErr)
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("openai empty response")
	}

	content := normalizeJSONBlock(decoded.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("openai empty content")
	}
	return content, nil
}

func (o *OpenAI) buildPayload(systemPrompt, text string) map[string]any {
	payload := map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": text},
		},
		"temperature": o.temperature,
	}
	if o.maxTokens > 0 {
		payload["max_tokens"] = o.maxTokens
	}
	return payload
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// normalizeJSONBlock strips markdown fences and any prose around the JSON object.
func normalizeJSONBlock(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.IndexRune(trimmed, '\n'); idx >= 0 {
			trimmed = trimmed[idx+1:]
		}
		if strings.HasSuffix(trimmed, "```") {
			trimmed = trimmed[:len(trimmed)-3]
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end >= start {
		return strings.TrimSpace(trimmed[start : end+1])
	}
	return trimmed
}

// mentionsOf locates every occurrence of name in text. Offsets are byte offsets.
func mentionsOf(text, name string) []Mention {
	if name == "" {
		return nil
	}
	var out []Mention
	for offset := 0; offset < len(text); {
		idx := strings.Index(text[offset:], name)
		if idx < 0 {
			break
		}
		pos := offset + idx
		out = append(out, Mention{Content: name, BeginOffset: int32(pos)})
		offset = pos + len(name)
	}
	return out
}

func clampFloat(value, min, max float64) float64 {
	if math.IsNaN(value) {
		return min
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
