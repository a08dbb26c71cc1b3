package analysis

import (
	"context"
	"errors"
	"strings"

	language "cloud.google.com/go/language/apiv1"
	"cloud.google.com/go/language/apiv1/languagepb"
	"google.golang.org/api/option"
)

// GoogleConfig holds Cloud Natural Language client options. Credentials fall back
// to Application Default Credentials when CredentialsFile is empty.
type GoogleConfig struct {
	CredentialsFile string
}

// Google implements Provider against the Cloud Natural Language API.
type Google struct {
	client *language.Client
}

// NewGoogle dials the Cloud Natural Language API.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*Google, error) {
	var opts []option.ClientOption
	if path := strings.TrimSpace(cfg.CredentialsFile); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}
	client, err := language.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Google{client: client}, nil
}

// Close releases the underlying gRPC connection.
func (g *Google) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

// DetectEntities calls AnalyzeEntities on a plain text document.
func (g *Google) DetectEntities(ctx context.Context, text string) (EntityAnalysis, error) {
	resp, err := g.client.AnalyzeEntities(ctx, &languagepb.AnalyzeEntitiesRequest{
		Document:     plainTextDocument(text),
		EncodingType: languagepb.EncodingType_UTF8,
	})
	if err != nil {
		return EntityAnalysis{}, err
	}
	return entityAnalysisFromProto(resp), nil
}

// DetectSentiment calls AnalyzeSentiment and returns the document sentiment.
func (g *Google) DetectSentiment(ctx context.Context, text string) (Sentiment, error) {
	resp, err := g.client.AnalyzeSentiment(ctx, &languagepb.AnalyzeSentimentRequest{
		Document:     plainTextDocument(text),
		EncodingType: languagepb.EncodingType_UTF8,
	})
	if err != nil {
		return Sentiment{}, err
	}
	return sentimentFromProto(resp)
}

func plainTextDocument(text string) *languagepb.Document {
	return &languagepb.Document{
		Source: &languagepb.Document_Content{Content: text},
		Type:   languagepb.Document_PLAIN_TEXT,
	}
}

func entityAnalysisFromProto(resp *languagepb.AnalyzeEntitiesResponse) EntityAnalysis {
	out := EntityAnalysis{Entities: []Entity{}}
	if resp == nil {
		return out
	}
	out.Language = resp.GetLanguage()
	for _, e := range resp.GetEntities() {
		if e == nil {
			continue
		}
		entity := Entity{
			Name:     e.GetName(),
			Type:     e.GetType().String(),
			Salience: float64(e.GetSalience()),
			Metadata: e.GetMetadata(),
		}
		for _, m := range e.GetMentions() {
			if m == nil {
				continue
			}
			entity.Mentions = append(entity.Mentions, Mention{
				Content:     m.GetText().GetContent(),
				BeginOffset: m.GetText().GetBeginOffset(),
				Type:        m.GetType().String(),
			})
		}
		out.Entities = append(out.Entities, entity)
	}
	return out
}

func sentimentFromProto(resp *languagepb.AnalyzeSentimentResponse) (Sentiment, error) {
	doc := resp.GetDocumentSentiment()
	if doc == nil {
		return Sentiment{}, errors.New("language api returned no document sentiment")
	}
	return Sentiment{
		Score:     float64(doc.GetScore()),
		Magnitude: float64(doc.GetMagnitude()),
	}, nil
}
