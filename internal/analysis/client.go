package analysis

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

const (
	LabelPositive = "Positive"
	LabelNegative = "Negative"
)

// Client joins the entity and sentiment calls of a Provider.
type Client struct {
	provider Provider
}

// NewClient constructs a Client around the supplied provider.
func NewClient(p Provider) *Client {
	return &Client{provider: p}
}

// Analyze runs entity and sentiment detection concurrently on the same text and
// returns both results once both succeed. The first failure is returned as-is and
// cancels the context of the sibling call.
func (c *Client) Analyze(ctx context.Context, text string) (Result, error) {
	if c == nil || c.provider == nil {
		return Result{}, errors.New("analysis provider not configured")
	}

	var (
		entities  EntityAnalysis
		sentiment Sentiment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := c.provider.DetectEntities(gctx, text)
		if err != nil {
			return err
		}
		entities = res
		return nil
	})
	g.Go(func() error {
		res, err := c.provider.DetectSentiment(gctx, text)
		if err != nil {
			return err
		}
		sentiment = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return Result{Analysis: entities, Sentiment: sentiment}, nil
}

// Label maps a sentiment score onto the two-valued polarity label.
func Label(score float64) string {
	if score >= 0 {
		return LabelPositive
	}
	return LabelNegative
}
