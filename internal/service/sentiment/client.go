package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	xhttp "Boardroom/pkg/http"
	xlogger "Boardroom/pkg/logger"
)

// Client scores headline batches against a FinBERT style inference endpoint.
// The endpoint classifies each text as positive/negative/neutral with a
// confidence; the batch score is the highest positive confidence seen.
type Client struct {
	baseURL string
	http    *xhttp.Client
	logger  *xlogger.Logger
}

func New(baseURL string, timeout time.Duration, logger *xlogger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		logger:  logger.With("sentiment"),
	}
}

type classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Score returns the strongest positive confidence in [0,1] across the given
// headlines. No headlines means no conviction, which callers treat as a
// rejection by the sentiment gate.
func (c *Client) Score(ctx context.Context, headlines []string) (float64, error) {
	if len(headlines) == 0 {
		return 0, nil
	}

	var results [][]classification
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL,
		Body:   map[string]any{"inputs": headlines},
	}, &results)
	if err != nil {
		return 0, fmt.Errorf("sentiment inference: %w", err)
	}

	best := 0.0
	for _, perText := range results {
		for _, cls := range perText {
			if strings.EqualFold(cls.Label, "positive") && cls.Score > best {
				best = cls.Score
			}
		}
	}
	c.logger.Debug("scored headlines",
		xlogger.Int("count", len(headlines)),
		xlogger.Float64("score", best))
	return best, nil
}
