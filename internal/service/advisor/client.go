package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"Boardroom/internal/domain/models"
	"Boardroom/internal/domain/repository"
	xhttp "Boardroom/pkg/http"
	xlogger "Boardroom/pkg/logger"
)

const briefCacheKey = "advisor:brief"

// fallbackAllocation is used whenever the advisory call fails or returns
// garbage. It keeps the equity book running and parks the crypto book.
var fallbackAllocation = models.BudgetAllocation{StockShare: 0.8, CryptoShare: 0.0}

// Client talks to an OpenAI-compatible chat completions endpoint and turns
// free-form model output into a budget allocation and a market brief.
type Client struct {
	baseURL  string
	apiKey   string
	model    string
	briefTTL time.Duration

	http   *xhttp.Client
	cache  repository.Cache
	logger *xlogger.Logger
}

func New(baseURL, apiKey, model string, timeout, briefTTL time.Duration, cache repository.Cache, logger *xlogger.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		model:    model,
		briefTTL: briefTTL,
		http:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		cache:    cache,
		logger:   logger.With("advisor"),
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	var resp chatResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.baseURL + "/chat/completions",
		Headers: map[string]string{"Authorization": "Bearer " + c.apiKey},
		Body:    req,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Allocate asks the advisory model for a stock/crypto budget split given the
// day's realized PnL, the market brief and the benchmark bias. Any failure
// falls back to a conservative equity-heavy split.
func (c *Client) Allocate(ctx context.Context, dailyPnL float64, marketBrief string, bias models.MarketBias) (models.BudgetAllocation, error) {
	system := "You are a portfolio risk manager. Respond only with a JSON object " +
		`of the form {"stock_share": <0..1>, "crypto_share": <0..1>} whose shares sum to at most 1.`
	user := fmt.Sprintf(
		"Daily realized PnL: %.2f USD\nBenchmark bias: %s\nMarket brief:\n%s\n\nPropose today's budget split.",
		dailyPnL, bias, marketBrief)

	content, err := c.complete(ctx, system, user)
	if err != nil {
		c.logger.Warn("allocation call failed, using fallback", xlogger.Error(err))
		return fallbackAllocation, nil
	}

	alloc, err := parseAllocation(content)
	if err != nil {
		c.logger.Warn("unparseable allocation, using fallback",
			xlogger.Error(err), xlogger.String("content", content))
		return fallbackAllocation, nil
	}
	return alloc.Normalize(), nil
}

// MarketBrief returns a short macro summary, cached so repeated conferences
// within the TTL reuse one upstream call.
func (c *Client) MarketBrief(ctx context.Context) (string, error) {
	if b, ok, err := c.cache.GetBytes(briefCacheKey); err == nil && ok {
		return string(b), nil
	}

	system := "You are a markets desk analyst. Write a brief, factual summary of current market conditions in at most 120 words."
	user := "Summarize the current state of US equity and crypto markets for a trading desk morning meeting."
	content, err := c.complete(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("market brief: %w", err)
	}
	if err := c.cache.SetBytes(briefCacheKey, []byte(content), c.briefTTL); err != nil {
		c.logger.Warn("brief cache write failed", xlogger.Error(err))
	}
	return content, nil
}

// parseAllocation extracts the first JSON object from model output, tolerant
// of markdown fences and surrounding prose.
func parseAllocation(content string) (models.BudgetAllocation, error) {
	cleaned := extractJSON(content)
	if cleaned == "" {
		return models.BudgetAllocation{}, fmt.Errorf("no JSON object in output")
	}
	var alloc models.BudgetAllocation
	if err := json.Unmarshal([]byte(cleaned), &alloc); err != nil {
		return models.BudgetAllocation{}, fmt.Errorf("decode allocation: %w", err)
	}
	return alloc, nil
}

func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.Index(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
