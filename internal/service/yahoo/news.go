package yahoo

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"

	xhttp "Boardroom/pkg/http"
	xlogger "Boardroom/pkg/logger"
)

const maxHeadlines = 5

type searchResponse struct {
	News []struct {
		Title string `json:"title"`
	} `json:"news"`
}

// Headlines returns up to five recent headlines for a symbol. The primary
// feed is tried first; an empty or failed response falls back to the Google
// News RSS search.
func (c *Client) Headlines(ctx context.Context, symbol string) ([]string, error) {
	headlines, err := c.primaryNews(ctx, symbol)
	if err != nil {
		c.logger.Warn("primary news failed", xlogger.String("symbol", symbol), xlogger.Error(err))
	}
	if len(headlines) == 0 {
		headlines, err = c.googleNews(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("news fallback %s: %w", symbol, err)
		}
		if len(headlines) > 0 {
			c.logger.Info("using news fallback",
				xlogger.String("symbol", symbol), xlogger.Int("count", len(headlines)))
		}
	}
	if len(headlines) > maxHeadlines {
		headlines = headlines[:maxHeadlines]
	}
	return headlines, nil
}

func (c *Client) primaryNews(ctx context.Context, symbol string) ([]string, error) {
	var resp searchResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     fmt.Sprintf("%s/v1/finance/search", c.chartURL),
		Headers: map[string]string{"User-Agent": c.userAgent},
		QueryParams: map[string]string{
			"q":           symbol,
			"newsCount":   "10",
			"quotesCount": "0",
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, n := range resp.News {
		if n.Title != "" {
			out = append(out, n.Title)
		}
	}
	return out, nil
}

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title string `xml:"title"`
		} `xml:"item"`
	} `xml:"channel"`
}

func (c *Client) googleNews(ctx context.Context, symbol string) ([]string, error) {
	var body []byte
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL: fmt.Sprintf("%s/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en",
			c.newsURL, url.QueryEscape(symbol+" stock news")),
		Headers: map[string]string{"User-Agent": c.userAgent},
	}, &body)
	if err != nil {
		return nil, err
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse rss: %w", err)
	}
	var out []string
	for _, item := range feed.Channel.Items {
		if item.Title != "" {
			out = append(out, item.Title)
		}
	}
	return out, nil
}
