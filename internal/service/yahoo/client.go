package yahoo

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"Boardroom/internal/domain/models"
	xhttp "Boardroom/pkg/http"
	xlogger "Boardroom/pkg/logger"
)

const snapshotFanout = 8

// Client implements MarketData against the Yahoo chart API, with index
// constituents scraped from the configured index page.
type Client struct {
	chartURL  string
	quoteURL  string
	newsURL   string
	indexURL  string
	userAgent string
	client    *xhttp.Client
	logger    *xlogger.Logger
}

func New(chartURL, quoteURL, newsURL, indexURL, userAgent string, timeout time.Duration, logger *xlogger.Logger) *Client {
	if userAgent == "" {
		userAgent = "Mozilla/5.0"
	}
	return &Client{
		chartURL:  chartURL,
		quoteURL:  quoteURL,
		newsURL:   newsURL,
		indexURL:  indexURL,
		userAgent: userAgent,
		client:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		logger:    logger.With("yahoo"),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History fetches one symbol's candle series. Bars with a missing close are
// dropped, matching the upstream data's habit of sparse rows.
func (c *Client) History(ctx context.Context, symbol, period, interval string) (models.Series, error) {
	var resp chartResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", c.chartURL, symbol),
		Headers: map[string]string{
			"User-Agent": c.userAgent,
		},
		QueryParams: map[string]string{
			"range":    mapRange(period),
			"interval": interval,
		},
	}, &resp)
	if err != nil {
		return models.Series{}, fmt.Errorf("chart %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return models.Series{}, fmt.Errorf("chart %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return models.Series{}, fmt.Errorf("chart %s: empty result", symbol)
	}

	res := resp.Chart.Result[0]
	q := res.Indicators.Quote[0]
	series := models.Series{Symbol: symbol}
	for i, ts := range res.Timestamp {
		if i >= len(q.Close) || q.Close[i] == 0 {
			continue
		}
		candle := models.Candle{
			Timestamp: time.Unix(ts, 0),
			Close:     q.Close[i],
		}
		if i < len(q.Open) {
			candle.Open = q.Open[i]
		}
		if i < len(q.High) {
			candle.High = q.High[i]
		}
		if i < len(q.Low) {
			candle.Low = q.Low[i]
		}
		if i < len(q.Volume) {
			candle.Volume = q.Volume[i]
		}
		series.Candles = append(series.Candles, candle)
	}
	if len(series.Candles) == 0 {
		return models.Series{}, fmt.Errorf("chart %s: no usable bars", symbol)
	}
	return series, nil
}

// Snapshot fetches the per-symbol two-point view for one scan batch. The
// fan-out is bounded; a symbol that fails is simply absent from the result.
func (c *Client) Snapshot(ctx context.Context, symbols []string, period, interval string) (map[string]models.MarketSnapshot, error) {
	if len(symbols) == 0 {
		return map[string]models.MarketSnapshot{}, nil
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]models.MarketSnapshot, len(symbols))
		sem = make(chan struct{}, snapshotFanout)
	)
	for _, symbol := range symbols {
		wg.Add(1)
		sem <- struct{}{}
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()

			series, err := c.History(ctx, symbol, period, interval)
			if err != nil {
				c.logger.Debug("snapshot miss", xlogger.String("symbol", symbol), xlogger.Error(err))
				return
			}
			snap, ok := toSnapshot(series)
			if !ok {
				return
			}
			mu.Lock()
			out[symbol] = snap
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()
	return out, nil
}

func toSnapshot(series models.Series) (models.MarketSnapshot, bool) {
	n := len(series.Candles)
	if n < 2 {
		return models.MarketSnapshot{}, false
	}
	var totalVol float64
	for _, candle := range series.Candles {
		totalVol += candle.Volume
	}
	last := series.Candles[n-1]
	prev := series.Candles[n-2]
	return models.MarketSnapshot{
		Symbol:        series.Symbol,
		CurrentVolume: last.Volume,
		AverageVolume: totalVol / float64(n),
		CurrentPrice:  last.Close,
		PreviousClose: prev.Close,
	}, true
}

var tickerCellRe = regexp.MustCompile(`<td[^>]*><a[^>]*>([A-Z][A-Z0-9.\-]{0,9})</a>`)

// Constituents scrapes the benchmark index member list. Failure yields an
// empty slice so the scheduler falls back to the watchlist alone.
func (c *Client) Constituents(ctx context.Context) ([]string, error) {
	if c.indexURL == "" {
		return nil, nil
	}
	var body []byte
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     c.indexURL,
		Headers: map[string]string{"User-Agent": c.userAgent},
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("fetch constituents: %w", err)
	}

	seen := make(map[string]struct{})
	var out []string
	for _, m := range tickerCellRe.FindAllSubmatch(body, -1) {
		sym := normalizeIndexSymbol(string(m[1]))
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out, nil
}

// normalizeIndexSymbol converts index-page share-class dots (BRK.B) to the
// dash form the chart API expects (BRK-B).
func normalizeIndexSymbol(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			out[i] = '-'
		} else {
			out[i] = s[i]
		}
	}
	return string(out)
}

func mapRange(period string) string {
	switch period {
	case "365d", "1y":
		return "1y"
	case "2d", "5d", "1d":
		return period
	default:
		return "5d"
	}
}
