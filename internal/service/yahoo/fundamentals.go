package yahoo

import (
	"context"
	"fmt"

	xhttp "Boardroom/pkg/http"
)

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				ForwardPE struct {
					Raw float64 `json:"raw"`
				} `json:"forwardPE"`
				TrailingPE struct {
					Raw float64 `json:"raw"`
				} `json:"trailingPE"`
			} `json:"summaryDetail"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// PERatio fetches the forward P/E, falling back to trailing. A nil ratio with
// nil error means the symbol has no meaningful valuation ratio.
func (c *Client) PERatio(ctx context.Context, symbol string) (*float64, error) {
	var resp quoteSummaryResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     fmt.Sprintf("%s/v10/finance/quoteSummary/%s", c.quoteURL, symbol),
		Headers: map[string]string{"User-Agent": c.userAgent},
		QueryParams: map[string]string{
			"modules": "summaryDetail",
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("quote summary %s: %w", symbol, err)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, nil
	}

	detail := resp.QuoteSummary.Result[0].SummaryDetail
	if detail.ForwardPE.Raw != 0 {
		pe := detail.ForwardPE.Raw
		return &pe, nil
	}
	if detail.TrailingPE.Raw != 0 {
		pe := detail.TrailingPE.Raw
		return &pe, nil
	}
	return nil, nil
}
