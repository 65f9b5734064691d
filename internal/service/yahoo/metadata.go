package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/FrankPreci/capitol-shill/internal/domain/models"
)

type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price *struct {
				ShortName string `json:"shortName"`
				LongName  string `json:"longName"`
				MarketCap struct {
					Raw float64 `json:"raw"`
				} `json:"marketCap"`
			} `json:"price"`
			AssetProfile *struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// Lookup fetches name, sector, industry and market cap for a symbol.
func (c *Client) Lookup(ctx context.Context, symbol string) (*models.AssetInfo, error) {
	if err := c.limiter.Wait(ctx, rateKey, c.cfg.RateCapacity, c.cfg.RatePerSecond); err != nil {
		return nil, err
	}
	c.metrics.RecordProviderRequest("quote_summary")

	body, err := c.get(ctx, c.cfg.BaseURL+summaryPath+url.PathEscape(symbol), map[string][]string{
		"modules": {"price,assetProfile"},
	})
	if err != nil {
		return nil, fmt.Errorf("quote summary %s: %w", symbol, err)
	}

	var summary summaryResponse
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("decode quote summary: %w", err)
	}
	if summary.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("%w: %s", errSymbolNotFound, summary.QuoteSummary.Error.Description)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return nil, errSymbolNotFound
	}

	result := summary.QuoteSummary.Result[0]
	info := models.UnknownAsset()
	if result.Price != nil {
		if result.Price.ShortName != "" {
			info.Name = result.Price.ShortName
		} else if result.Price.LongName != "" {
			info.Name = result.Price.LongName
		}
		if result.Price.MarketCap.Raw > 0 {
			info.MarketCap = result.Price.MarketCap.Raw
		}
	}
	if result.AssetProfile != nil {
		if result.AssetProfile.Sector != "" {
			info.Sector = result.AssetProfile.Sector
		}
		if result.AssetProfile.Industry != "" {
			info.Industry = result.AssetProfile.Industry
		}
	}
	return info, nil
}
