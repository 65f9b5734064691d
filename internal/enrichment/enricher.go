package enrichment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/FrankPreci/capitol-shill/internal/domain/models"
	drepo "github.com/FrankPreci/capitol-shill/internal/domain/repository"
	"github.com/FrankPreci/capitol-shill/internal/service/cache"
	"github.com/FrankPreci/capitol-shill/pkg/logger"
)

// Enricher resolves asset metadata for symbols, caching results so a batch
// with many trades in the same ticker costs one lookup.
type Enricher struct {
	source  drepo.MetadataSource
	cache   cache.BytesCache
	ttl     time.Duration
	log     *logger.Logger
	metrics drepo.Metrics
}

func New(source drepo.MetadataSource, payloads cache.BytesCache, ttl time.Duration, log *logger.Logger, metrics drepo.Metrics) *Enricher {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Enricher{source: source, cache: payloads, ttl: ttl, log: log, metrics: metrics}
}

// Asset returns metadata for symbol. Lookups never fail the caller: any
// error degrades to the Unknown placeholder record.
func (e *Enricher) Asset(ctx context.Context, symbol string) *models.AssetInfo {
	key := "asset:" + symbol
	if e.cache != nil {
		if b, ok, err := e.cache.GetBytes(key); err == nil && ok {
			e.metrics.RecordCacheLookup("asset", true)
			var info models.AssetInfo
			if err := json.Unmarshal(b, &info); err == nil {
				return &info
			}
		} else {
			e.metrics.RecordCacheLookup("asset", false)
		}
	}

	info, err := e.source.Lookup(ctx, symbol)
	if err != nil || info == nil {
		if err != nil {
			e.log.Debug("metadata lookup failed",
				logger.String("symbol", symbol),
				logger.Error(err))
			e.metrics.RecordError("metadata")
		}
		return models.UnknownAsset()
	}

	if e.cache != nil {
		if b, err := json.Marshal(info); err == nil {
			_ = e.cache.SetBytes(key, b, e.ttl)
		}
	}
	return info
}
