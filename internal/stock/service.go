package stock

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/warelog/warelog/internal/shared"
)

// ReadStore abstracts the repository for the service.
type ReadStore interface {
	Quantity(ctx context.Context, productID, locationID int64) (float64, error)
	TotalForProduct(ctx context.Context, productID int64) (float64, error)
	List(ctx context.Context) ([]Level, error)
	History(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, error)
}

const (
	listCacheKey = "stock:levels"
	listCacheTTL = 30 * time.Second
)

// Service serves ledger reads, caching the full level listing briefly since
// the dashboard polls it.
type Service struct {
	store  ReadStore
	cache  *redis.Client
	logger *slog.Logger
}

// NewService constructs Service. cache may be nil; reads then skip caching.
func NewService(store ReadStore, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{store: store, cache: cache, logger: logger}
}

// Quantity returns the on-hand quantity for one product at one location.
func (s *Service) Quantity(ctx context.Context, productID, locationID int64) (float64, error) {
	if productID <= 0 {
		return 0, shared.NewValidationError("product_id", "must be positive")
	}
	if locationID <= 0 {
		return 0, shared.NewValidationError("location_id", "must be positive")
	}
	return s.store.Quantity(ctx, productID, locationID)
}

// TotalForProduct sums the product's quantity across all locations.
func (s *Service) TotalForProduct(ctx context.Context, productID int64) (float64, error) {
	if productID <= 0 {
		return 0, shared.NewValidationError("product_id", "must be positive")
	}
	return s.store.TotalForProduct(ctx, productID)
}

// List returns every tracked stock level.
func (s *Service) List(ctx context.Context) ([]Level, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, listCacheKey).Bytes()
		if err == nil {
			var levels []Level
			if err := json.Unmarshal(raw, &levels); err == nil {
				return levels, nil
			}
		} else if err != redis.Nil {
			s.logger.WarnContext(ctx, "stock list cache read failed", slog.String("error", err.Error()))
		}
	}
	levels, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if raw, err := json.Marshal(levels); err == nil {
			if err := s.cache.Set(ctx, listCacheKey, raw, listCacheTTL).Err(); err != nil {
				s.logger.WarnContext(ctx, "stock list cache write failed", slog.String("error", err.Error()))
			}
		}
	}
	return levels, nil
}

// InvalidateListCache drops the cached level listing. Movement writers call
// this after commit so the next listing reflects the change.
func (s *Service) InvalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, listCacheKey).Err(); err != nil {
		s.logger.WarnContext(ctx, "stock list cache invalidation failed", slog.String("error", err.Error()))
	}
}

// History lists the merged movement stream.
func (s *Service) History(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, error) {
	if filter.ProductID < 0 || filter.LocationID < 0 {
		return nil, shared.NewValidationError("filter", "ids must not be negative")
	}
	return s.store.History(ctx, filter)
}
