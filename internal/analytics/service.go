package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nulzo/prism-local/internal/store"
	"github.com/nulzo/prism-local/internal/store/cache"
	"github.com/nulzo/prism-local/internal/store/model"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultDays = 7
	maxDays     = 365
	usageTTL    = 30 * time.Second
)

// ErrDisabled is returned when no request store is configured.
var ErrDisabled = errors.New("analytics disabled")

type Service interface {
	GetUsageOverview(ctx context.Context, days int) ([]model.DailyStats, error)
	RecentRequests(ctx context.Context, modelID string, limit int) ([]model.RequestLog, error)
}

type service struct {
	repo    store.Repository
	cache   cache.CacheService
	logger  *zap.Logger
	sfGroup singleflight.Group
}

// NewService builds the read side of analytics. repo may be nil when the
// database is disabled; c may be nil to skip caching.
func NewService(logger *zap.Logger, repo store.Repository, c cache.CacheService) Service {
	return &service{
		repo:   repo,
		cache:  c,
		logger: logger,
	}
}

func (s *service) GetUsageOverview(ctx context.Context, days int) ([]model.DailyStats, error) {
	if s.repo == nil {
		return nil, ErrDisabled
	}
	days = NormalizeDays(days)

	key := fmt.Sprintf("analytics:usage:%d", days)
	if s.cache != nil {
		var cached []model.DailyStats
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("usage cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	// concurrent misses for the same window share one query
	v, err, _ := s.sfGroup.Do(key, func() (interface{}, error) {
		stats, err := s.repo.Requests().GetDailyStats(ctx, days)
		if err != nil {
			return nil, err
		}
		if stats == nil {
			stats = []model.DailyStats{}
		}

		if s.cache != nil {
			if err := s.cache.Set(ctx, key, stats, usageTTL); err != nil {
				s.logger.Warn("usage cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return stats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.DailyStats), nil
}

// NormalizeDays maps a requested window onto [1, 365], defaulting to a week.
func NormalizeDays(days int) int {
	if days <= 0 {
		return defaultDays
	}
	if days > maxDays {
		return maxDays
	}
	return days
}

func (s *service) RecentRequests(ctx context.Context, modelID string, limit int) ([]model.RequestLog, error) {
	if s.repo == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.repo.Requests().GetRecent(ctx, modelID, limit)
}
