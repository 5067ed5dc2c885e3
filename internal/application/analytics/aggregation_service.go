package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/btp-erp/backend/internal/domain/analytics"
	"github.com/btp-erp/backend/internal/domain/ledger"
	"go.uber.org/zap"
)

// Cache stores computed statistics for a short time
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// Config holds aggregation defaults
type Config struct {
	DefaultMonths int
	DefaultLimit  int
	CacheTTL      time.Duration
}

// DefaultConfig returns the defaults used when no configuration is given
func DefaultConfig() Config {
	return Config{DefaultMonths: 12, DefaultLimit: 5, CacheTTL: 30 * time.Second}
}

// AggregationService computes dashboard statistics from a fresh snapshot on
// every call, optionally served from a short-lived cache
type AggregationService struct {
	reader analytics.SnapshotReader
	cache  Cache
	cfg    Config
	now    func() time.Time
	logger *zap.Logger
}

// NewAggregationService creates a new AggregationService. cache may be nil.
func NewAggregationService(reader analytics.SnapshotReader, cache Cache, cfg Config, logger *zap.Logger) *AggregationService {
	def := DefaultConfig()
	if cfg.DefaultMonths <= 0 {
		cfg.DefaultMonths = def.DefaultMonths
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.CacheTTL <= 0 || cfg.CacheTTL > def.CacheTTL {
		cfg.CacheTTL = def.CacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AggregationService{
		reader: reader,
		cache:  cache,
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
	}
}

// Stats returns totals, monthly buckets and the category breakdown
func (s *AggregationService) Stats(ctx context.Context, q StatsQuery) (*StatsResponse, error) {
	var out StatsResponse
	err := s.cached(ctx, "stats", q, &out, func(snap *analytics.Snapshot, w analytics.Window, _ int, now time.Time) any {
		out = s.buildStats(snap, w, now)
		return out
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DashboardStats returns Stats plus top-N rankings and the sales pipeline
func (s *AggregationService) DashboardStats(ctx context.Context, q StatsQuery) (*DashboardStatsResponse, error) {
	var out DashboardStatsResponse
	err := s.cached(ctx, "dashboard", q, &out, func(snap *analytics.Snapshot, w analytics.Window, limit int, now time.Time) any {
		out = DashboardStatsResponse{
			StatsResponse:        s.buildStats(snap, w, now),
			TopSuppliers:         toRankedResponses(analytics.TopSuppliers(snap.Transactions, limit)),
			TopProducts:          toRankedResponses(analytics.TopProducts(snap.SalesRecords, limit)),
			TopExpenseCategories: toRankedResponses(analytics.TopExpenseCategories(snap.Transactions, limit)),
			Pipeline:             toPipelineResponse(analytics.ComputePipeline(snap.SalesRecords)),
			GeneratedAt:          now,
		}
		return out
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// buildStats buckets over the resolved window so that monthly sums always
// add up to the totals, whether the window came from months or from dates
func (s *AggregationService) buildStats(snap *analytics.Snapshot, w analytics.Window, now time.Time) StatsResponse {
	resp := StatsResponse{
		Totals:     toTotalsResponse(analytics.ComputeTotals(snap.Transactions, now)),
		ByMonth:    toMonthResponses(analytics.ByMonthIn(snap.Transactions, w)),
		ByCategory: toCategoryResponses(analytics.ByCategory(snap.Transactions)),
	}
	if !w.From.IsZero() {
		from := w.From
		resp.From = &from
	}
	if !w.To.IsZero() {
		to := w.To
		resp.To = &to
	}
	return resp
}

type computeFunc func(snap *analytics.Snapshot, w analytics.Window, limit int, now time.Time) any

// cached resolves the window, serves dest from the cache when possible and
// otherwise loads a snapshot and computes it
func (s *AggregationService) cached(ctx context.Context, kind string, q StatsQuery, dest any, compute computeFunc) error {
	now := s.now()
	w, limit, err := s.resolve(q, now)
	if err != nil {
		return err
	}

	key := cacheKey(kind, w, limit, now)
	if s.cache != nil {
		hit, err := s.cache.Get(ctx, key, dest)
		if err != nil {
			s.logger.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return nil
		}
	}

	snap, err := s.reader.Snapshot(ctx, w)
	if err != nil {
		return fmt.Errorf("failed to load aggregation snapshot: %w", err)
	}
	value := compute(snap, w, limit, now)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// resolve builds the window. Without explicit dates the window is the last
// months calendar months; explicit dates take precedence and months is ignored.
func (s *AggregationService) resolve(q StatsQuery, now time.Time) (analytics.Window, int, error) {
	months := q.Months
	if months <= 0 {
		months = s.cfg.DefaultMonths
	}
	limit := q.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	var w analytics.Window
	if q.DateFrom == nil && q.DateTo == nil {
		w = analytics.MonthsBack(now, months)
	} else {
		if q.DateFrom != nil {
			w.From = *q.DateFrom
		}
		if q.DateTo != nil {
			w.To = q.DateTo.AddDate(0, 0, 1)
		}
	}
	w.ClientID = q.ClientID
	w.Category = ledger.Category(q.Category)
	if err := w.Validate(); err != nil {
		return analytics.Window{}, 0, err
	}
	return w, limit, nil
}

func cacheKey(kind string, w analytics.Window, limit int, now time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s:%d:%s",
		kind, dateKey(w.From), dateKey(w.To), w.ClientID, w.Category, limit, now.Format("2006-01"))
}

func dateKey(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("20060102")
}
