package services

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/saehim/attendance-backend/internal/clients/redis"
	"github.com/saehim/attendance-backend/internal/data/repos"
	domainagg "github.com/saehim/attendance-backend/internal/domain/aggregates"
	"github.com/saehim/attendance-backend/internal/platform/dbctx"
	"github.com/saehim/attendance-backend/internal/platform/logger"
)

const (
	trendBucket   = 7 * 24 * time.Hour
	trendCacheTTL = 10 * time.Minute
	// yAxisStep is the rounding unit for the chart ceiling.
	yAxisStep = 50
)

type TrendPoint struct {
	WeekStart       time.Time `json:"week_start"`
	AttendanceCount int       `json:"attendance_count"`
}

type TrendResult struct {
	Series   []TrendPoint `json:"series"`
	YAxisMax int          `json:"y_axis_max"`
}

type TrendService interface {
	// GetTrend sums attended events per 7-day bucket, anchored at the first
	// Sunday on or after the season anchor, across every organization.
	GetTrend(ctx context.Context, activityType string, now time.Time) (TrendResult, error)
}

type trendService struct {
	log    *logger.Logger
	events repos.AttendanceEventRepo
	cache  redisclient.ReportCache
	anchor time.Time
}

// NewTrendService takes the raw season anchor date; the series itself starts
// on the first Sunday on or after it. cache may be nil, which disables
// caching entirely.
func NewTrendService(log *logger.Logger, events repos.AttendanceEventRepo, cache redisclient.ReportCache, seasonAnchor time.Time) TrendService {
	return &trendService{
		log:    log.With("service", "TrendService"),
		events: events,
		cache:  cache,
		anchor: firstSundayOnOrAfter(seasonAnchor),
	}
}

func (s *trendService) GetTrend(ctx context.Context, activityType string, now time.Time) (TrendResult, error) {
	const op = "Trend.GetTrend"
	var out TrendResult
	if activityType == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "activity type is required", nil)
	}
	if now.IsZero() {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "reference time is required", nil)
	}

	cacheKey := fmt.Sprintf("report:trend:%s:%s", activityType, now.UTC().Format("2006-01-02T15"))
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &out); err != nil {
			s.log.Warn("trend cache read failed, recomputing", "key", cacheKey, "error", err)
		} else if hit {
			return out, nil
		}
	}

	out, err := s.compute(ctx, activityType, now)
	if err != nil {
		return TrendResult{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, out, trendCacheTTL); err != nil {
			s.log.Warn("trend cache write failed", "key", cacheKey, "error", err)
		}
	}
	return out, nil
}

func (s *trendService) compute(ctx context.Context, activityType string, now time.Time) (TrendResult, error) {
	const op = "Trend.compute"
	out := TrendResult{Series: []TrendPoint{}, YAxisMax: yAxisStep}
	if !now.After(s.anchor) {
		return out, nil
	}

	events, err := s.events.ListAttendedInRange(dbctx.Context{Ctx: ctx}, activityType, s.anchor, now)
	if err != nil {
		return TrendResult{}, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}

	buckets := int(now.Sub(s.anchor)/trendBucket) + 1
	counts := make([]int, buckets)
	for _, ev := range events {
		idx := int(ev.OccurredAt.Sub(s.anchor) / trendBucket)
		if idx < 0 || idx >= buckets {
			continue
		}
		counts[idx]++
	}

	maxCount := 0
	out.Series = make([]TrendPoint, buckets)
	for i, n := range counts {
		out.Series[i] = TrendPoint{
			WeekStart:       s.anchor.Add(time.Duration(i) * trendBucket),
			AttendanceCount: n,
		}
		if n > maxCount {
			maxCount = n
		}
	}
	out.YAxisMax = chartCeiling(maxCount)
	return out, nil
}

// chartCeiling rounds up to the next yAxisStep, never below one step.
func chartCeiling(max int) int {
	if max <= 0 {
		return yAxisStep
	}
	return ((max + yAxisStep - 1) / yAxisStep) * yAxisStep
}

// firstSundayOnOrAfter normalizes the anchor to midnight UTC of the first
// Sunday on or after it.
func firstSundayOnOrAfter(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (7 - int(day.Weekday())) % 7
	return day.AddDate(0, 0, offset)
}
