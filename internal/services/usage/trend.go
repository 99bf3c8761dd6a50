package usage

import (
	"context"
	"sort"

	"github.com/newsroomlabs/usage-insight/internal/store"
	"github.com/newsroomlabs/usage-insight/internal/timeutil"
)

// MonthlyTrend fetches and aggregates each of the last monthsBack calendar
// months, oldest first. An empty serviceID unions every registered service;
// extraction then uses the first registered descriptor's key scheme.
func (s *Service) MonthlyTrend(ctx context.Context, serviceID string, monthsBack int) ([]MonthlyPoint, error) {
	if monthsBack < 1 {
		monthsBack = 1
	}
	if _, err := s.descriptorOrFirst(serviceID); err != nil {
		return nil, err
	}

	months := timeutil.MonthsBack(s.now(), monthsBack)
	points := make([]MonthlyPoint, 0, len(months))
	for _, yearMonth := range months {
		records, desc, err := s.fetchMonth(ctx, serviceID, yearMonth)
		if err != nil {
			return nil, err
		}
		points = append(points, MonthlyPoint{
			YearMonth:         yearMonth,
			AggregationResult: Aggregate(records, desc),
		})
	}
	return points, nil
}

// DailyTrend buckets one month of records by extracted date and aggregates
// each day independently, ascending by date. Records whose date cannot be
// extracted are dropped from the daily buckets; they still count in any
// monthly total computed elsewhere.
func (s *Service) DailyTrend(ctx context.Context, serviceID, yearMonth string) ([]DailyPoint, error) {
	if !timeutil.IsYearMonth(yearMonth) {
		return nil, ErrInvalidYearMonth
	}
	records, desc, err := s.fetchMonth(ctx, serviceID, yearMonth)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string][]store.Record)
	for _, rec := range records {
		date, ok := ExtractDate(rec, desc)
		if !ok {
			continue
		}
		byDay[date] = append(byDay[date], rec)
	}

	dates := make([]string, 0, len(byDay))
	for date := range byDay {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	points := make([]DailyPoint, 0, len(dates))
	for _, date := range dates {
		points = append(points, DailyPoint{
			Date:              date,
			AggregationResult: Aggregate(byDay[date], desc),
		})
	}
	return points, nil
}
