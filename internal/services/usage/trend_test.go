package usage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroomlabs/usage-insight/internal/store"
)

func TestMonthlyTrendWindow(t *testing.T) {
	fs := newFakeStore()
	fs.add("alpha-usage",
		alphaRecord("u1", "T5", "2025-09", 10, 6, 4, 1),
		alphaRecord("u1", "T5", "2025-10", 20, 12, 8, 1),
		alphaRecord("u2", "C7", "2025-11", 30, 18, 12, 1),
	)
	svc := testService(t, fs, nil)

	// Fixed clock: November 2025.
	points, err := svc.MonthlyTrend(context.Background(), "alpha", 3)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, "2025-09", points[0].YearMonth)
	assert.Equal(t, "2025-10", points[1].YearMonth)
	assert.Equal(t, "2025-11", points[2].YearMonth)
	assert.Equal(t, int64(10), points[0].TotalTokens)
	assert.Equal(t, int64(20), points[1].TotalTokens)
	assert.Equal(t, int64(30), points[2].TotalTokens)
}

func TestMonthlyTrendEmptyMonthsPresent(t *testing.T) {
	fs := newFakeStore()
	fs.add("alpha-usage", alphaRecord("u1", "T5", "2025-11", 30, 18, 12, 1))
	svc := testService(t, fs, nil)

	points, err := svc.MonthlyTrend(context.Background(), "alpha", 2)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "2025-10", points[0].YearMonth)
	assert.Zero(t, points[0].TotalTokens)
	assert.Equal(t, int64(30), points[1].TotalTokens)
}

func TestMonthlyTrendAllServicesUnion(t *testing.T) {
	fs := newFakeStore()
	fs.add("alpha-usage", alphaRecord("u1", "T5", "2025-11", 30, 18, 12, 1))
	fs.add("beta-usage", betaRecord("u2", "2025-11", 20))
	svc := testService(t, fs, nil)

	// Empty service id unions every registered table; extraction follows
	// the first registered descriptor's key scheme, so alpha's composite
	// partition key and beta's flat one both resolve to a user id.
	points, err := svc.MonthlyTrend(context.Background(), "", 1)
	require.NoError(t, err)
	require.Len(t, points, 1)

	assert.Equal(t, "2025-11", points[0].YearMonth)
	assert.Equal(t, int64(50), points[0].TotalTokens)
	assert.Equal(t, 2, points[0].ActiveUsers)
	assert.Equal(t, int64(30), points[0].ByEngine["T5"].TotalTokens)
	assert.Equal(t, int64(20), points[0].ByEngine["basic"].TotalTokens)
}

func TestDailyTrendAllServicesUnion(t *testing.T) {
	fs := newFakeStore()
	// Alpha rows carry no date and fall out of the daily buckets; the
	// beta row's createdAt survives the union.
	fs.add("alpha-usage", alphaRecord("u1", "T5", "2025-11", 30, 18, 12, 1))
	fs.add("beta-usage", betaRecord("u2", "2025-11", 20))
	svc := testService(t, fs, nil)

	points, err := svc.DailyTrend(context.Background(), "", "2025-11")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "2025-11-05", points[0].Date)
	assert.Equal(t, int64(20), points[0].TotalTokens)
}

func TestMonthlyTrendUnknownService(t *testing.T) {
	svc := testService(t, newFakeStore(), nil)

	_, err := svc.MonthlyTrend(context.Background(), "nope", 3)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestMonthlyTrendClampsMonthsBack(t *testing.T) {
	fs := newFakeStore()
	svc := testService(t, fs, nil)

	points, err := svc.MonthlyTrend(context.Background(), "alpha", 0)
	require.NoError(t, err)
	assert.Len(t, points, 1)
	assert.Equal(t, "2025-11", points[0].YearMonth)
}

func TestDailyTrendGroupsAndSorts(t *testing.T) {
	fs := newFakeStore()
	fs.add("beta-usage",
		store.Record{"PK": "u1", "SK": "2025-11", "engineType": "basic", "totalTokens": float64(10), "createdAt": "2025-11-07T12:00:00Z", "userId": "u1"},
		store.Record{"PK": "u2", "SK": "2025-11", "engineType": "basic", "totalTokens": float64(20), "createdAt": "2025-11-03T08:00:00Z", "userId": "u2"},
		store.Record{"PK": "u1", "SK": "2025-11", "engineType": "basic", "totalTokens": float64(5), "createdAt": "2025-11-03T19:00:00Z", "userId": "u1"},
	)
	svc := testService(t, fs, nil)

	points, err := svc.DailyTrend(context.Background(), "beta", "2025-11")
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "2025-11-03", points[0].Date)
	assert.Equal(t, int64(25), points[0].TotalTokens)
	assert.Equal(t, 2, points[0].ActiveUsers)
	assert.Equal(t, "2025-11-07", points[1].Date)
	assert.Equal(t, int64(10), points[1].TotalTokens)
}

func TestDailyTrendDropsUndatedRecords(t *testing.T) {
	fs := newFakeStore()
	fs.add("alpha-usage",
		// No date field and the sort key holds only a year-month.
		alphaRecord("u1", "T5", "2025-11", 10, 6, 4, 1),
	)
	svc := testService(t, fs, nil)

	points, err := svc.DailyTrend(context.Background(), "alpha", "2025-11")
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestDailyTrendRejectsBadMonth(t *testing.T) {
	svc := testService(t, newFakeStore(), nil)

	_, err := svc.DailyTrend(context.Background(), "beta", "2025-1")
	assert.ErrorIs(t, err, ErrInvalidYearMonth)
}
