// Package usage is the aggregation engine: it normalizes heterogeneous
// per-service usage records into a common metric model, folds them into
// totals and breakdowns, and builds the ranked and time-bucketed summaries
// served to the dashboard.
package usage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/newsroomlabs/usage-insight/internal/identity"
	"github.com/newsroomlabs/usage-insight/internal/observability"
	"github.com/newsroomlabs/usage-insight/internal/registry"
	"github.com/newsroomlabs/usage-insight/internal/store"
	"github.com/newsroomlabs/usage-insight/internal/timeutil"
)

var (
	ErrServiceNotFound        = registry.ErrServiceNotFound
	ErrInvalidYearMonth       = timeutil.ErrInvalidYearMonth
	ErrEmailRequired          = errors.New("email is required")
	ErrUserNotFound           = errors.New("user not found")
	ErrUserTableNotConfigured = errors.New("user table not configured for service")
)

// AllMonths is the yearMonth value selecting an unfiltered, all-time scan.
const AllMonths = "all"

// Service exposes the aggregation operations shared by every dashboard
// surface. All derived data is recomputed per call; nothing is cached.
type Service struct {
	registry   *registry.Registry
	store      store.UsageStore
	identity   identity.Provider
	userTables map[string]string
	logger     *slog.Logger
	metrics    *observability.Provider

	now func() time.Time
}

// NewService wires the engine to its collaborators. userTables maps a
// service id to its user directory table; metrics may be nil.
func NewService(reg *registry.Registry, st store.UsageStore, idp identity.Provider, userTables map[string]string, logger *slog.Logger, metrics *observability.Provider) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry:   reg,
		store:      st,
		identity:   idp,
		userTables: userTables,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Registry returns the service registry backing this engine.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// CurrentYearMonth returns the calendar month used when a request omits one.
func (s *Service) CurrentYearMonth() string {
	return timeutil.CurrentYearMonth(s.now())
}

func (s *Service) descriptorOrFirst(serviceID string) (*registry.Service, error) {
	if serviceID == "" {
		return s.registry.First(), nil
	}
	return s.registry.Get(serviceID)
}

// fetchMonth returns one month of records for a single service or, when
// serviceID is empty, the union across all registered services. The second
// return value is the descriptor whose key scheme applies to extraction:
// the service's own, or the first registered one for cross-service unions.
func (s *Service) fetchMonth(ctx context.Context, serviceID, yearMonth string) ([]store.Record, *registry.Service, error) {
	desc, err := s.descriptorOrFirst(serviceID)
	if err != nil {
		return nil, nil, err
	}
	if serviceID != "" {
		fetch := s.fetchService(ctx, desc, yearMonth)
		return fetch.Items, desc, nil
	}
	var union []store.Record
	for _, fetch := range s.AllServicesUsage(ctx, yearMonth) {
		union = append(union, fetch.Items...)
	}
	return union, desc, nil
}
