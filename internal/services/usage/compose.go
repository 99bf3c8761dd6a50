package usage

import (
	"context"
	"sort"
	"sync"

	"github.com/newsroomlabs/usage-insight/internal/registry"
	"github.com/newsroomlabs/usage-insight/internal/store"
	"github.com/newsroomlabs/usage-insight/internal/timeutil"
)

const defaultTopLimit = 5

// fetchService reads one month of one service's records. Store failures are
// captured in the returned fetch, never propagated: a broken table must not
// take the rest of a fan-out down with it.
func (s *Service) fetchService(ctx context.Context, svc *registry.Service, yearMonth string) ServiceFetch {
	fetch := ServiceFetch{
		ServiceID:   svc.ID,
		ServiceName: svc.DisplayName,
		Items:       []store.Record{},
	}
	filter := store.Filter{}
	if yearMonth != "" {
		filter = store.Filter{SortKeyField: svc.Keys.SortKeyField, Contains: yearMonth}
	}
	records, err := s.store.FetchUsageRecords(ctx, svc.UsageTable, filter)
	s.metrics.RecordStoreScan(svc.ID, err)
	if err != nil {
		s.logger.Warn("usage fetch failed", "service", svc.ID, "table", svc.UsageTable, "err", err)
		s.metrics.RecordFanoutFailure("service")
		fetch.Error = err.Error()
		return fetch
	}
	fetch.Items = records
	fetch.Count = len(records)
	return fetch
}

// AllServicesUsage fans out one fetch per registered service concurrently,
// in registry order, and joins all results. Each fetch is independent and
// individually fault-tolerant.
func (s *Service) AllServicesUsage(ctx context.Context, yearMonth string) []ServiceFetch {
	services := s.registry.Services()
	results := make([]ServiceFetch, len(services))

	var wg sync.WaitGroup
	for i, svc := range services {
		wg.Add(1)
		go func(i int, svc *registry.Service) {
			defer wg.Done()
			results[i] = s.fetchService(ctx, svc, yearMonth)
		}(i, svc)
	}
	wg.Wait()
	return results
}

// OverviewByService aggregates every service for the month, keyed by
// service id, with real prior-month comparison totals.
func (s *Service) OverviewByService(ctx context.Context, yearMonth string) (map[string]ServiceUsage, error) {
	previous, err := timeutil.PreviousYearMonth(yearMonth)
	if err != nil {
		return nil, err
	}
	current := s.AllServicesUsage(ctx, yearMonth)
	prior := s.AllServicesUsage(ctx, previous)

	priorByID := make(map[string]ServiceFetch, len(prior))
	for _, fetch := range prior {
		priorByID[fetch.ServiceID] = fetch
	}

	overview := make(map[string]ServiceUsage, len(current))
	for _, fetch := range current {
		svc, err := s.registry.Get(fetch.ServiceID)
		if err != nil {
			continue
		}
		aggregated := Aggregate(fetch.Items, svc)
		overview[fetch.ServiceID] = ServiceUsage{
			ServiceID:    fetch.ServiceID,
			ServiceName:  fetch.ServiceName,
			CurrentMonth: aggregated,
			LastMonth:    Aggregate(priorByID[fetch.ServiceID].Items, svc),
			ByEngine:     aggregated.ByEngine,
		}
	}
	return overview, nil
}

// ServiceUsage aggregates a single service for the month. Unknown ids are a
// not-found condition, not an empty result.
func (s *Service) ServiceUsage(ctx context.Context, serviceID, yearMonth string) (ServiceUsage, error) {
	svc, err := s.registry.Get(serviceID)
	if err != nil {
		return ServiceUsage{}, err
	}
	previous, err := timeutil.PreviousYearMonth(yearMonth)
	if err != nil {
		return ServiceUsage{}, err
	}
	fetch := s.fetchService(ctx, svc, yearMonth)
	prior := s.fetchService(ctx, svc, previous)
	aggregated := Aggregate(fetch.Items, svc)
	return ServiceUsage{
		ServiceID:    svc.ID,
		ServiceName:  svc.DisplayName,
		CurrentMonth: aggregated,
		LastMonth:    Aggregate(prior.Items, svc),
		ByEngine:     aggregated.ByEngine,
	}, nil
}

// Summary sums every service's aggregates into the global rollup, current
// and prior month.
func (s *Service) Summary(ctx context.Context, yearMonth string) (Summary, error) {
	previous, err := timeutil.PreviousYearMonth(yearMonth)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		CurrentMonth: s.summarizeMonth(ctx, yearMonth),
		LastMonth:    s.summarizeMonth(ctx, previous),
	}, nil
}

func (s *Service) summarizeMonth(ctx context.Context, yearMonth string) SummaryTotals {
	var totals SummaryTotals
	for _, fetch := range s.AllServicesUsage(ctx, yearMonth) {
		svc, err := s.registry.Get(fetch.ServiceID)
		if err != nil {
			continue
		}
		aggregated := Aggregate(fetch.Items, svc)
		totals.TotalTokens += aggregated.TotalTokens
		totals.TotalInputTokens += aggregated.InputTokens
		totals.TotalOutputTokens += aggregated.OutputTokens
		totals.TotalMessages += aggregated.MessageCount
		totals.TotalActiveUsers += aggregated.ActiveUsers
		if fetch.Count > 0 {
			totals.TotalServices++
		}
	}
	return totals
}

// TopServices ranks services by total tokens for the month, descending,
// truncated to limit.
func (s *Service) TopServices(ctx context.Context, yearMonth string, limit int) ([]RankedService, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	ranked := make([]RankedService, 0, s.registry.Len())
	for _, fetch := range s.AllServicesUsage(ctx, yearMonth) {
		svc, err := s.registry.Get(fetch.ServiceID)
		if err != nil {
			continue
		}
		ranked = append(ranked, RankedService{
			ServiceID:    fetch.ServiceID,
			ServiceName:  fetch.ServiceName,
			CurrentMonth: Aggregate(fetch.Items, svc),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CurrentMonth.TotalTokens > ranked[j].CurrentMonth.TotalTokens
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// TopEngines merges every service's per-engine breakdown by engine name and
// ranks the result by total tokens, descending, truncated to limit.
func (s *Service) TopEngines(ctx context.Context, yearMonth string, limit int) ([]RankedEngine, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	merged := make(map[string]EngineTotals)
	for _, fetch := range s.AllServicesUsage(ctx, yearMonth) {
		svc, err := s.registry.Get(fetch.ServiceID)
		if err != nil {
			continue
		}
		for engine, totals := range Aggregate(fetch.Items, svc).ByEngine {
			sum := merged[engine]
			sum.add(totals)
			merged[engine] = sum
		}
	}

	ranked := make([]RankedEngine, 0, len(merged))
	for engine, totals := range merged {
		ranked = append(ranked, RankedEngine{EngineType: engine, EngineTotals: totals})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TotalTokens == ranked[j].TotalTokens {
			return ranked[i].EngineType < ranked[j].EngineType
		}
		return ranked[i].TotalTokens > ranked[j].TotalTokens
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
