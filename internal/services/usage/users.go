package usage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/newsroomlabs/usage-insight/internal/identity"
	"github.com/newsroomlabs/usage-insight/internal/registry"
	"github.com/newsroomlabs/usage-insight/internal/store"
)

// AllUsersWithUsage fetches the service's usage records (one month, or the
// whole table when yearMonth is empty or "all"), groups them by the raw
// userId attribute, enriches each distinct user with directory identity in
// parallel, and returns the result sorted by total tokens descending.
//
// An identity lookup failure never drops the user: the raw id stands in as
// placeholder email/username with status "unknown".
func (s *Service) AllUsersWithUsage(ctx context.Context, serviceID, yearMonth string) ([]EnrichedUser, error) {
	svc, err := s.registry.Get(serviceID)
	if err != nil {
		return nil, err
	}

	filter := store.Filter{}
	if yearMonth != "" && yearMonth != AllMonths {
		filter = store.Filter{SortKeyField: svc.Keys.SortKeyField, Contains: yearMonth}
	}
	records, err := s.store.FetchUsageRecords(ctx, svc.UsageTable, filter)
	s.metrics.RecordStoreScan(svc.ID, err)
	if err != nil {
		return nil, fmt.Errorf("fetch usage for %s: %w", svc.ID, err)
	}

	// This path groups on the literal userId attribute rather than the
	// key-encoded extraction; the per-user rows carry it directly.
	byUser := make(map[string][]store.Record)
	for _, rec := range records {
		userID, ok := rec.String("userId")
		if !ok {
			continue
		}
		byUser[userID] = append(byUser[userID], rec)
	}

	userIDs := make([]string, 0, len(byUser))
	for userID := range byUser {
		userIDs = append(userIDs, userID)
	}

	enriched := make([]EnrichedUser, len(userIDs))
	var wg sync.WaitGroup
	for i, userID := range userIDs {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			enriched[i] = s.enrichUser(ctx, svc, userID, byUser[userID])
		}(i, userID)
	}
	wg.Wait()

	sort.SliceStable(enriched, func(i, j int) bool {
		if enriched[i].Usage.TotalTokens == enriched[j].Usage.TotalTokens {
			return enriched[i].User.UserID < enriched[j].User.UserID
		}
		return enriched[i].Usage.TotalTokens > enriched[j].Usage.TotalTokens
	})
	return enriched, nil
}

func (s *Service) enrichUser(ctx context.Context, desc *registry.Service, userID string, records []store.Record) EnrichedUser {
	ident, err := s.identity.GetUserIdentity(ctx, userID)
	status := "unknown"
	if err != nil {
		s.logger.Warn("identity lookup failed", "service", desc.ID, "user", userID, "err", err)
		s.metrics.RecordFanoutFailure("identity")
		ident = identity.Placeholder(userID)
	} else if ident.Enabled {
		status = "active"
	} else {
		status = "inactive"
	}

	aggregated := Aggregate(records, desc)

	details := make([]EngineDetail, 0, len(aggregated.ByEngine))
	for engine, totals := range aggregated.ByEngine {
		details = append(details, EngineDetail{
			EngineType:   engine,
			TotalTokens:  totals.TotalTokens,
			InputTokens:  totals.InputTokens,
			OutputTokens: totals.OutputTokens,
			MessageCount: totals.MessageCount,
		})
	}
	// Vocabulary order first, then alphabetically for engines the
	// service does not declare.
	sort.Slice(details, func(i, j int) bool {
		li, iKnown := desc.EngineIndex(details[i].EngineType)
		lj, jKnown := desc.EngineIndex(details[j].EngineType)
		switch {
		case iKnown && jKnown:
			return li < lj
		case iKnown != jKnown:
			return iKnown
		default:
			return details[i].EngineType < details[j].EngineType
		}
	})

	return EnrichedUser{
		User: UserProfile{
			UserID:   userID,
			Email:    ident.Email,
			Username: ident.Username,
			Role:     "user",
			Status:   status,
		},
		Usage: UserUsage{
			TotalTokens:  aggregated.TotalTokens,
			InputTokens:  aggregated.InputTokens,
			OutputTokens: aggregated.OutputTokens,
			MessageCount: aggregated.MessageCount,
			Records:      len(records),
			Details:      details,
		},
	}
}

// UserUsageByEmail resolves an email against the service's user directory
// table and aggregates that user's records for the month. A missing email
// fails validation before any I/O; an unmapped directory table and an
// unmatched email are distinct not-found conditions. Store failures on this
// single-entity path propagate to the caller.
func (s *Service) UserUsageByEmail(ctx context.Context, email, serviceID, yearMonth string) (UserLookup, error) {
	if email == "" {
		return UserLookup{}, ErrEmailRequired
	}
	svc, err := s.registry.Get(serviceID)
	if err != nil {
		return UserLookup{}, err
	}
	table, ok := s.userTables[serviceID]
	if !ok || table == "" {
		return UserLookup{}, fmt.Errorf("%w: %s", ErrUserTableNotConfigured, serviceID)
	}

	userRow, err := s.store.SearchUserByEmail(ctx, table, email)
	if err != nil {
		return UserLookup{}, fmt.Errorf("search user by email: %w", err)
	}
	if userRow == nil {
		return UserLookup{}, ErrUserNotFound
	}

	userID, _ := userRow.String("user_id")
	records, err := s.store.FetchUsageRecords(ctx, svc.UsageTable, store.Filter{
		SortKeyField: svc.Keys.SortKeyField,
		Contains:     yearMonth,
		UserID:       userID,
	})
	s.metrics.RecordStoreScan(svc.ID, err)
	if err != nil {
		return UserLookup{}, fmt.Errorf("fetch usage for user %s: %w", userID, err)
	}

	aggregated := Aggregate(records, svc)
	details := make([]UserRecordDetail, 0, len(records))
	for _, rec := range records {
		engine, _ := rec.String("engineType")
		lastUsed, _ := rec.String("lastUsedAt")
		recYearMonth, _ := rec.String("yearMonth")
		details = append(details, UserRecordDetail{
			EngineType:   engine,
			TotalTokens:  rec.Int64("totalTokens"),
			InputTokens:  rec.Int64("inputTokens"),
			OutputTokens: rec.Int64("outputTokens"),
			MessageCount: rec.Int64("messageCount"),
			LastUsedAt:   lastUsed,
			YearMonth:    recYearMonth,
		})
	}

	profile := UserProfile{UserID: userID}
	profile.Email, _ = userRow.String("email")
	profile.Username, _ = userRow.String("username")
	profile.Role, _ = userRow.String("role")
	profile.Status, _ = userRow.String("status")

	return UserLookup{
		User: profile,
		Usage: UserLookupUsage{
			ServiceID:         svc.ID,
			ServiceName:       svc.DisplayName,
			YearMonth:         yearMonth,
			AggregationResult: aggregated,
			Records:           len(records),
			Details:           details,
		},
	}, nil
}
