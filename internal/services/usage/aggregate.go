package usage

import (
	"github.com/newsroomlabs/usage-insight/internal/registry"
	"github.com/newsroomlabs/usage-insight/internal/store"
)

// Aggregate folds a record set into totals, a per-engine breakdown, and a
// distinct active-user count. Pure and deterministic: no I/O, order of the
// input does not affect the result, and all counters are 64-bit integers.
//
// Records whose engine cannot be extracted still contribute to the overall
// totals; they are only excluded from the per-engine breakdown. Likewise a
// record without a resolvable user id counts toward totals but not toward
// activeUsers.
func Aggregate(records []store.Record, svc *registry.Service) AggregationResult {
	result := AggregationResult{
		ByEngine: make(map[string]EngineTotals),
	}
	uniqueUsers := make(map[string]struct{})

	for _, rec := range records {
		counters := EngineTotals{
			TotalTokens:  rec.Int64("totalTokens"),
			InputTokens:  rec.Int64("inputTokens"),
			OutputTokens: rec.Int64("outputTokens"),
			MessageCount: rec.FirstPositiveInt64(1, "messageCount", "messages"),
		}

		result.TotalTokens += counters.TotalTokens
		result.InputTokens += counters.InputTokens
		result.OutputTokens += counters.OutputTokens
		result.MessageCount += counters.MessageCount

		if userID, ok := ExtractUserID(rec, svc); ok {
			uniqueUsers[userID] = struct{}{}
		}

		if engine, ok := ExtractEngineType(rec, svc); ok {
			totals := result.ByEngine[engine]
			totals.add(counters)
			result.ByEngine[engine] = totals
		}
	}

	result.ActiveUsers = len(uniqueUsers)
	return result
}
