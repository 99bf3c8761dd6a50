package usage

import (
	"regexp"
	"strings"

	"github.com/newsroomlabs/usage-insight/internal/registry"
	"github.com/newsroomlabs/usage-insight/internal/store"
)

// Each field is extracted by a small ordered list of strategies evaluated
// in priority order; the first one that yields a value wins. This keeps the
// per-service schema variability in one place so the aggregator can stay
// schema-agnostic.
type extractStrategy func(store.Record, *registry.Service) (string, bool)

var (
	dateInKeyPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

	userIDStrategies = []extractStrategy{
		userIDFromPartitionKey,
	}

	engineStrategies = []extractStrategy{
		engineFromSortKey,
		engineFromLiteralField,
	}

	dateStrategies = []extractStrategy{
		dateFromLiteralFields,
		dateFromSortKey,
	}
)

func runStrategies(rec store.Record, svc *registry.Service, strategies []extractStrategy) (string, bool) {
	for _, strat := range strategies {
		if v, ok := strat(rec, svc); ok {
			return v, true
		}
	}
	return "", false
}

// ExtractUserID pulls the user id out of the record's partition key. A
// composite "prefix#value" key yields the second segment; a flat key is
// returned unchanged. ok is false when the record carries no usable key.
func ExtractUserID(rec store.Record, svc *registry.Service) (string, bool) {
	return runStrategies(rec, svc, userIDStrategies)
}

// ExtractEngineType pulls the engine name out of the record's sort key
// ("engine#<name>#..." composites) or a literal engineType/engine field.
func ExtractEngineType(rec store.Record, svc *registry.Service) (string, bool) {
	return runStrategies(rec, svc, engineStrategies)
}

// ExtractDate pulls the usage date as "YYYY-MM-DD", preferring literal date
// fields and falling back to a date substring inside the sort key.
func ExtractDate(rec store.Record, svc *registry.Service) (string, bool) {
	return runStrategies(rec, svc, dateStrategies)
}

func partitionKeyValue(rec store.Record, svc *registry.Service) (string, bool) {
	if v, ok := rec.String(svc.Keys.PartitionKeyField); ok {
		return v, true
	}
	return rec.String("PK")
}

func sortKeyValue(rec store.Record, svc *registry.Service) (string, bool) {
	if v, ok := rec.String(svc.Keys.SortKeyField); ok {
		return v, true
	}
	return rec.String("SK")
}

func userIDFromPartitionKey(rec store.Record, svc *registry.Service) (string, bool) {
	v, ok := partitionKeyValue(rec, svc)
	if !ok {
		return "", false
	}
	// "user#<id>" composites are two segments; index 1 is the id. Keys
	// without a delimiter are the id itself. An empty segment is not an
	// id: "user#" must not count as a distinct user.
	if strings.Contains(v, "#") {
		parts := strings.Split(v, "#")
		if len(parts) > 1 && parts[1] != "" {
			return parts[1], true
		}
		return "", false
	}
	return v, true
}

func engineFromSortKey(rec store.Record, svc *registry.Service) (string, bool) {
	v, ok := sortKeyValue(rec, svc)
	if !ok {
		return "", false
	}
	if strings.Contains(v, "#") {
		parts := strings.Split(v, "#")
		if parts[0] == "engine" && len(parts) >= 2 && parts[1] != "" {
			return parts[1], true
		}
	}
	return "", false
}

func engineFromLiteralField(rec store.Record, _ *registry.Service) (string, bool) {
	if v, ok := rec.String("engineType"); ok {
		return v, true
	}
	return rec.String("engine")
}

func dateFromLiteralFields(rec store.Record, _ *registry.Service) (string, bool) {
	for _, field := range []string{"createdAt", "timestamp", "date", "usageDate"} {
		v, ok := rec.String(field)
		if !ok {
			continue
		}
		// Date-only portion of an ISO-8601 timestamp; a value without a
		// "T" separator passes through unchanged. A timestamp with an
		// empty date part yields nothing rather than a "" bucket.
		if idx := strings.Index(v, "T"); idx >= 0 {
			if idx == 0 {
				continue
			}
			return v[:idx], true
		}
		return v, true
	}
	return "", false
}

func dateFromSortKey(rec store.Record, svc *registry.Service) (string, bool) {
	v, ok := sortKeyValue(rec, svc)
	if !ok {
		return "", false
	}
	if m := dateInKeyPattern.FindString(v); m != "" {
		return m, true
	}
	return "", false
}
