package usage

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/newsroomlabs/usage-insight/internal/config"
	"github.com/newsroomlabs/usage-insight/internal/identity"
	"github.com/newsroomlabs/usage-insight/internal/registry"
	"github.com/newsroomlabs/usage-insight/internal/store"
)

// fakeStore serves records from memory with the same filter semantics the
// DynamoDB implementation applies server-side.
type fakeStore struct {
	mu      sync.Mutex
	records map[string][]store.Record
	fail    map[string]error
	fetches int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[string][]store.Record),
		fail:    make(map[string]error),
	}
}

func (f *fakeStore) add(table string, recs ...store.Record) {
	f.records[table] = append(f.records[table], recs...)
}

func (f *fakeStore) FetchUsageRecords(_ context.Context, table string, filter store.Filter) ([]store.Record, error) {
	f.mu.Lock()
	f.fetches++
	f.mu.Unlock()
	if err := f.fail[table]; err != nil {
		return nil, err
	}
	var out []store.Record
	for _, rec := range f.records[table] {
		if filter.UserID != "" {
			if v, _ := rec.String("userId"); v != filter.UserID {
				continue
			}
		}
		if filter.Contains != "" {
			sk, _ := rec.String(filter.SortKeyField)
			if !strings.Contains(sk, filter.Contains) {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeStore) SearchUserByEmail(_ context.Context, table string, email string) (store.Record, error) {
	if err := f.fail[table]; err != nil {
		return nil, err
	}
	for _, rec := range f.records[table] {
		if v, _ := rec.String("email"); v == email {
			return rec, nil
		}
	}
	return nil, nil
}

type fakeIdentity struct {
	users map[string]identity.Identity
	fail  map[string]error
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		users: make(map[string]identity.Identity),
		fail:  make(map[string]error),
	}
}

func (f *fakeIdentity) GetUserIdentity(_ context.Context, userID string) (identity.Identity, error) {
	if err := f.fail[userID]; err != nil {
		return identity.Identity{}, err
	}
	if ident, ok := f.users[userID]; ok {
		return ident, nil
	}
	return identity.Placeholder(userID), nil
}

func testEntries() []config.ServiceEntry {
	return []config.ServiceEntry{
		{
			ID:          "alpha",
			Name:        "Alpha Service",
			DisplayName: "Alpha",
			UsageTable:  "alpha-usage",
			Engines:     []string{"T5", "C7", "pro"},
			Active:      true,
			Keys: config.KeyEncodingRaw{
				PartitionKeyField:   "PK",
				SortKeyField:        "SK",
				PartitionKeyPattern: "user#userId",
				SortKeyPattern:      "engine#engineType#yearMonth",
			},
		},
		{
			ID:          "beta",
			Name:        "Beta Service",
			DisplayName: "Beta",
			UsageTable:  "beta-usage",
			Engines:     []string{"basic"},
			Active:      true,
			Keys: config.KeyEncodingRaw{
				PartitionKeyField: "PK",
				SortKeyField:      "SK",
			},
		},
		{
			ID:          "gamma",
			Name:        "Gamma Service",
			DisplayName: "Gamma",
			UsageTable:  "gamma-usage",
			Engines:     []string{"g1"},
			Keys: config.KeyEncodingRaw{
				PartitionKeyField: "PK",
				SortKeyField:      "SK",
			},
		},
	}
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.FromConfig(testEntries())
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func testService(t *testing.T, fs *fakeStore, idp identity.Provider) *Service {
	t.Helper()
	if idp == nil {
		idp = newFakeIdentity()
	}
	svc := NewService(testRegistry(t), fs, idp, map[string]string{"alpha": "alpha-users"}, slog.New(slog.DiscardHandler), nil)
	svc.now = func() time.Time {
		return time.Date(2025, time.November, 10, 9, 0, 0, 0, time.UTC)
	}
	return svc
}

// alphaRecord builds a composite-key row the way the alpha usage table
// stores it.
func alphaRecord(userID, engine, yearMonth string, total, input, output, messages int64) store.Record {
	rec := store.Record{
		"PK":           "user#" + userID,
		"SK":           "engine#" + engine + "#" + yearMonth,
		"totalTokens":  float64(total),
		"inputTokens":  float64(input),
		"outputTokens": float64(output),
		"userId":       userID,
	}
	if messages > 0 {
		rec["messageCount"] = float64(messages)
	}
	return rec
}

// betaRecord builds a flat-key row with a literal engine field.
func betaRecord(userID, yearMonth string, total int64) store.Record {
	return store.Record{
		"PK":          userID,
		"SK":          yearMonth,
		"engineType":  "basic",
		"totalTokens": float64(total),
		"createdAt":   yearMonth + "-05T08:30:00Z",
		"userId":      userID,
	}
}
