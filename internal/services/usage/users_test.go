package usage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroomlabs/usage-insight/internal/identity"
	"github.com/newsroomlabs/usage-insight/internal/store"
)

func TestAllUsersWithUsageEnrichesAndSorts(t *testing.T) {
	fs := newFakeStore()
	fs.add("alpha-usage",
		alphaRecord("u1", "T5", "2025-11", 100, 60, 40, 2),
		alphaRecord("u1", "C7", "2025-11", 50, 30, 20, 1),
		alphaRecord("u2", "T5", "2025-11", 400, 240, 160, 3),
	)
	idp := newFakeIdentity()
	idp.users["u1"] = identity.Identity{Email: "one@example.com", Username: "one", Enabled: true}
	idp.users["u2"] = identity.Identity{Email: "two@example.com", Username: "two", Enabled: false}
	svc := testService(t, fs, idp)

	users, err := svc.AllUsersWithUsage(context.Background(), "alpha", "2025-11")
	require.NoError(t, err)
	require.Len(t, users, 2)

	// Descending by total tokens.
	assert.Equal(t, "u2", users[0].User.UserID)
	assert.Equal(t, "two@example.com", users[0].User.Email)
	assert.Equal(t, "inactive", users[0].User.Status)
	assert.Equal(t, int64(400), users[0].Usage.TotalTokens)
	assert.Equal(t, 1, users[0].Usage.Records)

	assert.Equal(t, "u1", users[1].User.UserID)
	assert.Equal(t, "active", users[1].User.Status)
	assert.Equal(t, int64(150), users[1].Usage.TotalTokens)
	assert.Equal(t, 2, users[1].Usage.Records)
	// Details follow the service's engine vocabulary order, not the
	// record order: alpha declares T5 before C7.
	require.Len(t, users[1].Usage.Details, 2)
	assert.Equal(t, "T5", users[1].Usage.Details[0].EngineType)
	assert.Equal(t, "C7", users[1].Usage.Details[1].EngineType)
}

func TestEnrichUserUndeclaredEngineSortsLast(t *testing.T) {
	fs := newFakeStore()
	rogue := alphaRecord("u1", "zz9", "2025-11", 5, 3, 2, 1)
	fs.add("alpha-usage",
		alphaRecord("u1", "C7", "2025-11", 50, 30, 20, 1),
		rogue,
	)
	svc := testService(t, fs, nil)

	users, err := svc.AllUsersWithUsage(context.Background(), "alpha", "2025-11")
	require.NoError(t, err)
	require.Len(t, users, 1)

	require.Len(t, users[0].Usage.Details, 2)
	assert.Equal(t, "C7", users[0].Usage.Details[0].EngineType)
	assert.Equal(t, "zz9", users[0].Usage.Details[1].EngineType)
}

func TestAllUsersWithUsageIdentityFailureKeepsUser(t *testing.T) {
	fs := newFakeStore()
	fs.add("alpha-usage",
		alphaRecord("u1", "T5", "2025-11", 100, 60, 40, 1),
		alphaRecord("u2", "T5", "2025-11", 50, 30, 20, 1),
	)
	idp := newFakeIdentity()
	idp.users["u1"] = identity.Identity{Email: "one@example.com", Username: "one", Enabled: true}
	idp.fail["u2"] = errors.New("directory unavailable")
	svc := testService(t, fs, idp)

	users, err := svc.AllUsersWithUsage(context.Background(), "alpha", "2025-11")
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "u1", users[0].User.UserID)
	// The failed lookup falls back to the raw id as a placeholder.
	assert.Equal(t, "u2", users[1].User.UserID)
	assert.Equal(t, "u2", users[1].User.Email)
	assert.Equal(t, "unknown", users[1].User.Status)
	assert.Equal(t, int64(50), users[1].Usage.TotalTokens)
}

func TestAllUsersWithUsageAllMonths(t *testing.T) {
	fs := newFakeStore()
	fs.add("alpha-usage",
		alphaRecord("u1", "T5", "2025-10", 100, 60, 40, 1),
		alphaRecord("u1", "T5", "2025-11", 50, 30, 20, 1),
	)
	svc := testService(t, fs, nil)

	users, err := svc.AllUsersWithUsage(context.Background(), "alpha", AllMonths)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(150), users[0].Usage.TotalTokens)
	assert.Equal(t, 2, users[0].Usage.Records)
}

func TestAllUsersWithUsageUnknownService(t *testing.T) {
	svc := testService(t, newFakeStore(), nil)

	_, err := svc.AllUsersWithUsage(context.Background(), "nope", "2025-11")
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestAllUsersWithUsageStoreFailurePropagates(t *testing.T) {
	fs := newFakeStore()
	fs.fail["alpha-usage"] = errors.New("table offline")
	svc := testService(t, fs, nil)

	_, err := svc.AllUsersWithUsage(context.Background(), "alpha", "2025-11")
	assert.Error(t, err)
}

func TestUserUsageByEmail(t *testing.T) {
	fs := newFakeStore()
	fs.add("alpha-users", store.Record{
		"user_id": "u1", "email": "one@example.com", "username": "one",
		"role": "editor", "status": "active",
	})
	fs.add("alpha-usage",
		alphaRecord("u1", "T5", "2025-11", 100, 60, 40, 2),
		alphaRecord("u2", "T5", "2025-11", 999, 600, 399, 9),
	)
	svc := testService(t, fs, nil)

	lookup, err := svc.UserUsageByEmail(context.Background(), "one@example.com", "alpha", "2025-11")
	require.NoError(t, err)

	assert.Equal(t, "u1", lookup.User.UserID)
	assert.Equal(t, "editor", lookup.User.Role)
	assert.Equal(t, "alpha", lookup.Usage.ServiceID)
	assert.Equal(t, "2025-11", lookup.Usage.YearMonth)
	// Only u1's records are in scope.
	assert.Equal(t, int64(100), lookup.Usage.TotalTokens)
	require.Len(t, lookup.Usage.Details, 1)
	assert.Equal(t, int64(100), lookup.Usage.Details[0].TotalTokens)
}

func TestUserUsageByEmailValidation(t *testing.T) {
	fs := newFakeStore()
	svc := testService(t, fs, nil)

	_, err := svc.UserUsageByEmail(context.Background(), "", "alpha", "2025-11")
	assert.ErrorIs(t, err, ErrEmailRequired)
	// Validation happens before any store access.
	assert.Zero(t, fs.fetches)
}

func TestUserUsageByEmailUnmappedService(t *testing.T) {
	svc := testService(t, newFakeStore(), nil)

	_, err := svc.UserUsageByEmail(context.Background(), "one@example.com", "beta", "2025-11")
	assert.ErrorIs(t, err, ErrUserTableNotConfigured)
}

func TestUserUsageByEmailNoMatch(t *testing.T) {
	svc := testService(t, newFakeStore(), nil)

	_, err := svc.UserUsageByEmail(context.Background(), "ghost@example.com", "alpha", "2025-11")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
