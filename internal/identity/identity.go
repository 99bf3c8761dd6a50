// Package identity resolves user ids to directory profiles. Lookups may
// fail per-call; callers substitute placeholder identities rather than
// aborting their batch.
package identity

import "context"

// Identity is the directory profile of one user.
type Identity struct {
	Email    string
	Username string
	Status   string
	Enabled  bool
}

// Provider looks up a single user's identity.
type Provider interface {
	GetUserIdentity(ctx context.Context, userID string) (Identity, error)
}

// NoDirectory is the Provider for deployments without a user pool; every
// lookup yields the placeholder identity.
type NoDirectory struct{}

func (NoDirectory) GetUserIdentity(_ context.Context, userID string) (Identity, error) {
	return Placeholder(userID), nil
}

// Placeholder returns the substitute identity used when a lookup fails:
// the raw id stands in for email and username and the status is unknown.
func Placeholder(userID string) Identity {
	return Identity{
		Email:    userID,
		Username: userID,
		Status:   "unknown",
		Enabled:  true,
	}
}
