// Package auth resolves the current user identity that owner-scopes every
// store operation. The default provider keeps a signed credential file on
// disk so identity survives restarts without any network dependency.
package auth

import (
	"context"
	"errors"
)

// Sentinel errors for auth operations.
var (
	// ErrNotSignedIn indicates no valid credential is present.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrCredentialExpired indicates the stored credential is past its
	// expiry and a new sign-in is required.
	ErrCredentialExpired = errors.New("credential expired")
)

// User is the resolved identity. ID is the owner key for all stored
// documents.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Provider supplies the current user identity.
//
// Following Go best practices: interfaces are defined by the consumer, not
// the provider. Callers that only read identity should declare their own
// narrower interface; this one is the full lifecycle used by the CLI.
type Provider interface {
	// CurrentUser returns the signed-in user, or ErrNotSignedIn.
	CurrentUser(ctx context.Context) (User, error)

	// SignIn establishes an identity and persists it.
	SignIn(ctx context.Context, email, displayName string) (User, error)

	// SignOut discards the persisted identity. Signing out when not
	// signed in is not an error.
	SignOut(ctx context.Context) error
}
