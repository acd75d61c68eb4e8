package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is how long a local credential stays valid before the user
// must sign in again.
const DefaultTTL = 30 * 24 * time.Hour

// claims is the credential payload. The user identity rides alongside the
// registered claims so CurrentUser needs no lookup beyond the token itself.
type claims struct {
	jwt.RegisteredClaims
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Local is a Provider backed by a signed token in a file. The file is
// guarded by an advisory lock so concurrent CLI invocations don't tear
// each other's writes.
//
// Local is safe for concurrent use by multiple goroutines.
type Local struct {
	path   string
	secret []byte
	ttl    time.Duration
	lock   *flock.Flock
	logger *slog.Logger
}

// NewLocal creates a file-backed provider. The file and its parent
// directory are created on first sign-in.
func NewLocal(path string, secret []byte, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{
		path:   path,
		secret: secret,
		ttl:    DefaultTTL,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}
}

// CurrentUser reads and verifies the stored credential.
func (l *Local) CurrentUser(ctx context.Context) (User, error) {
	locked, err := l.lock.TryRLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return User{}, fmt.Errorf("acquiring credential lock: %w", err)
	}
	if !locked {
		return User{}, fmt.Errorf("credential file is locked")
	}
	defer l.lock.Unlock()

	raw, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return User{}, ErrNotSignedIn
		}
		return User{}, fmt.Errorf("reading credential file: %w", err)
	}

	return l.parse(string(raw))
}

func (l *Local) parse(tokenString string) (User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return l.secret, nil
	})
	if err != nil {
		if jwtErrorIsExpired(err) {
			return User{}, ErrCredentialExpired
		}
		return User{}, ErrNotSignedIn
	}
	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return User{}, ErrNotSignedIn
	}
	return User{ID: c.Subject, Email: c.Email, DisplayName: c.DisplayName}, nil
}

// SignIn mints a fresh credential. If a credential for the same email
// already exists (valid or expired), its user ID is kept so the owner's
// history survives re-authentication.
func (l *Local) SignIn(ctx context.Context, email, displayName string) (User, error) {
	if email == "" {
		return User{}, fmt.Errorf("email must not be empty")
	}

	locked, err := l.lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return User{}, fmt.Errorf("acquiring credential lock: %w", err)
	}
	if !locked {
		return User{}, fmt.Errorf("credential file is locked")
	}
	defer l.lock.Unlock()

	userID := uuid.NewString()
	if raw, err := os.ReadFile(l.path); err == nil {
		if prev := l.previousIdentity(string(raw)); prev != nil && prev.Email == email {
			userID = prev.ID
		}
	}

	user := User{ID: userID, Email: email, DisplayName: displayName}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(l.ttl)),
		},
		Email:       user.Email,
		DisplayName: user.DisplayName,
	})
	signed, err := token.SignedString(l.secret)
	if err != nil {
		return User{}, fmt.Errorf("signing credential: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0750); err != nil {
		return User{}, fmt.Errorf("creating credential directory: %w", err)
	}
	if err := os.WriteFile(l.path, []byte(signed), 0600); err != nil {
		return User{}, fmt.Errorf("writing credential file: %w", err)
	}

	l.logger.Debug("signed in", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// previousIdentity extracts the identity from an existing credential
// without requiring it to still be valid. Expiry is deliberately ignored
// here; a bad signature still discards the identity.
func (l *Local) previousIdentity(tokenString string) *User {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return l.secret, nil
	})
	if err != nil {
		return nil
	}
	c, ok := token.Claims.(*claims)
	if !ok {
		return nil
	}
	return &User{ID: c.Subject, Email: c.Email, DisplayName: c.DisplayName}
}

// SignOut removes the credential file.
func (l *Local) SignOut(ctx context.Context) error {
	locked, err := l.lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquiring credential lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("credential file is locked")
	}
	defer l.lock.Unlock()

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credential file: %w", err)
	}
	return nil
}

func jwtErrorIsExpired(err error) bool {
	return err != nil && errors.Is(err, jwt.ErrTokenExpired)
}
