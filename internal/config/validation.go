package config

import (
	"fmt"
	"os"
)

// Validate checks configuration sanity. Errors wrap the package sentinel
// errors so callers can branch with errors.Is.
func (c *Config) Validate() error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable not set", ErrMissingAPIKey)
	}

	if c.FlashModel == "" {
		return fmt.Errorf("%w: flash_model is empty", ErrInvalidModelName)
	}
	if c.FlashLiteModel == "" {
		return fmt.Errorf("%w: flash_lite_model is empty", ErrInvalidModelName)
	}

	switch c.Difficulty {
	case "Easy", "Medium", "Hard":
	default:
		return fmt.Errorf("%w: %q (want Easy, Medium or Hard)", ErrInvalidDifficulty, c.Difficulty)
	}

	switch c.StoreBackend {
	case BackendPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("%w: store_backend is postgres", ErrMissingPostgresURL)
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("%w: store_backend is mongo", ErrMissingMongoURI)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: %q (want postgres, mongo or memory)", ErrInvalidStoreBackend, c.StoreBackend)
	}

	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("%w: %d (want 1-100)", ErrInvalidPageSize, c.PageSize)
	}
	if c.SearchDebounceMS < 0 || c.SearchDebounceMS > 5000 {
		return fmt.Errorf("%w: %dms (want 0-5000)", ErrInvalidDebounce, c.SearchDebounceMS)
	}

	// Secret required only when one was supplied; the CLI falls back to a
	// machine-local generated secret otherwise.
	if c.CredentialSecret != "" && len(c.CredentialSecret) < 16 {
		return fmt.Errorf("%w: got %d bytes, want at least 16", ErrInvalidSecret, len(c.CredentialSecret))
	}

	return nil
}
