package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"golang.org/x/time/rate"

	"github.com/lumi-ai/lumi/internal/auth"
	"github.com/lumi-ai/lumi/internal/config"
	"github.com/lumi-ai/lumi/internal/generate"
	"github.com/lumi-ai/lumi/internal/log"
	"github.com/lumi-ai/lumi/internal/notes"
	"github.com/lumi-ai/lumi/internal/observability"
	"github.com/lumi-ai/lumi/internal/store"
	"github.com/lumi-ai/lumi/internal/store/memstore"
	"github.com/lumi-ai/lumi/internal/store/mongo"
	"github.com/lumi-ai/lumi/internal/store/postgres"
)

// defaultIdentityEmail is used when no credential exists yet. A single-user
// CLI should not demand a login before first use; `lumi login` replaces the
// provisional identity with a named one.
const defaultIdentityEmail = "local@lumi"

// Setup creates a fully wired App. On failure every resource initialized so
// far is released before the error is returned.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (app *App, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)
	app = &App{
		Config: cfg,
		Logger: logger,
		cancel: cancel,
	}
	defer func() {
		if err != nil {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer closeCancel()
			_ = app.Close(closeCtx)
		}
	}()

	// Tracing first so the exporter is registered before Genkit produces
	// its first span.
	if cfg.Tracing.Enabled {
		app.tracingShutdown, err = observability.Setup(ctx, observability.Config{
			AgentHost:   cfg.Tracing.AgentHost,
			Environment: cfg.Tracing.Environment,
			ServiceName: cfg.Tracing.ServiceName,
		})
		if err != nil {
			return nil, fmt.Errorf("setting up tracing: %w", err)
		}
	}

	app.Store, err = provideStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setting up store: %w", err)
	}

	app.Genkit, err = provideGenkit(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing genkit: %w", err)
	}

	app.Auth, app.User, err = provideIdentity(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("resolving identity: %w", err)
	}

	limiter := provideLimiter(cfg)
	models := generate.Models{
		Flash:     qualifyModel(cfg.FlashModel),
		FlashLite: qualifyModel(cfg.FlashLiteModel),
	}
	app.Session = generate.New(app.Genkit, app.Store, app.User.ID, models, limiter, logger)
	app.Notes = notes.New(app.Store, app.User.ID, logger)

	logger.Info("application ready",
		"backend", cfg.StoreBackend,
		"user_id", app.User.ID,
		"flash_model", models.Flash,
	)
	return app, nil
}

func provideStore(ctx context.Context, cfg *config.Config, logger log.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		// postgres.New runs pending migrations before returning.
		return postgres.New(ctx, cfg.PostgresURL, logger)
	case config.BackendMongo:
		return mongo.New(ctx, cfg.MongoURI, cfg.MongoDBName, logger)
	case config.BackendMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func provideGenkit(ctx context.Context) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, fmt.Errorf("genkit initialization returned nil")
	}
	return g, nil
}

// provideIdentity resolves the signed-in user, provisioning a default local
// identity when none exists. An expired credential surfaces as an error so
// the user re-runs login rather than silently becoming someone new.
func provideIdentity(ctx context.Context, cfg *config.Config, logger log.Logger) (auth.Provider, auth.User, error) {
	credPath, err := config.CredentialPath()
	if err != nil {
		return nil, auth.User{}, err
	}
	secret, err := provideSecret(cfg)
	if err != nil {
		return nil, auth.User{}, err
	}

	provider := auth.NewLocal(credPath, secret, logger)
	user, err := provider.CurrentUser(ctx)
	switch {
	case err == nil:
		return provider, user, nil
	case errors.Is(err, auth.ErrNotSignedIn):
		host, _ := os.Hostname()
		user, err = provider.SignIn(ctx, defaultIdentityEmail, host)
		if err != nil {
			return nil, auth.User{}, fmt.Errorf("provisioning default identity: %w", err)
		}
		return provider, user, nil
	case errors.Is(err, auth.ErrCredentialExpired):
		return nil, auth.User{}, fmt.Errorf("credential expired, run `lumi login`: %w", err)
	default:
		return nil, auth.User{}, err
	}
}

// LocalSecret returns the credential signing secret: the configured value
// when set, otherwise a machine-local secret generated on first use. Exposed
// so login can mint credentials without wiring the full application.
func LocalSecret(cfg *config.Config) ([]byte, error) {
	return provideSecret(cfg)
}

// provideSecret returns the configured credential secret, falling back to a
// machine-local secret generated on first use.
func provideSecret(cfg *config.Config) ([]byte, error) {
	if cfg.CredentialSecret != "" {
		return []byte(cfg.CredentialSecret), nil
	}

	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "secret")

	if raw, err := os.ReadFile(path); err == nil && len(raw) > 0 {
		return raw, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generating credential secret: %w", err)
	}
	secret := []byte(hex.EncodeToString(buf))
	if err := os.WriteFile(path, secret, 0600); err != nil {
		return nil, fmt.Errorf("writing credential secret: %w", err)
	}
	return secret, nil
}

func provideLimiter(cfg *config.Config) *rate.Limiter {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// qualifyModel prefixes bare Gemini model names with the googleai provider.
// Fully qualified names pass through untouched.
func qualifyModel(name string) string {
	if strings.Contains(name, "/") {
		return name
	}
	return "googleai/" + name
}
