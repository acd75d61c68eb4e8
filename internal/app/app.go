// Package app provides application initialization and dependency wiring.
//
// App is the composition root: it initializes tracing, the document store
// backend, Genkit with the Gemini plugin, the signed-in user, and the
// generation session. Commands build on top of a ready App.
package app

import (
	"context"

	"github.com/firebase/genkit/go/genkit"

	"github.com/lumi-ai/lumi/internal/auth"
	"github.com/lumi-ai/lumi/internal/config"
	"github.com/lumi-ai/lumi/internal/generate"
	"github.com/lumi-ai/lumi/internal/log"
	"github.com/lumi-ai/lumi/internal/notes"
	"github.com/lumi-ai/lumi/internal/store"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit  *genkit.Genkit
	Store   store.Store
	Auth    auth.Provider
	User    auth.User
	Session *generate.Session
	Notes   *notes.Service

	tracingShutdown func(context.Context) error
	cancel          context.CancelFunc
}

// ReadyCheck returns the store health probe for readiness endpoints, or nil
// when the backend has none (memory).
func (a *App) ReadyCheck() func(context.Context) error {
	type pinger interface {
		Ping(ctx context.Context) error
	}
	if p, ok := a.Store.(pinger); ok {
		return p.Ping
	}
	return nil
}

// Close gracefully shuts down all resources.
func (a *App) Close(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	if a.cancel != nil {
		a.cancel()
	}

	// Wait for in-flight history writes before the store goes away.
	if a.Session != nil {
		a.Session.Flush()
	}

	var firstErr error
	if a.Store != nil {
		if err := a.Store.Close(ctx); err != nil {
			firstErr = err
		}
	}
	if a.tracingShutdown != nil {
		if err := a.tracingShutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
