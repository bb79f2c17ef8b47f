// Package app wires the application together: configuration, logging,
// the Genkit provider, the knowledge store, and the resolution
// controller, with lifecycle management for a clean shutdown.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/ChantelleAA/response-aigent/internal/chat"
	"github.com/ChantelleAA/response-aigent/internal/config"
	"github.com/ChantelleAA/response-aigent/internal/knowledge"
	"github.com/ChantelleAA/response-aigent/internal/log"
	"github.com/ChantelleAA/response-aigent/internal/store"
)

// App is the application container.
type App struct {
	Config     *config.Config
	Logger     log.Logger
	Genkit     *genkit.Genkit
	Embedder   ai.Embedder
	Knowledge  *knowledge.Store
	Controller *chat.Controller
	Store      *store.Store

	otelCleanup func()
}

// Close flushes in-memory state to disk and shuts down tracing.
// Safe to call after a partially failed Setup.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down")
	}

	if a.Controller != nil {
		a.Controller.SaveState()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}
