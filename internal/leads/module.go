// Package leads provides the lead administration bounded context module.
// This file defines the module that encapsulates all leads setup and route
// registration.
package leads

import (
	"context"

	"estate_admin_backend/internal/events"
	apphttp "estate_admin_backend/internal/http"
	"estate_admin_backend/internal/leads/engine"
	"estate_admin_backend/internal/leads/handler"
	"estate_admin_backend/internal/notify"
	"estate_admin_backend/internal/recordservice"
	"estate_admin_backend/platform/config"
	"estate_admin_backend/platform/logger"
	"estate_admin_backend/platform/validator"

	"golang.org/x/time/rate"
)

// Config combines the config interfaces the leads module needs.
type Config interface {
	config.RecordServiceConfig
	config.ImportConfig
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	engine  *engine.Engine
	client  *recordservice.Client
}

// NewModule creates and initializes the leads module with all its
// dependencies. Refresh requests published on the bus are served here in
// the background, so every mutation path converges on the same re-fetch.
func NewModule(cfg Config, eventBus events.Bus, val *validator.Validator, notifier notify.Notifier, log *logger.Logger) *Module {
	tokens := recordservice.NewSessionTokenSource(cfg.GetCSRFTokenURL())
	client := recordservice.New(cfg.GetRecordServiceBaseURL(), cfg.GetRecordServiceTimeout(), tokens, log)

	limiter := rate.NewLimiter(rate.Limit(cfg.GetImportRatePerSecond()), cfg.GetImportBurst())
	eng := engine.New(client, client, val, notifier, eventBus, limiter, log)

	eventBus.Subscribe(events.RefreshRequested{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.RefreshRequested)
		if !ok {
			return nil
		}
		if err := eng.Refresh(context.Background()); err != nil {
			log.Error("collection refresh failed", "error", err, "reason", e.Reason)
		}
		return nil
	}))

	return &Module{
		handler: handler.New(eng),
		engine:  eng,
		client:  client,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Engine returns the lead engine for external use.
func (m *Module) Engine() *engine.Engine {
	return m.engine
}

// Client returns the Record Service client, used by main for health checks.
func (m *Module) Client() *recordservice.Client {
	return m.client
}

// Warm primes the collection cache before the server starts taking traffic.
// A failure is not fatal; the first authenticated request can refresh again.
func (m *Module) Warm(ctx context.Context) error {
	return m.engine.Refresh(ctx)
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All leads routes require authentication
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
