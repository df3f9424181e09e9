// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"propensia_dashboard/internal/web"
	"propensia_dashboard/platform/config"
	"propensia_dashboard/platform/httpkit"
	"propensia_dashboard/platform/logger"
	"propensia_dashboard/platform/validator"
)

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the HTTP settings.
	Config config.HTTPConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness checks (Salesforce login). Optional.
	Health HealthChecker
	// Renderer renders HTML pages.
	Renderer *web.Renderer
	// Validator is shared by the modules.
	Validator *validator.Validator
	// BatchCookie carries the draft batch between preview and approval.
	BatchCookie *httpkit.BatchCookie
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
