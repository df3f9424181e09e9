// Package opportunities provides the opportunity scoring bounded context module.
// This file defines the module that encapsulates the dashboard setup and route registration.
package opportunities

import (
	apphttp "propensia_dashboard/internal/http"
	"propensia_dashboard/internal/opportunities/handler"
	"propensia_dashboard/internal/opportunities/service"
	"propensia_dashboard/platform/logger"
)

// Module is the opportunities bounded context module implementing http.Module.
type Module struct {
	service *service.Service
}

// NewModule creates the opportunities module. advisor may be nil when AI is disabled.
func NewModule(client service.CRM, advisor service.NextStepsAdvisor, pageSize int, log *logger.Logger) *Module {
	return &Module{service: service.New(client, advisor, pageSize, log)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "opportunities"
}

// Service exposes the scoring service for the poller and the task worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the dashboard pages.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	h := handler.New(m.service, ctx.Renderer, ctx.Validator)
	h.RegisterRoutes(ctx.Engine)
}

var _ apphttp.Module = (*Module)(nil)
