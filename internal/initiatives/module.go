// Package initiatives provides the AI initiatives bounded context module:
// drafting follow-up emails for stale opportunities and sending approved drafts.
package initiatives

import (
	"propensia_dashboard/internal/email"
	apphttp "propensia_dashboard/internal/http"
	"propensia_dashboard/internal/initiatives/catalog"
	"propensia_dashboard/internal/initiatives/drafts"
	"propensia_dashboard/internal/initiatives/handler"
	"propensia_dashboard/internal/initiatives/ports"
	"propensia_dashboard/internal/initiatives/service"
	"propensia_dashboard/platform/logger"
)

// Module is the initiatives bounded context module implementing http.Module.
type Module struct {
	service *service.Service
}

// NewModule loads the catalog and creates the initiatives service.
// writer may be nil when AI is disabled.
func NewModule(client service.CRM, writer ports.FollowUpWriter, sender email.Sender, store drafts.Store, opts service.Options, log *logger.Logger) (*Module, error) {
	cat, err := catalog.Load()
	if err != nil {
		return nil, err
	}
	return &Module{service: service.New(cat, client, writer, sender, store, opts, log)}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "initiatives"
}

// Service exposes the initiatives service.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the AI agents pages and the approval endpoint.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	h := handler.New(m.service, ctx.Renderer, ctx.Validator, ctx.BatchCookie)
	h.RegisterRoutes(ctx.Engine, ctx.DraftingRateLimiter.RateLimit())
}

var _ apphttp.Module = (*Module)(nil)
