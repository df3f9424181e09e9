// Package http provides HTTP server infrastructure including the Module interface
// that all domain modules must implement for route registration.
package http

import (
	"propensia_dashboard/internal/web"
	"propensia_dashboard/platform/httpkit"
	"propensia_dashboard/platform/validator"

	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
// Each domain module implements this interface to encapsulate its own
// route setup, keeping the main router decoupled from specific endpoints.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the engine.
	// The RouterContext provides access to shared middleware and configuration.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
type RouterContext struct {
	// Engine is the root Gin engine. All pages live at the root path.
	Engine *gin.Engine
	// Renderer renders the HTML pages and error pages.
	Renderer *web.Renderer
	// Validator validates request DTOs.
	Validator *validator.Validator
	// BatchCookie signs and reads the draft batch cookie.
	BatchCookie *httpkit.BatchCookie
	// DraftingRateLimiter guards routes that call the LLM API.
	DraftingRateLimiter *httpkit.IPRateLimiter
}
