package handler

import (
	"net/http"
	"strconv"

	"propensia_dashboard/internal/opportunities/service"
	"propensia_dashboard/internal/opportunities/transport"
	"propensia_dashboard/internal/web"
	"propensia_dashboard/platform/apperr"
	"propensia_dashboard/platform/httpkit"
	"propensia_dashboard/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler serves the dashboard pages.
type Handler struct {
	svc      *service.Service
	renderer *web.Renderer
	val      *validator.Validator
}

type indexView struct {
	web.PageData
	AIEnabled bool
}

type dashboardView struct {
	web.PageData
	Dashboard *transport.DashboardPage
}

type insightsView struct {
	web.PageData
	Insights *transport.Insights
}

// New creates the opportunities handler.
func New(svc *service.Service, renderer *web.Renderer, val *validator.Validator) *Handler {
	return &Handler{svc: svc, renderer: renderer, val: val}
}

// RegisterRoutes mounts the dashboard pages on the engine root.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.GET("/", h.Index)
	rg.GET("/score_opps", httpkit.NoCache(), h.ScoreOpportunities)
	rg.GET("/opportunities/:id", h.Opportunity)
}

// Index renders the landing page.
func (h *Handler) Index(c *gin.Context) {
	h.renderer.Render(c, http.StatusOK, web.PageIndex, indexView{
		PageData:  web.PageData{Title: "Home", Nav: "home"},
		AIEnabled: h.svc.AIEnabled(),
	})
}

// ScoreOpportunities renders one page of scored opportunities.
func (h *Handler) ScoreOpportunities(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.renderer.Error(c, apperr.BadRequest("page must be a number"))
			return
		}
		page = parsed
	}

	dashboard, err := h.svc.Dashboard(c.Request.Context(), page)
	if err != nil {
		h.renderer.Error(c, err)
		return
	}

	h.renderer.Render(c, http.StatusOK, web.PageDashboard, dashboardView{
		PageData:  web.PageData{Title: "Opportunities", Nav: "dashboard"},
		Dashboard: dashboard,
	})
}

// Opportunity renders the insights page of one opportunity.
func (h *Handler) Opportunity(c *gin.Context) {
	id := c.Param("id")
	if err := h.val.Var(id, "required,sfid"); err != nil {
		h.renderer.Error(c, apperr.Validation("invalid opportunity id"))
		return
	}

	insights, err := h.svc.Insights(c.Request.Context(), id)
	if err != nil {
		h.renderer.Error(c, err)
		return
	}

	h.renderer.Render(c, http.StatusOK, web.PageOpportunity, insightsView{
		PageData: web.PageData{Title: insights.Opportunity.Name, Nav: "dashboard"},
		Insights: insights,
	})
}
