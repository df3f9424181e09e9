package handler

import (
	"net/http"
	"strconv"
	"time"

	"propensia_dashboard/internal/initiatives/catalog"
	"propensia_dashboard/internal/initiatives/service"
	"propensia_dashboard/internal/initiatives/transport"
	"propensia_dashboard/internal/web"
	"propensia_dashboard/platform/apperr"
	"propensia_dashboard/platform/httpkit"
	"propensia_dashboard/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler serves the AI agents pages and the approval endpoint.
type Handler struct {
	svc      *service.Service
	renderer *web.Renderer
	val      *validator.Validator
	cookie   *httpkit.BatchCookie
}

type agentsView struct {
	web.PageData
	Initiatives []catalog.Initiative
	AIEnabled   bool
}

type previewView struct {
	web.PageData
	Result *transport.RunResult
}

// New creates the initiatives handler.
func New(svc *service.Service, renderer *web.Renderer, val *validator.Validator, cookie *httpkit.BatchCookie) *Handler {
	return &Handler{svc: svc, renderer: renderer, val: val, cookie: cookie}
}

// RegisterRoutes mounts the routes. draftLimit guards the route that calls the LLM.
func (h *Handler) RegisterRoutes(rg gin.IRoutes, draftLimit gin.HandlerFunc) {
	rg.GET("/ai_agents", h.Agents)
	rg.GET("/run_initiative/:id", draftLimit, httpkit.NoCache(), h.RunInitiative)
	rg.POST("/approve_emails/:id", h.ApproveEmails)
}

// Agents renders the initiative catalog.
func (h *Handler) Agents(c *gin.Context) {
	h.renderer.Render(c, http.StatusOK, web.PageAgents, agentsView{
		PageData:    web.PageData{Title: "AI Agents", Nav: "agents"},
		Initiatives: h.svc.Catalog(),
		AIEnabled:   h.svc.AIEnabled(),
	})
}

// RunInitiative drafts emails and renders them for review.
func (h *Handler) RunInitiative(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.renderer.Error(c, apperr.BadRequest("invalid initiative id"))
		return
	}

	result, err := h.svc.RunInitiative(c.Request.Context(), id)
	if err != nil {
		h.renderer.Error(c, err)
		return
	}

	if result.HasDrafts() {
		if err := h.cookie.Set(c, result.BatchID, time.Until(result.ExpiresAt)); err != nil {
			h.renderer.Error(c, apperr.Internal("could not sign the draft batch"))
			return
		}
	}

	h.renderer.Render(c, http.StatusOK, web.PagePreview, previewView{
		PageData: web.PageData{Title: result.InitiativeName, Nav: "agents"},
		Result:   result,
	})
}

// ApproveEmails sends the selected drafts of the current batch.
func (h *Handler) ApproveEmails(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid initiative id", nil)
		return
	}

	var req transport.ApproveEmailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	batchID := req.BatchID
	if batchID == "" {
		batchID = h.cookie.BatchID(c)
	}

	resp, err := h.svc.ApproveEmails(c.Request.Context(), id, batchID, req.DraftIDs)
	if err != nil {
		if apperr.Is(err, apperr.KindGone) {
			h.cookie.Clear(c)
		}
		_ = c.Error(err)
		httpkit.HandleError(c, err)
		return
	}

	h.cookie.Clear(c)
	httpkit.OK(c, resp)
}
