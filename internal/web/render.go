// Package web renders the server-side HTML pages of the dashboard.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"propensia_dashboard/internal/opportunities/scoring"
	"propensia_dashboard/platform/apperr"
	"propensia_dashboard/platform/format"
	"propensia_dashboard/platform/httpkit"
	"propensia_dashboard/platform/logger"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Page names accepted by Render.
const (
	PageIndex       = "index"
	PageDashboard   = "score_opps"
	PageOpportunity = "opportunity"
	PageAgents      = "ai_agents"
	PagePreview     = "preview"
	PageError       = "error"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title string
	Nav   string // active nav item: "home", "dashboard", "agents"
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer holds one parsed template set per page, each cloned from the layout.
type Renderer struct {
	templates map[string]*template.Template
	log       *logger.Logger
}

// NewRenderer parses the embedded templates.
func NewRenderer(log *logger.Logger) (*Renderer, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}

	layout, err := template.New("layout").Funcs(FuncMap()).ParseFS(sub, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pages := []string{PageIndex, PageDashboard, PageOpportunity, PageAgents, PagePreview, PageError}
	templates := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(sub, name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		templates[name] = t
	}

	return &Renderer{templates: templates, log: log}, nil
}

// FuncMap returns the template filters.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"add":            func(a, b int) int { return a + b },
		"sub":            func(a, b int) int { return a - b },
		"datetimeformat": format.Date,
		"format_number":  format.Number,
		"format_int":     func(n int) string { return format.Number(float64(n), 0) },
		"currency":       format.Currency,
		"lower":          strings.ToLower,
		"priorityClass":  priorityClass,
	}
}

// StaticFS returns the embedded static assets rooted at static/.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("web: static sub-FS: " + err.Error())
	}
	return http.FS(sub)
}

// Render executes a page into a buffer first so a template failure still
// produces a clean 500.
func (r *Renderer) Render(c *gin.Context, status int, page string, data any) {
	t, ok := r.templates[page]
	if !ok {
		r.log.Error("template not found", "page", page)
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.log.Error("template execution failed", "page", page, "error", err)
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// Error renders err as JSON for API clients or as the error page otherwise.
func (r *Renderer) Error(c *gin.Context, err error) {
	_ = c.Error(err)

	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		httpkit.HandleError(c, err)
		return
	}

	status := apperr.StatusOf(err)
	message := "Something went wrong. Please try again later."
	var domainErr *apperr.Error
	if errors.As(err, &domainErr) && (status < http.StatusInternalServerError || domainErr.Kind == apperr.KindUpstream || domainErr.Kind == apperr.KindUnavailable) {
		message = domainErr.Message
	}

	r.Render(c, status, PageError, ErrorPageData{
		PageData:   PageData{Title: fmt.Sprintf("Error %d", status)},
		StatusCode: status,
		Message:    message,
	})
}

func priorityClass(priority string) string {
	switch priority {
	case scoring.PriorityTop:
		return "priority-top"
	case scoring.PriorityHigh:
		return "priority-high"
	case scoring.PriorityMedium:
		return "priority-medium"
	case scoring.PriorityWon:
		return "priority-won"
	case scoring.PriorityLost, scoring.PriorityError:
		return "priority-lost"
	default:
		return "priority-low"
	}
}
