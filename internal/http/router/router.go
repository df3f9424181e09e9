package router

import (
	"context"
	"net/http"
	"time"

	apphttp "propensia_dashboard/internal/http"
	"propensia_dashboard/internal/web"
	"propensia_dashboard/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// New builds the gin engine with the global middleware, health and static
// routes, and every module's routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config.GetCORSAllowAll(), app.Config.GetCORSOrigins(), app.Config.GetCORSAllowCreds())))

	engine.GET("/api/health", func(c *gin.Context) {
		if app.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			if err := app.Health.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.StaticFS("/static", web.StaticFS())

	routerCtx := &apphttp.RouterContext{
		Engine:              engine,
		Renderer:            app.Renderer,
		Validator:           app.Validator,
		BatchCookie:         app.BatchCookie,
		DraftingRateLimiter: httpkit.NewDraftingRateLimiter(app.Logger),
	}
	for _, module := range app.Modules {
		module.RegisterRoutes(routerCtx)
		app.Logger.Debug("registered module routes", "module", module.Name())
	}

	engine.NoRoute(func(c *gin.Context) {
		if app.Renderer == nil {
			httpkit.Error(c, http.StatusNotFound, "not found", nil)
			return
		}
		app.Renderer.Render(c, http.StatusNotFound, web.PageError, web.ErrorPageData{
			PageData:   web.PageData{Title: "Not found"},
			StatusCode: http.StatusNotFound,
			Message:    "The page you are looking for does not exist.",
		})
	})

	return engine
}

func corsConfig(allowAll bool, origins []string, allowCreds bool) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: allowCreds,
		MaxAge:           12 * time.Hour,
	}
	if allowAll {
		cfg.AllowAllOrigins = true
		return cfg
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:8080"}
	}
	cfg.AllowOrigins = origins
	return cfg
}
