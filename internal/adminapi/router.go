package adminapi

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/senaite/astm-go/internal/astm/instrument"
)

// Router holds the Gin engine and its dependencies.
type Router struct {
	engine *gin.Engine
}

// NewRouter builds the admin/metrics HTTP surface described in
// SPEC_FULL.md: health, instrument catalogue, session listing, and
// Prometheus metrics, laid out the way
// urmzd-homai/pkg/api.NewRouter groups its own routes.
func NewRouter(registry *instrument.Registry, tracker *SessionTracker, log zerolog.Logger) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	setupMiddleware(engine, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewSessionCollector(tracker))

	health := &healthHandler{tracker: tracker}
	instruments := &instrumentsHandler{registry: registry}
	sessions := &sessionsHandler{tracker: tracker}

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(301, "/swagger/index.html")
	})
	engine.GET("/health", health.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/health", health.Health)
		v1.GET("/instruments", instruments.ListInstruments)
		v1.GET("/sessions", sessions.ListSessions)
	}

	return &Router{engine: engine}
}

// Run starts the HTTP server on addr, blocking until it returns an error.
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}

// Handler exposes the underlying http.Handler for use with a caller-owned
// http.Server (e.g. for graceful shutdown).
func (r *Router) Handler() *gin.Engine {
	return r.engine
}
