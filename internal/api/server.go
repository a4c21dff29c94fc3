package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "airwatch/docs" // register generated Swagger spec
)

// Router wraps a configured gin engine and exposes it as an http.Handler.
type Router struct {
	engine *gin.Engine
}

// NewRouter builds the full route table. Middleware order: recovery first,
// then the request logger, so a panic still produces a request line.
func NewRouter(h *Handler) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(Recovery())
	engine.Use(RequestLogger())

	engine.GET("/health", h.Health)
	engine.GET("/health/deep", h.DeepHealth)

	v1 := engine.Group("/api/v1")
	v1.POST("/users", h.CreateUser)
	v1.POST("/users/login", h.Login)

	v1.POST("/readings", h.IngestReadings)
	v1.GET("/readings", h.QueryReadings)
	v1.GET("/readings/latest", h.LatestReading)

	v1.POST("/granules", h.RegisterGranule)
	v1.GET("/granules", h.ListGranules)
	v1.POST("/granules/:granuleID/processed", h.MarkGranuleProcessed)

	v1.POST("/jobs", h.SubmitJob)
	v1.GET("/jobs", h.ListJobs)
	v1.GET("/jobs/:jobID", h.GetJob)
	v1.POST("/jobs/:jobID/cancel", h.CancelJob)

	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
	engine.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return &Router{engine: engine}
}

// Handler returns the underlying http.Handler for net/http servers.
func (r *Router) Handler() http.Handler {
	return r.engine
}
