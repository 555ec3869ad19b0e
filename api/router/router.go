package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"forum-letter/api/handlers"
	"forum-letter/api/middleware"
	_ "forum-letter/docs"
	"forum-letter/services"
)

type Deps struct {
	Editions *services.EditionService
	Pipeline *services.PipelineService
	// Health pings the store. nil means always ok.
	Health func(ctx context.Context) error
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestTrace())

	r.GET("/health", handlers.HealthHandler(d.Health))

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// v1 routes
	api := r.Group("/api/v1")
	{
		api.GET("/editions", handlers.ListEditionsHandler(d.Editions))
		api.GET("/editions/latest", handlers.LatestEditionHandler(d.Editions))
		api.GET("/editions/:id", handlers.GetEditionHandler(d.Editions))
		api.POST("/pipeline/run", handlers.RunPipelineHandler(d.Pipeline))
	}
	return r
}

// WithCORS wraps the engine for browser clients on allowOrigins.
func WithCORS(h http.Handler, allowOrigins []string) http.Handler {
	if len(allowOrigins) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins:   allowOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", middleware.HeaderRequestID},
		ExposedHeaders:   []string{middleware.HeaderRequestID},
		AllowCredentials: false,
	}).Handler(h)
}
