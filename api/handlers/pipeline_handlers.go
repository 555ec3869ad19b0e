package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"forum-letter/api/middleware"
	"forum-letter/dto"
	"forum-letter/pipeline"
	"forum-letter/services"
)

type runRequest struct {
	Cadence string `json:"cadence"`
}

// RunPipelineHandler godoc
// @Summary      Trigger a pipeline run
// @Description  Starts ingest, categorization and synthesis in the background
// @Tags         pipeline
// @Accept       json
// @Param        cadence  query  string  false  "daily or weekly"
// @Produce      json
// @Success      202  {object}  dto.PipelineRunResponseDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      409  {object}  dto.ErrorResponseDTO
// @Router       /pipeline/run [post]
func RunPipelineHandler(svc *services.PipelineService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body runRequest
		// body is optional.
		_ = c.ShouldBindJSON(&body)
		cadence := c.DefaultQuery("cadence", body.Cadence)

		requestID := middleware.RequestIDFromContext(c.Request.Context())
		res, err := svc.Trigger(c.Request.Context(), cadence, requestID, "api")
		switch {
		case errors.Is(err, services.ErrInvalidCadence):
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: err.Error()})
			return
		case errors.Is(err, pipeline.ErrRunInProgress):
			c.JSON(http.StatusConflict, dto.ErrorResponseDTO{Error: "pipeline run already in progress"})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, dto.PipelineRunResponseDTO{
			Status:    "started",
			RequestID: res.RequestID,
			Cadence:   string(res.Cadence),
			Mode:      res.Mode,
		})
	}
}

// HealthHandler reports degraded when check fails.
func HealthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "mongo": "down", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
