package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"forum-letter/dto"
	"forum-letter/logger"
	"forum-letter/repositories"
	"forum-letter/services"
)

func filterFromQuery(c *gin.Context) services.EditionFilter {
	return services.EditionFilter{
		Sources: c.QueryArray("source"),
		Tags:    c.QueryArray("tag"),
	}
}

func writeEditionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidID):
		c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid edition id"})
	case errors.Is(err, repositories.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponseDTO{Error: "not found"})
	default:
		logger.Log.Errorf("edition lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: err.Error()})
	}
}

// LatestEditionHandler godoc
// @Summary      Latest edition
// @Description  Newest edition grouped by section, with facets and optional filters
// @Tags         editions
// @Param        source  query  []string  false  "Sources (OR match)"
// @Param        tag     query  []string  false  "Tags (OR match)"
// @Produce      json
// @Success      200  {object}  dto.EditionDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /editions/latest [get]
func LatestEditionHandler(svc *services.EditionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.Latest(c.Request.Context(), filterFromQuery(c))
		if err != nil {
			writeEditionError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// GetEditionHandler godoc
// @Summary      Get edition by id
// @Tags         editions
// @Param        id      path   string    true   "ObjectID"
// @Param        source  query  []string  false  "Sources (OR match)"
// @Param        tag     query  []string  false  "Tags (OR match)"
// @Produce      json
// @Success      200  {object}  dto.EditionDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /editions/{id} [get]
func GetEditionHandler(svc *services.EditionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.GetByID(c.Request.Context(), c.Param("id"), filterFromQuery(c))
		if err != nil {
			writeEditionError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// ListEditionsHandler godoc
// @Summary      Edition archive
// @Description  Editions newest first, fixed page size
// @Tags         editions
// @Param        page  query  int  false  "Page number (1-based)"
// @Produce      json
// @Success      200  {object}  dto.PaginationEditionDTO
// @Router       /editions [get]
func ListEditionsHandler(svc *services.EditionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		resp, err := svc.Archive(c.Request.Context(), page)
		if err != nil {
			writeEditionError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
