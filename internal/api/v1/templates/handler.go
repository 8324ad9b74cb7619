package templates

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"prompthub-backend/internal/render"
	"prompthub-backend/internal/services"
)

type Handler struct {
	templates *services.TemplateService
}

func NewHandler(svc *services.TemplateService) *Handler {
	return &Handler{templates: svc}
}

// Search godoc
// @Summary Search templates
// @Description Filter templates by substring query, exact category, and tag
// @Tags templates
// @Produce json
// @Param q query string false "Case-insensitive substring matched against name or description"
// @Param category query string false "Exact category"
// @Param tag query string false "Tag that must be present on the record"
// @Success 200 {array} TemplateSummary
// @Failure 500 {object} ErrorResponse
// @Router /api/search [get]
func (h *Handler) Search(c *gin.Context) {
	results, err := h.templates.Search(c.Request.Context(), c.Query("q"), c.Query("category"), c.Query("tag"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "search failed"})
		return
	}

	summaries := make([]TemplateSummary, 0, len(results))
	for _, t := range results {
		summaries = append(summaries, TemplateSummary{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Category:    t.Category,
			Tags:        t.Tags,
			CreatedDate: t.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, summaries)
}

// Render godoc
// @Summary Render a template
// @Description Substitute the supplied variables into the template body and count the usage
// @Tags templates
// @Accept json
// @Produce json
// @Param id path int true "Template ID"
// @Param variables body object true "Variable name to value mapping"
// @Success 200 {object} RenderResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/render/{id} [post]
func (h *Handler) Render(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Template not found"})
		return
	}

	// An empty body means render with no variables, same as an empty object.
	vars := map[string]any{}
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&vars); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
			return
		}
	}

	result, err := h.templates.RenderTemplate(c.Request.Context(), uint(id), vars)
	if err != nil {
		var renderErr *render.Error
		switch {
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Template not found"})
		case errors.As(err, &renderErr):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Template rendering error: " + renderErr.Error()})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "render failed"})
		}
		return
	}

	c.JSON(http.StatusOK, RenderResponse{
		Rendered:      result.Rendered,
		TemplateName:  result.TemplateName,
		VariablesUsed: result.VariablesUsed,
	})
}
