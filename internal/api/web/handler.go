// Package web serves the HTML pages: listing, detail, create and edit
// forms, and delete. Successful form posts redirect; validation failures
// re-render the form with the message and the submitted values.
package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"prompthub-backend/internal/models"
	"prompthub-backend/internal/services"
)

type Handler struct {
	templates *services.TemplateService
}

func NewHandler(svc *services.TemplateService) *Handler {
	return &Handler{templates: svc}
}

// TemplateForm carries the create/edit form fields in both directions: it
// binds the posted values and feeds them back into the page on re-render.
type TemplateForm struct {
	Name        string `form:"name"`
	Description string `form:"description"`
	Body        string `form:"template"`
	Category    string `form:"category"`
	Tags        string `form:"tags"`
}

func formFromTemplate(t *models.Template) TemplateForm {
	return TemplateForm{
		Name:        t.Name,
		Description: t.Description,
		Body:        t.Body,
		Category:    t.Category,
		Tags:        strings.Join(t.Tags, ", "),
	}
}

// Index shows all templates, newest first, with the distinct categories for
// the filter control.
func (h *Handler) Index(c *gin.Context) {
	list, err := h.templates.List(c.Request.Context(), "")
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Templates":  list,
		"Categories": services.Categories(list),
	})
}

// ViewTemplate shows a single template.
func (h *Handler) ViewTemplate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	template, err := h.templates.Get(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		c.String(http.StatusNotFound, "Template not found")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	c.HTML(http.StatusOK, "template_detail.html", gin.H{"Template": template})
}

// CreateForm shows the empty create form.
func (h *Handler) CreateForm(c *gin.Context) {
	c.HTML(http.StatusOK, "create_template.html", gin.H{"Form": TemplateForm{}})
}

// Create persists a new template and redirects to the listing.
func (h *Handler) Create(c *gin.Context) {
	var form TemplateForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "Bad request")
		return
	}

	_, err := h.templates.Create(c.Request.Context(), services.CreateTemplateInput{
		Name:        form.Name,
		Description: form.Description,
		Body:        form.Body,
		Category:    form.Category,
		Tags:        form.Tags,
	})

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.HTML(http.StatusBadRequest, "create_template.html", gin.H{
			"Error": verr.Error(),
			"Form":  form,
		})
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// EditForm shows the edit form pre-filled with the stored values.
func (h *Handler) EditForm(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	template, err := h.templates.Get(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		c.String(http.StatusNotFound, "Template not found")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	c.HTML(http.StatusOK, "edit_template.html", gin.H{
		"ID":   template.ID,
		"Form": formFromTemplate(template),
	})
}

// Edit updates an existing template and redirects to its detail page.
func (h *Handler) Edit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var form TemplateForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "Bad request")
		return
	}

	_, err := h.templates.Update(c.Request.Context(), id, services.UpdateTemplateInput{
		Name:        form.Name,
		Description: form.Description,
		Body:        form.Body,
		Category:    form.Category,
		Tags:        form.Tags,
	})

	if errors.Is(err, services.ErrNotFound) {
		c.String(http.StatusNotFound, "Template not found")
		return
	}
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.HTML(http.StatusBadRequest, "edit_template.html", gin.H{
			"ID":    id,
			"Error": verr.Error(),
			"Form":  form,
		})
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	c.Redirect(http.StatusSeeOther, "/template/"+strconv.FormatUint(uint64(id), 10))
}

// Delete removes a template, absent or not, and redirects to the listing.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.templates.Delete(c.Request.Context(), id); err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusNotFound, "Template not found")
		return 0, false
	}
	return uint(id), true
}
