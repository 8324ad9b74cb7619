package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"prompthub-backend/internal/models"
	"prompthub-backend/internal/render"
)

const (
	// DefaultCategory is applied when a template is saved without one.
	DefaultCategory = "General"

	templateListCacheKey      = "templates:all"
	templateListCacheDuration = 1 * time.Hour
)

var validate = validator.New()

// form field names as the web layer knows them
var fieldLabels = map[string]string{
	"Name": "name",
	"Body": "template",
}

// TemplateService owns all access to the templates collection. The full
// unfiltered listing is cached in redis and invalidated on every write;
// the database stays the source of truth on any cache failure.
type TemplateService struct {
	db    *gorm.DB
	cache *redis.Client
}

func NewTemplateService(db *gorm.DB, cache *redis.Client) *TemplateService {
	return &TemplateService{db: db, cache: cache}
}

// CreateTemplateInput carries the validated fields for a create request.
// Tags is the raw comma-separated form value.
type CreateTemplateInput struct {
	Name        string `validate:"required"`
	Description string
	Body        string `validate:"required"`
	Category    string
	Tags        string
}

// UpdateTemplateInput carries the validated fields for an update request.
type UpdateTemplateInput struct {
	Name        string `validate:"required"`
	Description string
	Body        string `validate:"required"`
	Category    string
	Tags        string
}

// RenderResult is the outcome of a successful template render.
type RenderResult struct {
	Rendered      string
	TemplateName  string
	VariablesUsed []string
}

func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		field := errs[0].Field()
		if label, ok := fieldLabels[field]; ok {
			field = label
		}
		return &ValidationError{Field: field}
	}
	return err
}

// Create validates and persists a new template. Variables is computed from
// the body and the category falls back to DefaultCategory.
func (s *TemplateService) Create(ctx context.Context, in CreateTemplateInput) (*models.Template, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = DefaultCategory
	}

	template := &models.Template{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Body:        in.Body,
		Category:    category,
		Tags:        datatypes.NewJSONSlice(parseTags(in.Tags)),
		Variables:   datatypes.NewJSONSlice(render.Extract(in.Body)),
	}

	if err := s.db.WithContext(ctx).Create(template).Error; err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx)
	return template, nil
}

// Get retrieves a template by id. Returns ErrNotFound when no record exists.
func (s *TemplateService) Get(ctx context.Context, id uint) (*models.Template, error) {
	var template models.Template
	if err := s.db.WithContext(ctx).First(&template, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

// List returns all templates, newest first, optionally restricted to an
// exact category match. Unfiltered listings are served from the cache when
// possible.
func (s *TemplateService) List(ctx context.Context, category string) ([]models.Template, error) {
	if category == "" {
		if cached, ok := s.listFromCache(ctx); ok {
			return cached, nil
		}
	}

	db := s.db.WithContext(ctx).Model(&models.Template{})
	if category != "" {
		db = db.Where("category = ?", category)
	}

	var templates []models.Template
	if err := db.Order("created_at desc").Find(&templates).Error; err != nil {
		return nil, err
	}

	if category == "" {
		s.storeListCache(ctx, templates)
	}
	return templates, nil
}

// Update overwrites the editable fields of an existing template and
// recomputes its variables. CreatedAt and UsageCount are left untouched.
func (s *TemplateService) Update(ctx context.Context, id uint, in UpdateTemplateInput) (*models.Template, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = DefaultCategory
	}

	template.Name = strings.TrimSpace(in.Name)
	template.Description = in.Description
	template.Body = in.Body
	template.Category = category
	template.Tags = datatypes.NewJSONSlice(parseTags(in.Tags))
	template.Variables = datatypes.NewJSONSlice(render.Extract(in.Body))

	if err := s.db.WithContext(ctx).Save(template).Error; err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx)
	return template, nil
}

// IncrementUsage bumps usage_count by one at the store, without touching
// updated_at. Returns ErrNotFound when the record is missing.
func (s *TemplateService) IncrementUsage(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&models.Template{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.invalidateListCache(ctx)
	return nil
}

// Delete removes a template. Deleting an absent id is a no-op, not an error.
func (s *TemplateService) Delete(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Delete(&models.Template{}, id).Error; err != nil {
		return err
	}

	s.invalidateListCache(ctx)
	return nil
}

// Search filters templates by a case-insensitive substring match on name or
// description (q), an exact category, and a tag that must be present in the
// record's tags. The category is pushed down to List; q and tag are applied
// after fetch since the store has no text search.
func (s *TemplateService) Search(ctx context.Context, q, category, tag string) ([]models.Template, error) {
	templates, err := s.List(ctx, category)
	if err != nil {
		return nil, err
	}

	q = strings.ToLower(q)
	matched := make([]models.Template, 0, len(templates))
	for _, t := range templates {
		if q != "" &&
			!strings.Contains(strings.ToLower(t.Name), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			continue
		}
		if tag != "" && !containsTag(t.Tags, tag) {
			continue
		}
		matched = append(matched, t)
	}
	return matched, nil
}

// RenderTemplate renders a stored template with the supplied variables and,
// on success, counts the usage. A failed render leaves the record untouched.
func (s *TemplateService) RenderTemplate(ctx context.Context, id uint, vars map[string]any) (*RenderResult, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rendered, used, err := render.Render(template.Body, vars)
	if err != nil {
		return nil, err
	}

	if err := s.IncrementUsage(ctx, id); err != nil {
		return nil, err
	}

	return &RenderResult{
		Rendered:      rendered,
		TemplateName:  template.Name,
		VariablesUsed: used,
	}, nil
}

// Categories returns the distinct categories present in templates, sorted
// for stable display in the listing filter.
func Categories(templates []models.Template) []string {
	seen := make(map[string]struct{}, len(templates))
	categories := make([]string, 0, len(templates))
	for _, t := range templates {
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		categories = append(categories, t.Category)
	}
	sort.Strings(categories)
	return categories
}

func parseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (s *TemplateService) listFromCache(ctx context.Context) ([]models.Template, bool) {
	if s.cache == nil {
		return nil, false
	}
	val, err := s.cache.Get(ctx, templateListCacheKey).Result()
	if err != nil {
		return nil, false
	}
	var templates []models.Template
	if err := json.Unmarshal([]byte(val), &templates); err != nil {
		return nil, false
	}
	return templates, true
}

func (s *TemplateService) storeListCache(ctx context.Context, templates []models.Template) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(templates)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, templateListCacheKey, data, templateListCacheDuration).Err(); err != nil {
		zap.L().Warn("template list cache write failed", zap.Error(err))
	}
}

func (s *TemplateService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, templateListCacheKey).Err(); err != nil {
		zap.L().Warn("template list cache invalidation failed", zap.Error(err))
	}
}
