package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"prompthub-backend/internal/models"
	"prompthub-backend/internal/render"
	"prompthub-backend/internal/services"
)

func setupService(t *testing.T) (*services.TemplateService, *miniredis.Miniredis) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.Template{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return services.NewTemplateService(db, cache), mr
}

func TestCreateTemplate(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	template, err := svc.Create(ctx, services.CreateTemplateInput{
		Name:        "Greeting",
		Description: "Say hello",
		Body:        "Hi {{user}}, welcome to {{place}}!",
		Tags:        "onboarding, friendly",
	})
	require.NoError(t, err)

	assert.NotZero(t, template.ID)
	assert.Equal(t, "General", template.Category)
	assert.Equal(t, []string{"onboarding", "friendly"}, []string(template.Tags))
	assert.Equal(t, []string{"user", "place"}, []string(template.Variables))
	assert.Equal(t, int64(0), template.UsageCount)
	assert.False(t, template.CreatedAt.IsZero())
	assert.False(t, template.CreatedAt.After(template.UpdatedAt))
}

func TestCreateTemplateValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, services.CreateTemplateInput{Body: "{{x}}"})
	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	_, err = svc.Create(ctx, services.CreateTemplateInput{Name: "No body"})
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "template", verr.Field)
}

func TestCreateTemplateEmptyTags(t *testing.T) {
	svc, _ := setupService(t)

	template, err := svc.Create(context.Background(), services.CreateTemplateInput{
		Name: "Plain",
		Body: "no tokens",
		Tags: "",
	})
	require.NoError(t, err)
	assert.Empty(t, []string(template.Tags))
	assert.Empty(t, []string(template.Variables))
}

func TestVariablesRoundTrip(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	body := "Dear {{name}}, order {{order_id}} for {{name}} shipped"
	created, err := svc.Create(ctx, services.CreateTemplateInput{Name: "Shipping", Body: body})
	require.NoError(t, err)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, render.Extract(body), []string(fetched.Variables))
}

func TestGetNotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Get(context.Background(), 12345)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestListOrderAndFilter(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, services.CreateTemplateInput{Name: "Older", Body: "a", Category: "Ops"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := svc.Create(ctx, services.CreateTemplateInput{Name: "Newer", Body: "b", Category: "Marketing"})
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	ops, err := svc.List(ctx, "Ops")
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "Older", ops[0].Name)
}

func TestListCache(t *testing.T) {
	svc, mr := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, services.CreateTemplateInput{Name: "Cached", Body: "x"})
	require.NoError(t, err)

	// First unfiltered listing populates the cache.
	_, err = svc.List(ctx, "")
	require.NoError(t, err)
	assert.True(t, mr.Exists("templates:all"))

	// Any write invalidates it.
	_, err = svc.Create(ctx, services.CreateTemplateInput{Name: "Another", Body: "y"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("templates:all"))

	// A stale cache entry is what listings serve until the next write.
	listed, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, listed, 2)
	again, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, again, 2)
}

func TestUpdateTemplate(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, services.CreateTemplateInput{
		Name:     "Original",
		Body:     "Hello {{name}}",
		Category: "Ops",
		Tags:     "alpha",
	})
	require.NoError(t, err)

	require.NoError(t, svc.IncrementUsage(ctx, created.ID))
	time.Sleep(5 * time.Millisecond)

	updated, err := svc.Update(ctx, created.ID, services.UpdateTemplateInput{
		Name:        "Renamed",
		Description: "now with a description",
		Body:        "Bye {{user}}",
		Tags:        "beta, gamma",
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "General", updated.Category)
	assert.Equal(t, []string{"beta", "gamma"}, []string(updated.Tags))
	assert.Equal(t, []string{"user"}, []string(updated.Variables))
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fetched.UsageCount)
}

func TestUpdateNotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Update(context.Background(), 999, services.UpdateTemplateInput{
		Name: "Ghost",
		Body: "boo",
	})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestIncrementUsage(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, services.CreateTemplateInput{Name: "Counter", Body: "x"})
	require.NoError(t, err)

	require.NoError(t, svc.IncrementUsage(ctx, created.ID))
	require.NoError(t, svc.IncrementUsage(ctx, created.ID))

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetched.UsageCount)

	assert.ErrorIs(t, svc.IncrementUsage(ctx, 999), services.ErrNotFound)
}

func TestDeleteIdempotent(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, services.CreateTemplateInput{Name: "Doomed", Body: "x"})
	require.NoError(t, err)

	assert.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	// Second delete of the same id still succeeds.
	assert.NoError(t, svc.Delete(ctx, created.ID))
}

func TestSearch(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, services.CreateTemplateInput{
		Name:     "Welcome Email",
		Body:     "Hi {{user}}",
		Category: "Marketing",
		Tags:     "onboarding",
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, services.CreateTemplateInput{
		Name:     "Error Alert",
		Body:     "Failure in {{service}}",
		Category: "Ops",
		Tags:     "alert",
	})
	require.NoError(t, err)

	byQuery, err := svc.Search(ctx, "welcome", "", "")
	require.NoError(t, err)
	require.Len(t, byQuery, 1)
	assert.Equal(t, "Welcome Email", byQuery[0].Name)

	byCategory, err := svc.Search(ctx, "", "Ops", "")
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Error Alert", byCategory[0].Name)

	byTag, err := svc.Search(ctx, "", "", "alert")
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "Error Alert", byTag[0].Name)

	none, err := svc.Search(ctx, "welcome", "Ops", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearchMatchesDescription(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, services.CreateTemplateInput{
		Name:        "Plain name",
		Description: "Quarterly revenue summary",
		Body:        "x",
	})
	require.NoError(t, err)

	found, err := svc.Search(ctx, "REVENUE", "", "")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestRenderTemplate(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, services.CreateTemplateInput{
		Name: "Greeting",
		Body: "Hi {{user}}!",
	})
	require.NoError(t, err)

	result, err := svc.RenderTemplate(ctx, created.ID, map[string]any{"user": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ada!", result.Rendered)
	assert.Equal(t, "Greeting", result.TemplateName)
	assert.Equal(t, []string{"user"}, result.VariablesUsed)

	_, err = svc.RenderTemplate(ctx, created.ID, map[string]any{"user": "Grace"})
	require.NoError(t, err)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetched.UsageCount)
}

func TestRenderTemplateLeavesUpdatedAt(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, services.CreateTemplateInput{
		Name: "Greeting",
		Body: "Hi {{user}}!",
	})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = svc.RenderTemplate(ctx, created.ID, map[string]any{"user": "Ada"})
	require.NoError(t, err)

	// Rendering counts usage without refreshing updated_at.
	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fetched.UsageCount)
	assert.False(t, fetched.UpdatedAt.After(created.UpdatedAt))
}

func TestRenderTemplateFailureHasNoSideEffects(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, services.CreateTemplateInput{
		Name: "Strict",
		Body: "Hi {{user}} from {{city}}",
	})
	require.NoError(t, err)

	_, err = svc.RenderTemplate(ctx, created.ID, map[string]any{"user": "Ada"})
	var renderErr *render.Error
	assert.ErrorAs(t, err, &renderErr)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fetched.UsageCount)
}

func TestRenderTemplateNotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.RenderTemplate(context.Background(), 404, map[string]any{})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestCategories(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	for i, category := range []string{"Ops", "Marketing", "Ops", "General"} {
		_, err := svc.Create(ctx, services.CreateTemplateInput{
			Name:     fmt.Sprintf("t%d", i),
			Body:     "x",
			Category: category,
		})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"General", "Marketing", "Ops"}, services.Categories(all))
}
