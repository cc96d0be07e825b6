package repository

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribalbenefits/backend/internal/models"
	"github.com/tribalbenefits/backend/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	schema, err := migrations.FS.ReadFile("001_initial_schema.sql")
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations(string(schema)))
	return repo
}

func TestUserLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tribe := "navajo"
	user := &models.User{
		AuthSubject: "sub-100",
		Email:       "member@example.com",
		TribeID:     &tribe,
	}
	require.NoError(t, repo.CreateUser(ctx, user))
	assert.NotEmpty(t, user.ID, "CreateUser should assign an id")
	assert.Equal(t, "user", user.Role, "CreateUser should default the role")

	got, err := repo.GetUserBySubject(ctx, "sub-100")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "member@example.com", got.Email)
	require.NotNil(t, got.TribeID)
	assert.Equal(t, "navajo", *got.TribeID)
	assert.False(t, got.IsDeleted())

	byID, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "sub-100", byID.AuthSubject)
}

func TestGetUserBySubject_Missing(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetUserBySubject(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got, "missing user should be nil, not an error")
}

func TestSoftDeleteUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := &models.User{AuthSubject: "sub-del", Email: "del@example.com"}
	require.NoError(t, repo.CreateUser(ctx, user))
	require.NoError(t, repo.SoftDeleteUser(ctx, user.ID))

	got, err := repo.GetUserBySubject(ctx, "sub-del")
	require.NoError(t, err)
	require.NotNil(t, got, "soft-deleted row should still be readable")
	assert.True(t, got.IsDeleted())

	// Deleting again must not clobber the original timestamp.
	first := *got.DeletedAt
	require.NoError(t, repo.SoftDeleteUser(ctx, user.ID))
	again, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, again.DeletedAt.Equal(first))
}

func TestResourceCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	res := &models.Resource{
		Title:       "Tribal Housing Assistance",
		Description: "Down payment assistance for tribal members",
		Category:    "housing",
		URL:         "https://example.org/housing",
		State:       "OK",
	}
	require.NoError(t, repo.CreateResource(ctx, res))
	require.NotEmpty(t, res.ID)

	got, err := repo.GetResource(ctx, res.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Tribal Housing Assistance", got.Title)
	assert.Equal(t, "housing", got.Category)

	got.Title = "Tribal Housing Grants"
	got.TribeSpecific = true
	require.NoError(t, repo.UpdateResource(ctx, got))

	updated, err := repo.GetResource(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tribal Housing Grants", updated.Title)
	assert.True(t, updated.TribeSpecific)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))

	require.NoError(t, repo.DeleteResource(ctx, res.ID))
	gone, err := repo.GetResource(ctx, res.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestUpdateResource_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.UpdateResource(context.Background(), &models.Resource{ID: "missing", Title: "x"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not found"))

	err = repo.DeleteResource(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not found"))
}

func TestListResources_Filters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []*models.Resource{
		{Title: "Housing OK", Category: "housing", State: "OK"},
		{Title: "Housing NM", Category: "housing", State: "NM"},
		{Title: "Health Nationwide", Category: "health"},
	}
	for _, r := range seed {
		require.NoError(t, repo.CreateResource(ctx, r))
	}

	all, err := repo.ListResources(ctx, "", "", 50, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	housing, err := repo.ListResources(ctx, "housing", "", 50, 0)
	require.NoError(t, err)
	assert.Len(t, housing, 2)

	// State filter matches the state plus nationwide (empty-state) rows.
	ok, err := repo.ListResources(ctx, "", "OK", 50, 0)
	require.NoError(t, err)
	require.Len(t, ok, 2)
	for _, r := range ok {
		assert.Contains(t, []string{"OK", ""}, r.State)
	}

	paged, err := repo.ListResources(ctx, "", "", 2, 0)
	require.NoError(t, err)
	assert.Len(t, paged, 2)
	rest, err := repo.ListResources(ctx, "", "", 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestScholarships_DeadlineOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	far := time.Now().AddDate(0, 6, 0)
	near := time.Now().AddDate(0, 1, 0)
	seed := []*models.Scholarship{
		{Title: "No Deadline Fund", Sponsor: "Tribal Council", AmountUSD: 1000},
		{Title: "Far Deadline", Sponsor: "Education Board", AmountUSD: 2500, Deadline: &far},
		{Title: "Near Deadline", Sponsor: "STEM Alliance", AmountUSD: 5000, Deadline: &near},
	}
	for _, s := range seed {
		require.NoError(t, repo.CreateScholarship(ctx, s))
		require.NotEmpty(t, s.ID)
	}

	list, err := repo.ListScholarships(ctx, 50, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Near Deadline", list[0].Title)
	assert.Equal(t, "Far Deadline", list[1].Title)
	assert.Equal(t, "No Deadline Fund", list[2].Title, "rows without a deadline sort last")
}
