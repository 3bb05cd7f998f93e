package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	now := time.Now().UTC()

	u, err := NewUser("U-1", " Siti Aminah ", " Siti@Example.COM ", UserRoleUser, now)
	require.NoError(t, err)
	assert.Equal(t, "Siti Aminah", u.Name)
	assert.Equal(t, "siti@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.Contains(t, u.Avatar, "Siti+Aminah")
	assert.Equal(t, &Customer{Name: "Siti Aminah", Email: "siti@example.com"}, u.Customer())

	tests := []struct {
		name  string
		id    string
		uname string
		email string
		role  UserRole
	}{
		{"missing id", "", "A", "a@example.com", UserRoleUser},
		{"missing name", "U-2", " ", "a@example.com", UserRoleUser},
		{"bad email", "U-2", "A", "not-an-email", UserRoleUser},
		{"bad role", "U-2", "A", "a@example.com", UserRole("root")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.id, tt.uname, tt.email, tt.role, now)
			assert.ErrorIs(t, err, ErrInvalidUser)
		})
	}
}

func TestUserToggleActive(t *testing.T) {
	u := &User{IsActive: true}
	assert.False(t, u.ToggleActive())
	assert.True(t, u.ToggleActive())
}

func TestArticleDraft(t *testing.T) {
	now := time.Now().UTC()

	_, err := ArticleDraft{}.Build("B-1", now)
	assert.ErrorIs(t, err, ErrInvalidArticle)

	title := "Panduan Lengkap Aqiqah Anak"
	a, err := ArticleDraft{Title: &title}.Build("B-1", now)
	require.NoError(t, err)
	assert.Equal(t, ArticleStatusDraft, a.Status)
	assert.False(t, a.IsPublished())

	category := "Panduan"
	updated, err := ArticleDraft{Category: &category}.ApplyTo(a, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "Panduan", updated.Category)
	assert.Equal(t, "Umum", a.Category)

	empty := ""
	_, err = ArticleDraft{Title: &empty}.ApplyTo(a, now)
	assert.ErrorIs(t, err, ErrInvalidArticle)
}

func TestArticleToggleStatus(t *testing.T) {
	now := time.Now().UTC()
	a := &Article{Status: ArticleStatusDraft}

	assert.Equal(t, ArticleStatusPublished, a.ToggleStatus(now))
	assert.True(t, a.IsPublished())
	assert.Equal(t, ArticleStatusDraft, a.ToggleStatus(now))
	assert.Equal(t, now, a.UpdatedAt)
}
