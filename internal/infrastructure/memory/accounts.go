package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
)

// UserRepository implements domain.UserRepository
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewUserRepository creates an empty UserRepository
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

// Save creates or replaces a user
func (r *UserRepository) Save(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.UserID] = copyUser(user)
	return nil
}

// FindByID retrieves a user by ID
func (r *UserRepository) FindByID(_ context.Context, userID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[userID]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

// FindByEmail retrieves a user by normalized email
func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

// FindAll returns users oldest first
func (r *UserRepository) FindAll(_ context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		if filter.Matches(u) {
			out = append(out, copyUser(u))
		}
	}
	slices.SortFunc(out, func(a, b *domain.User) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.UserID, b.UserID))
	})
	return out, nil
}

// Count returns total count matching filter
func (r *UserRepository) Count(_ context.Context, filter domain.UserFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, u := range r.users {
		if filter.Matches(u) {
			n++
		}
	}
	return n, nil
}

// ArticleRepository implements domain.ArticleRepository
type ArticleRepository struct {
	mu       sync.RWMutex
	articles map[string]*domain.Article
}

// NewArticleRepository creates an empty ArticleRepository
func NewArticleRepository() *ArticleRepository {
	return &ArticleRepository{articles: make(map[string]*domain.Article)}
}

func copyArticle(a *domain.Article) *domain.Article {
	c := *a
	return &c
}

// Save creates or replaces an article
func (r *ArticleRepository) Save(_ context.Context, article *domain.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.articles[article.ArticleID] = copyArticle(article)
	return nil
}

// FindByID retrieves an article by ID
func (r *ArticleRepository) FindByID(_ context.Context, articleID string) (*domain.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.articles[articleID]; ok {
		return copyArticle(a), nil
	}
	return nil, nil
}

// FindAll returns articles newest first
func (r *ArticleRepository) FindAll(_ context.Context, filter domain.ArticleFilter) ([]*domain.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Article, 0, len(r.articles))
	for _, a := range r.articles {
		if filter.Matches(a) {
			out = append(out, copyArticle(a))
		}
	}
	slices.SortFunc(out, func(a, b *domain.Article) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ArticleID, a.ArticleID))
	})
	return out, nil
}

// Delete removes an article
func (r *ArticleRepository) Delete(_ context.Context, articleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[articleID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrArticleNotFound, articleID)
	}
	delete(r.articles, articleID)
	return nil
}

var (
	_ domain.UserRepository    = (*UserRepository)(nil)
	_ domain.ArticleRepository = (*ArticleRepository)(nil)
)
