package domain

import (
	"fmt"
	"strings"
	"time"
)

// ArticleStatus is the publication state of a blog article
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
)

// IsValid checks if the status is valid
func (s ArticleStatus) IsValid() bool {
	return s == ArticleStatusDraft || s == ArticleStatusPublished
}

// Article is a blog post shown on the public site once published
type Article struct {
	ArticleID string        `bson:"articleId" json:"articleId"`
	Title     string        `bson:"title" json:"title"`
	Content   string        `bson:"content" json:"content"`
	Author    string        `bson:"author" json:"author"`
	Image     string        `bson:"image,omitempty" json:"image,omitempty"`
	Category  string        `bson:"category" json:"category"`
	Status    ArticleStatus `bson:"status" json:"status"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the article invariants
func (a *Article) Validate() error {
	if strings.TrimSpace(a.ArticleID) == "" {
		return fmt.Errorf("%w: article id is required", ErrInvalidArticle)
	}
	if a.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidArticle)
	}
	if !a.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidArticle, a.Status)
	}
	return nil
}

// IsPublished reports whether the article is visible to the public
func (a *Article) IsPublished() bool {
	return a.Status == ArticleStatusPublished
}

// ToggleStatus flips between draft and published
func (a *Article) ToggleStatus(now time.Time) ArticleStatus {
	if a.Status == ArticleStatusPublished {
		a.Status = ArticleStatusDraft
	} else {
		a.Status = ArticleStatusPublished
	}
	a.UpdatedAt = now
	return a.Status
}

// ArticleDraft is a partial article edited by an administrator
type ArticleDraft struct {
	Title    *string
	Content  *string
	Author   *string
	Image    *string
	Category *string
	Status   *ArticleStatus
}

// Build creates a new article. New articles start as drafts.
func (d ArticleDraft) Build(articleID string, now time.Time) (*Article, error) {
	a := &Article{
		ArticleID: articleID,
		Author:    "Admin",
		Category:  "Umum",
		Status:    ArticleStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.applyTo(a)
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// ApplyTo returns a copy of a with the draft merged in
func (d ArticleDraft) ApplyTo(a *Article, now time.Time) (*Article, error) {
	updated := *a
	d.applyTo(&updated)
	updated.UpdatedAt = now
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (d ArticleDraft) applyTo(a *Article) {
	if d.Title != nil {
		a.Title = strings.TrimSpace(*d.Title)
	}
	if d.Content != nil {
		a.Content = *d.Content
	}
	if d.Author != nil {
		a.Author = strings.TrimSpace(*d.Author)
	}
	if d.Image != nil {
		a.Image = strings.TrimSpace(*d.Image)
	}
	if d.Category != nil {
		a.Category = strings.TrimSpace(*d.Category)
	}
	if d.Status != nil {
		a.Status = *d.Status
	}
}
