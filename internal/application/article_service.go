package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rezahawari/qurban-marketplace/internal/domain"
	"github.com/rezahawari/qurban-marketplace/pkg/logging"
)

// ArticleService manages blog articles
type ArticleService struct {
	articleRepo domain.ArticleRepository
	ids         *IDGenerator
	logger      *logging.Logger
}

// NewArticleService creates a new ArticleService
func NewArticleService(articleRepo domain.ArticleRepository, ids *IDGenerator, logger *logging.Logger) *ArticleService {
	return &ArticleService{
		articleRepo: articleRepo,
		ids:         ids,
		logger:      logger,
	}
}

// ListPublished lists the articles visible to the public
func (s *ArticleService) ListPublished(ctx context.Context) ([]ArticleDTO, error) {
	status := domain.ArticleStatusPublished
	articles, err := s.articleRepo.FindAll(ctx, domain.ArticleFilter{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return ToArticleDTOs(articles), nil
}

// GetPublished retrieves a published article. Drafts are reported as missing.
func (s *ArticleService) GetPublished(ctx context.Context, articleID string) (*ArticleDTO, error) {
	article, err := s.findArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !article.IsPublished() {
		return nil, fmt.Errorf("%w: %s", domain.ErrArticleNotFound, articleID)
	}
	return ToArticleDTO(article), nil
}

// ListArticles lists every article
func (s *ArticleService) ListArticles(ctx context.Context) ([]ArticleDTO, error) {
	articles, err := s.articleRepo.FindAll(ctx, domain.ArticleFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return ToArticleDTOs(articles), nil
}

// GetArticle retrieves any article by ID
func (s *ArticleService) GetArticle(ctx context.Context, articleID string) (*ArticleDTO, error) {
	article, err := s.findArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return ToArticleDTO(article), nil
}

// CreateArticle creates an article, a draft unless a status is given
func (s *ArticleService) CreateArticle(ctx context.Context, cmd ArticleCommand) (*ArticleDTO, error) {
	article, err := toArticleDraft(cmd).Build(s.ids.Next(ArticleIDPrefix), time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.articleRepo.Save(ctx, article); err != nil {
		s.logger.WithError(err).Error("Failed to save article", "articleId", article.ArticleID)
		return nil, fmt.Errorf("failed to save article: %w", err)
	}

	s.logger.Audit(ctx, "create", "article", article.ArticleID, actor(ctx), nil)
	return ToArticleDTO(article), nil
}

// UpdateArticle merges changes into an existing article
func (s *ArticleService) UpdateArticle(ctx context.Context, articleID string, cmd ArticleCommand) (*ArticleDTO, error) {
	article, err := s.findArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}

	updated, err := toArticleDraft(cmd).ApplyTo(article, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.articleRepo.Save(ctx, updated); err != nil {
		s.logger.WithError(err).Error("Failed to save article", "articleId", articleID)
		return nil, fmt.Errorf("failed to save article: %w", err)
	}

	s.logger.Audit(ctx, "update", "article", articleID, actor(ctx), nil)
	return ToArticleDTO(updated), nil
}

// ToggleStatus flips an article between draft and published
func (s *ArticleService) ToggleStatus(ctx context.Context, articleID string) (*ArticleDTO, error) {
	article, err := s.findArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}

	status := article.ToggleStatus(time.Now().UTC())
	if err := s.articleRepo.Save(ctx, article); err != nil {
		s.logger.WithError(err).Error("Failed to save article", "articleId", articleID)
		return nil, fmt.Errorf("failed to save article: %w", err)
	}

	s.logger.Audit(ctx, "toggle_status", "article", articleID, actor(ctx), map[string]any{"status": status})
	return ToArticleDTO(article), nil
}

// DeleteArticle removes an article
func (s *ArticleService) DeleteArticle(ctx context.Context, articleID string) error {
	if _, err := s.findArticle(ctx, articleID); err != nil {
		return err
	}
	if err := s.articleRepo.Delete(ctx, articleID); err != nil {
		s.logger.WithError(err).Error("Failed to delete article", "articleId", articleID)
		return fmt.Errorf("failed to delete article: %w", err)
	}

	s.logger.Audit(ctx, "delete", "article", articleID, actor(ctx), nil)
	return nil
}

func (s *ArticleService) findArticle(ctx context.Context, articleID string) (*domain.Article, error) {
	article, err := s.articleRepo.FindByID(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	if article == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrArticleNotFound, articleID)
	}
	return article, nil
}

func toArticleDraft(cmd ArticleCommand) domain.ArticleDraft {
	draft := domain.ArticleDraft{
		Title:    cmd.Title,
		Content:  cmd.Content,
		Author:   cmd.Author,
		Image:    cmd.Image,
		Category: cmd.Category,
	}
	if cmd.Status != nil {
		status := domain.ArticleStatus(*cmd.Status)
		draft.Status = &status
	}
	return draft
}
