package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rezahawari/qurban-marketplace/internal/application"
	"github.com/rezahawari/qurban-marketplace/pkg/middleware"
)

// Login handles POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var cmd application.LoginCommand
	if !h.bind(c, &cmd) {
		return
	}

	result, err := h.users.Login(c.Request.Context(), cmd)
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// Register handles POST /api/v1/auth/register
func (h *Handler) Register(c *gin.Context) {
	var cmd application.RegisterCommand
	if !h.bind(c, &cmd) {
		return
	}

	result, err := h.users.Register(c.Request.Context(), cmd)
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// Me handles GET /api/v1/me
func (h *Handler) Me(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)

	result, err := h.users.Profile(c.Request.Context(), identity.UserID)
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ListUsers handles GET /api/v1/admin/users
func (h *Handler) ListUsers(c *gin.Context) {
	result, err := h.users.ListUsers(c.Request.Context(), optionalQuery(c, "role"))
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// CreateUser handles POST /api/v1/admin/users
func (h *Handler) CreateUser(c *gin.Context) {
	var cmd application.CreateUserCommand
	if !h.bind(c, &cmd) {
		return
	}

	result, err := h.users.CreateUser(c.Request.Context(), cmd)
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// ToggleUserActive handles PUT /api/v1/admin/users/:userId/active
func (h *Handler) ToggleUserActive(c *gin.Context) {
	result, err := h.users.ToggleActive(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// UserOrders handles GET /api/v1/admin/users/:userId/orders
func (h *Handler) UserOrders(c *gin.Context) {
	result, err := h.users.UserOrders(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ListPublishedArticles handles GET /api/v1/articles
func (h *Handler) ListPublishedArticles(c *gin.Context) {
	result, err := h.articles.ListPublished(c.Request.Context())
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetPublishedArticle handles GET /api/v1/articles/:articleId
func (h *Handler) GetPublishedArticle(c *gin.Context) {
	result, err := h.articles.GetPublished(c.Request.Context(), c.Param("articleId"))
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ListArticles handles GET /api/v1/admin/articles
func (h *Handler) ListArticles(c *gin.Context) {
	result, err := h.articles.ListArticles(c.Request.Context())
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetArticle handles GET /api/v1/admin/articles/:articleId
func (h *Handler) GetArticle(c *gin.Context) {
	result, err := h.articles.GetArticle(c.Request.Context(), c.Param("articleId"))
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// CreateArticle handles POST /api/v1/admin/articles
func (h *Handler) CreateArticle(c *gin.Context) {
	var cmd application.ArticleCommand
	if !h.bind(c, &cmd) {
		return
	}

	result, err := h.articles.CreateArticle(c.Request.Context(), cmd)
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// UpdateArticle handles PUT /api/v1/admin/articles/:articleId
func (h *Handler) UpdateArticle(c *gin.Context) {
	var cmd application.ArticleCommand
	if !h.bind(c, &cmd) {
		return
	}

	result, err := h.articles.UpdateArticle(c.Request.Context(), c.Param("articleId"), cmd)
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ToggleArticleStatus handles PUT /api/v1/admin/articles/:articleId/status
func (h *Handler) ToggleArticleStatus(c *gin.Context) {
	result, err := h.articles.ToggleStatus(c.Request.Context(), c.Param("articleId"))
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// DeleteArticle handles DELETE /api/v1/admin/articles/:articleId
func (h *Handler) DeleteArticle(c *gin.Context) {
	if err := h.articles.DeleteArticle(c.Request.Context(), c.Param("articleId")); err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.Status(http.StatusNoContent)
}
