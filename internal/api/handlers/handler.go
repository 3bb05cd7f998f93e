package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rezahawari/qurban-marketplace/internal/application"
	"github.com/rezahawari/qurban-marketplace/internal/domain"
	"github.com/rezahawari/qurban-marketplace/pkg/errors"
	"github.com/rezahawari/qurban-marketplace/pkg/logging"
	"github.com/rezahawari/qurban-marketplace/pkg/middleware"
)

func init() {
	serviceTypes := make([]string, 0, len(domain.ServiceTypes()))
	for _, s := range domain.ServiceTypes() {
		serviceTypes = append(serviceTypes, string(s))
	}
	_ = middleware.RegisterEnum("service_type", serviceTypes...)
	_ = middleware.RegisterEnum("fee_kind", string(domain.FeeKindFixed), string(domain.FeeKindPercentage))
	_ = middleware.RegisterEnum("order_status",
		string(domain.OrderStatusPending),
		string(domain.OrderStatusPaid),
		string(domain.OrderStatusProcessing),
		string(domain.OrderStatusCompleted),
	)
	_ = middleware.RegisterEnum("user_role", string(domain.UserRoleAdmin), string(domain.UserRoleUser))
	_ = middleware.RegisterEnum("article_status", string(domain.ArticleStatusDraft), string(domain.ArticleStatusPublished))

	for _, target := range []error{
		domain.ErrInvalidProduct,
		domain.ErrInvalidFeeRule,
		domain.ErrInvalidUser,
		domain.ErrInvalidArticle,
	} {
		errors.RegisterDomainError(target, errors.CodeValidationError, http.StatusBadRequest)
	}
	for _, target := range []error{
		domain.ErrOrderNotFound,
		domain.ErrProductNotFound,
		domain.ErrFeeRuleNotFound,
		domain.ErrUserNotFound,
		domain.ErrArticleNotFound,
		domain.ErrSessionNotFound,
	} {
		errors.RegisterDomainError(target, errors.CodeNotFound, http.StatusNotFound)
	}

	errors.RegisterDomainError(domain.ErrInvalidSelection, errors.CodeInvalidSelection, http.StatusUnprocessableEntity)
	errors.RegisterDomainError(domain.ErrInvalidAmount, errors.CodeInvalidAmount, http.StatusUnprocessableEntity)
	errors.RegisterDomainError(domain.ErrIncompleteOrder, errors.CodeIncompleteOrder, http.StatusUnprocessableEntity)
	errors.RegisterDomainError(domain.ErrLimitReached, errors.CodeLimitReached, http.StatusConflict)
	errors.RegisterDomainError(domain.ErrMinimumRequired, errors.CodeMinimumRequired, http.StatusConflict)
	errors.RegisterDomainError(domain.ErrInvalidStatusTransition, errors.CodeConflict, http.StatusConflict)
	errors.RegisterDomainError(domain.ErrDuplicateEmail, errors.CodeConflict, http.StatusConflict)
	errors.RegisterDomainError(domain.ErrUserInactive, errors.CodeForbidden, http.StatusForbidden)
	errors.RegisterDomainError(domain.ErrOrderIDsExhausted, errors.CodeServiceUnavailable, http.StatusServiceUnavailable)
}

// Services groups the application services served over HTTP
type Services struct {
	Catalog  *application.CatalogService
	Sessions *application.SessionService
	Orders   *application.OrderService
	Users    *application.UserService
	Articles *application.ArticleService
	Stats    *application.StatsService
}

// Handler handles HTTP requests for the marketplace
type Handler struct {
	catalog  *application.CatalogService
	sessions *application.SessionService
	orders   *application.OrderService
	users    *application.UserService
	articles *application.ArticleService
	stats    *application.StatsService
	logger   *logging.Logger
}

// NewHandler creates a new Handler
func NewHandler(services Services, logger *logging.Logger) *Handler {
	return &Handler{
		catalog:  services.Catalog,
		sessions: services.Sessions,
		orders:   services.Orders,
		users:    services.Users,
		articles: services.Articles,
		stats:    services.Stats,
		logger:   logger,
	}
}

// ResolveIdentity maps the X-User-Email header to an active account
func (h *Handler) ResolveIdentity(ctx context.Context, email string) (*middleware.Identity, error) {
	user, err := h.users.Authenticate(ctx, email)
	if err != nil {
		return nil, err
	}
	return &middleware.Identity{
		UserID: user.UserID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   string(user.Role),
	}, nil
}

// CallerScope namespaces idempotency keys per caller
func CallerScope(c *gin.Context) string {
	if identity := middleware.CurrentIdentity(c); identity != nil {
		return identity.Email
	}
	return ""
}

// RegisterRoutes mounts the API under /api/v1. checkoutGuards run on the
// checkout route after authentication.
func (h *Handler) RegisterRoutes(router gin.IRouter, checkoutGuards ...gin.HandlerFunc) {
	api := router.Group("/api/v1")
	api.Use(middleware.UserAuth(middleware.IdentityResolverFunc(h.ResolveIdentity)))

	catalog := api.Group("/catalog")
	{
		catalog.GET("/services", h.ListServiceTypes)
		catalog.GET("/products", h.ListProducts)
		catalog.GET("/products/:productId", h.GetProduct)
		catalog.GET("/locations", h.ListLocations)
	}
	api.GET("/fees", h.ListFeeRules)
	api.POST("/pricing/quote", h.Quote)
	api.GET("/articles", h.ListPublishedArticles)
	api.GET("/articles/:articleId", h.GetPublishedArticle)

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/register", h.Register)
	}

	sessions := api.Group("/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("/:sessionId", h.GetSession)
		sessions.DELETE("/:sessionId", h.AbandonSession)
		sessions.PUT("/:sessionId/service", h.SetServiceType)
		sessions.PUT("/:sessionId/product", h.SetProduct)
		sessions.PUT("/:sessionId/variant", h.SetVariant)
		sessions.PUT("/:sessionId/location", h.SetLocation)
		sessions.POST("/:sessionId/beneficiaries", h.AddBeneficiary)
		sessions.PUT("/:sessionId/beneficiaries/:index", h.SetBeneficiary)
		sessions.DELETE("/:sessionId/beneficiaries/:index", h.RemoveBeneficiary)

		checkout := append([]gin.HandlerFunc{middleware.RequireUser()}, checkoutGuards...)
		sessions.POST("/:sessionId/checkout", append(checkout, h.Checkout)...)
	}

	api.GET("/me", middleware.RequireUser(), h.Me)
	api.GET("/me/orders", middleware.RequireUser(), h.MyOrders)

	admin := api.Group("/admin", middleware.RequireAdmin())
	{
		admin.GET("/stats", h.Stats)

		admin.GET("/orders", h.ListOrders)
		admin.GET("/orders/:orderId", h.GetOrder)
		admin.PUT("/orders/:orderId/status", h.AdvanceOrderStatus)
		admin.PUT("/orders/:orderId/documentation", h.AttachDocumentation)

		admin.GET("/products", h.ListProducts)
		admin.POST("/products", h.CreateProduct)
		admin.GET("/products/:productId", h.GetProduct)
		admin.PUT("/products/:productId", h.UpdateProduct)
		admin.DELETE("/products/:productId", h.DeleteProduct)

		admin.GET("/fees", h.ListFeeRules)
		admin.POST("/fees", h.CreateFeeRule)
		admin.PUT("/fees/:feeId", h.UpdateFeeRule)
		admin.DELETE("/fees/:feeId", h.DeleteFeeRule)

		admin.GET("/users", h.ListUsers)
		admin.POST("/users", h.CreateUser)
		admin.PUT("/users/:userId/active", h.ToggleUserActive)
		admin.GET("/users/:userId/orders", h.UserOrders)

		admin.GET("/articles", h.ListArticles)
		admin.POST("/articles", h.CreateArticle)
		admin.GET("/articles/:articleId", h.GetArticle)
		admin.PUT("/articles/:articleId", h.UpdateArticle)
		admin.PUT("/articles/:articleId/status", h.ToggleArticleStatus)
		admin.DELETE("/articles/:articleId", h.DeleteArticle)
	}
}

func (h *Handler) responder(c *gin.Context) *middleware.ErrorResponder {
	return middleware.NewErrorResponder(c, h.logger.Logger)
}

func optionalQuery(c *gin.Context, key string) *string {
	if v := strings.TrimSpace(c.Query(key)); v != "" {
		return &v
	}
	return nil
}

func queryInt64(c *gin.Context, key string) int64 {
	n, _ := strconv.ParseInt(c.Query(key), 10, 64)
	return n
}
