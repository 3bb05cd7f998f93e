package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rezahawari/qurban-marketplace/pkg/errors"
	"github.com/rezahawari/qurban-marketplace/pkg/logging"
)

// HeaderUserEmail carries the email of the logged-in user
const HeaderUserEmail = "X-User-Email"

const contextKeyIdentity = "identity"

// RoleAdmin is the role allowed through RequireAdmin
const RoleAdmin = "admin"

// Identity is the authenticated caller attached to a request
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   string
}

// IsAdmin reports whether the caller holds the admin role
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// IdentityResolver looks up the caller behind an email header
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, email string) (*Identity, error)
}

// IdentityResolverFunc adapts a function to IdentityResolver
type IdentityResolverFunc func(ctx context.Context, email string) (*Identity, error)

// ResolveIdentity calls f
func (f IdentityResolverFunc) ResolveIdentity(ctx context.Context, email string) (*Identity, error) {
	return f(ctx, email)
}

// UserAuth resolves the X-User-Email header into an Identity. Requests
// without the header pass through anonymously; an unknown email is 401 and
// a deactivated account is whatever the resolver's error maps to.
func UserAuth(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.GetHeader(HeaderUserEmail))
		if email == "" {
			c.Next()
			return
		}

		identity, err := resolver.ResolveIdentity(c.Request.Context(), email)
		if err != nil {
			appErr := errors.MapDomainError(err)
			if appErr.HTTPStatus == http.StatusNotFound {
				appErr = errors.ErrUnauthorized("unknown user").Wrap(err)
			}
			AbortWithAppError(c, appErr)
			return
		}
		if identity == nil {
			AbortWithAppError(c, errors.ErrUnauthorized("unknown user"))
			return
		}

		c.Set(contextKeyIdentity, identity)
		c.Request = c.Request.WithContext(logging.ContextWithUserEmail(c.Request.Context(), identity.Email))

		c.Next()
	}
}

// CurrentIdentity returns the caller resolved by UserAuth, or nil
func CurrentIdentity(c *gin.Context) *Identity {
	if val, exists := c.Get(contextKeyIdentity); exists {
		if identity, ok := val.(*Identity); ok {
			return identity
		}
	}
	return nil
}

// RequireUser rejects anonymous requests
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentIdentity(c) == nil {
			AbortWithAppError(c, errors.ErrUnauthorized("login required"))
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects anonymous and non-admin requests
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := CurrentIdentity(c)
		switch {
		case identity == nil:
			AbortWithAppError(c, errors.ErrUnauthorized("login required"))
			return
		case !identity.IsAdmin():
			AbortWithAppError(c, errors.ErrForbidden("admin role required"))
			return
		}
		c.Next()
	}
}
