package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rezahawari/qurban-marketplace/internal/application"
	"github.com/rezahawari/qurban-marketplace/internal/domain"
	"github.com/rezahawari/qurban-marketplace/pkg/middleware"
)

// CreateSession handles POST /api/v1/sessions
func (h *Handler) CreateSession(c *gin.Context) {
	result, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// GetSession handles GET /api/v1/sessions/:sessionId
func (h *Handler) GetSession(c *gin.Context) {
	result, err := h.sessions.Get(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// AbandonSession handles DELETE /api/v1/sessions/:sessionId
func (h *Handler) AbandonSession(c *gin.Context) {
	if err := h.sessions.Abandon(c.Request.Context(), c.Param("sessionId")); err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetServiceType handles PUT /api/v1/sessions/:sessionId/service
func (h *Handler) SetServiceType(c *gin.Context) {
	var cmd application.SetServiceTypeCommand
	if !h.bind(c, &cmd) {
		return
	}
	h.respondSession(c)(h.sessions.SetServiceType(c.Request.Context(), c.Param("sessionId"), cmd))
}

// SetProduct handles PUT /api/v1/sessions/:sessionId/product
func (h *Handler) SetProduct(c *gin.Context) {
	var cmd application.SetProductCommand
	if !h.bind(c, &cmd) {
		return
	}
	h.respondSession(c)(h.sessions.SetProduct(c.Request.Context(), c.Param("sessionId"), cmd))
}

// SetVariant handles PUT /api/v1/sessions/:sessionId/variant
func (h *Handler) SetVariant(c *gin.Context) {
	var cmd application.SetVariantCommand
	if !h.bind(c, &cmd) {
		return
	}
	h.respondSession(c)(h.sessions.SetVariant(c.Request.Context(), c.Param("sessionId"), cmd))
}

// SetLocation handles PUT /api/v1/sessions/:sessionId/location
func (h *Handler) SetLocation(c *gin.Context) {
	var cmd application.SetLocationCommand
	if !h.bind(c, &cmd) {
		return
	}
	h.respondSession(c)(h.sessions.SetLocation(c.Request.Context(), c.Param("sessionId"), cmd))
}

// AddBeneficiary handles POST /api/v1/sessions/:sessionId/beneficiaries
func (h *Handler) AddBeneficiary(c *gin.Context) {
	h.respondSession(c)(h.sessions.AddBeneficiary(c.Request.Context(), c.Param("sessionId")))
}

// SetBeneficiary handles PUT /api/v1/sessions/:sessionId/beneficiaries/:index
func (h *Handler) SetBeneficiary(c *gin.Context) {
	index, ok := h.beneficiaryIndex(c)
	if !ok {
		return
	}
	var cmd application.SetBeneficiaryCommand
	if !h.bind(c, &cmd) {
		return
	}
	h.respondSession(c)(h.sessions.SetBeneficiary(c.Request.Context(), c.Param("sessionId"), index, cmd))
}

// RemoveBeneficiary handles DELETE /api/v1/sessions/:sessionId/beneficiaries/:index
func (h *Handler) RemoveBeneficiary(c *gin.Context) {
	index, ok := h.beneficiaryIndex(c)
	if !ok {
		return
	}
	h.respondSession(c)(h.sessions.RemoveBeneficiary(c.Request.Context(), c.Param("sessionId"), index))
}

// Checkout handles POST /api/v1/sessions/:sessionId/checkout
func (h *Handler) Checkout(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		h.responder(c).RespondUnauthorized("login required")
		return
	}

	sessionID := c.Param("sessionId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"session.id":     sessionID,
		"customer.email": identity.Email,
	})

	customer := &domain.Customer{Name: identity.Name, Email: identity.Email}
	result, err := h.sessions.Checkout(c.Request.Context(), sessionID, customer)
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (h *Handler) bind(c *gin.Context, cmd any) bool {
	if appErr := middleware.BindAndValidate(c, cmd); appErr != nil {
		h.responder(c).RespondWithAppError(appErr)
		return false
	}
	return true
}

func (h *Handler) beneficiaryIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.responder(c).RespondBadRequest("beneficiary index must be an integer")
		return 0, false
	}
	return index, true
}

func (h *Handler) respondSession(c *gin.Context) func(*application.SessionDTO, error) {
	return func(result *application.SessionDTO, err error) {
		if err != nil {
			h.responder(c).RespondWithError(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": result})
	}
}
