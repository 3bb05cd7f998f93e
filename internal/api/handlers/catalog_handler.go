package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rezahawari/qurban-marketplace/internal/application"
	"github.com/rezahawari/qurban-marketplace/pkg/middleware"
)

// ListServiceTypes handles GET /api/v1/catalog/services
func (h *Handler) ListServiceTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.catalog.ServiceTypes()})
}

// ListProducts handles GET /api/v1/catalog/products
func (h *Handler) ListProducts(c *gin.Context) {
	result, err := h.catalog.ListProducts(c.Request.Context(), optionalQuery(c, "serviceType"))
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetProduct handles GET /api/v1/catalog/products/:productId
func (h *Handler) GetProduct(c *gin.Context) {
	result, err := h.catalog.GetProduct(c.Request.Context(), c.Param("productId"))
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ListLocations handles GET /api/v1/catalog/locations
func (h *Handler) ListLocations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.catalog.ListLocations()})
}

// ListFeeRules handles GET /api/v1/fees
func (h *Handler) ListFeeRules(c *gin.Context) {
	result, err := h.catalog.ListFeeRules(c.Request.Context())
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// Quote handles POST /api/v1/pricing/quote
func (h *Handler) Quote(c *gin.Context) {
	responder := h.responder(c)

	var cmd application.QuoteCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"product.id":  cmd.ProductID,
		"location.id": cmd.LocationID,
	})

	result, err := h.catalog.Quote(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// CreateProduct handles POST /api/v1/admin/products
func (h *Handler) CreateProduct(c *gin.Context) {
	responder := h.responder(c)

	var cmd application.ProductCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.catalog.CreateProduct(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// UpdateProduct handles PUT /api/v1/admin/products/:productId
func (h *Handler) UpdateProduct(c *gin.Context) {
	responder := h.responder(c)

	var cmd application.ProductCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.catalog.UpdateProduct(c.Request.Context(), c.Param("productId"), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// DeleteProduct handles DELETE /api/v1/admin/products/:productId
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("productId")); err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateFeeRule handles POST /api/v1/admin/fees
func (h *Handler) CreateFeeRule(c *gin.Context) {
	responder := h.responder(c)

	var cmd application.FeeRuleCommand
	if c.Request.ContentLength > 0 {
		if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}
	}

	result, err := h.catalog.CreateFeeRule(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// UpdateFeeRule handles PUT /api/v1/admin/fees/:feeId
func (h *Handler) UpdateFeeRule(c *gin.Context) {
	responder := h.responder(c)

	var cmd application.FeeRuleCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.catalog.UpdateFeeRule(c.Request.Context(), c.Param("feeId"), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// DeleteFeeRule handles DELETE /api/v1/admin/fees/:feeId
func (h *Handler) DeleteFeeRule(c *gin.Context) {
	if err := h.catalog.DeleteFeeRule(c.Request.Context(), c.Param("feeId")); err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.Status(http.StatusNoContent)
}
