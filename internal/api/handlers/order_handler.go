package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rezahawari/qurban-marketplace/internal/application"
	"github.com/rezahawari/qurban-marketplace/pkg/middleware"
)

// orderPath is the :orderId path parameter
type orderPath struct {
	OrderID string `uri:"orderId" json:"orderId" binding:"required,order_id"`
}

// bindOrderID reads a well-formed order ID from the path, responding 400
// when it is not one
func (h *Handler) bindOrderID(c *gin.Context) (string, bool) {
	var path orderPath
	if appErr := middleware.BindURI(c, &path); appErr != nil {
		h.responder(c).RespondWithAppError(appErr)
		return "", false
	}
	return path.OrderID, true
}

// documentationRequest accepts photos as a list or as the comma separated
// photosText the admin form submits
type documentationRequest struct {
	application.AttachDocumentationCommand
	PhotosText string `json:"photosText"`
}

func (r documentationRequest) command() application.AttachDocumentationCommand {
	cmd := r.AttachDocumentationCommand
	if r.PhotosText != "" {
		for _, photo := range strings.Split(r.PhotosText, ",") {
			if photo = strings.TrimSpace(photo); photo != "" {
				cmd.Photos = append(cmd.Photos, photo)
			}
		}
	}
	return cmd
}

// MyOrders handles GET /api/v1/me/orders
func (h *Handler) MyOrders(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)

	result, err := h.orders.ListCustomerOrders(c.Request.Context(), identity.Email)
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ListOrders handles GET /api/v1/admin/orders
func (h *Handler) ListOrders(c *gin.Context) {
	query := application.ListOrdersQuery{
		Status:        optionalQuery(c, "status"),
		CustomerEmail: optionalQuery(c, "email"),
		ServiceType:   optionalQuery(c, "serviceType"),
		Page:          queryInt64(c, "page"),
		PageSize:      queryInt64(c, "pageSize"),
	}

	result, err := h.orders.ListOrders(c.Request.Context(), query)
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetOrder handles GET /api/v1/admin/orders/:orderId
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := h.bindOrderID(c)
	if !ok {
		return
	}

	result, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// AdvanceOrderStatus handles PUT /api/v1/admin/orders/:orderId/status
func (h *Handler) AdvanceOrderStatus(c *gin.Context) {
	responder := h.responder(c)
	orderID, ok := h.bindOrderID(c)
	if !ok {
		return
	}

	var cmd application.AdvanceStatusCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"order.id":     orderID,
		"order.status": cmd.Status,
	})

	result, err := h.orders.AdvanceStatus(c.Request.Context(), orderID, cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// AttachDocumentation handles PUT /api/v1/admin/orders/:orderId/documentation
func (h *Handler) AttachDocumentation(c *gin.Context) {
	responder := h.responder(c)
	orderID, ok := h.bindOrderID(c)
	if !ok {
		return
	}

	var req documentationRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"order.id": orderID,
	})

	result, err := h.orders.AttachDocumentation(c.Request.Context(), orderID, req.command())
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// Stats handles GET /api/v1/admin/stats
func (h *Handler) Stats(c *gin.Context) {
	result, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
