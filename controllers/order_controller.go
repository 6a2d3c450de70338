package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/middleware"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/services"
)

// OrderController exposes post-purchase order actions.
type OrderController struct {
	orderService services.OrderService
}

func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// GetOrder handles GET /orders/:id. The response includes the actions the
// order's current state permits so the client never offers a dead button.
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	userID := middleware.UserID(ctx)
	orderID := ctx.Param("id")

	order, svcErr := oc.orderService.GetOrder(ctx.Request.Context(), userID, orderID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"order":           order,
		"allowed_actions": oc.orderService.AllowedActions(order, time.Now()),
	})
}

// GetAllowedActions handles GET /orders/:id/actions.
func (oc *OrderController) GetAllowedActions(ctx *gin.Context) {
	userID := middleware.UserID(ctx)
	orderID := ctx.Param("id")

	order, svcErr := oc.orderService.GetOrder(ctx.Request.Context(), userID, orderID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"allowed_actions": oc.orderService.AllowedActions(order, time.Now()),
	})
}

// CancelOrder handles PUT /orders/:id/cancel.
func (oc *OrderController) CancelOrder(ctx *gin.Context) {
	userID := middleware.UserID(ctx)
	orderID := ctx.Param("id")

	order, svcErr := oc.orderService.CancelOrder(ctx.Request.Context(), userID, orderID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"order":           order,
		"allowed_actions": oc.orderService.AllowedActions(order, time.Now()),
	})
}

// RequestExchange handles POST /orders/:id/exchange.
func (oc *OrderController) RequestExchange(ctx *gin.Context) {
	userID := middleware.UserID(ctx)
	orderID := ctx.Param("id")

	var req models.ExchangeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	req.OrderID = orderID

	if svcErr := oc.orderService.RequestExchange(ctx.Request.Context(), userID, orderID, &req); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{"message": "Exchange request submitted"})
}
