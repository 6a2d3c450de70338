package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/middleware"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/services"
)

// CheckoutNotifier re-prices any in-flight checkout session after a cart
// edit. services.CheckoutService satisfies it.
type CheckoutNotifier interface {
	NotifyCartChanged(ctx context.Context, userID string) *services.ServiceError
}

// CartController handles cart reads and edits. Edits are allowed right up to
// submission; every price-relevant change is pushed into the active checkout
// session so the preview never drifts from the cart.
type CartController struct {
	repo     services.CartStore
	checkout CheckoutNotifier
	logger   *zap.Logger
}

func NewCartController(repo services.CartStore, checkout CheckoutNotifier, logger *zap.Logger) *CartController {
	return &CartController{repo: repo, checkout: checkout, logger: logger}
}

// notifyCheckout is best-effort from the cart's point of view: the edit is
// already saved, and the submit path re-checks the subtotal regardless.
func (cc *CartController) notifyCheckout(ctx *gin.Context, userID string) {
	if svcErr := cc.checkout.NotifyCartChanged(ctx.Request.Context(), userID); svcErr != nil {
		cc.logger.Warn("Checkout reprice after cart edit failed",
			zap.String("user_id", userID),
			zap.String("error", svcErr.Message),
		)
	}
}

// GetCart returns the current cart for the authenticated user.
func (cc *CartController) GetCart(ctx *gin.Context) {
	userID := middleware.UserID(ctx)

	cart, err := cc.repo.GetCart(ctx.Request.Context(), userID)
	if err != nil {
		cc.logger.Error("Failed to get cart", zap.String("user_id", userID), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get cart"})
		return
	}
	if cart == nil {
		cart = &models.Cart{UserID: userID, Items: []models.CartItem{}}
	}

	ctx.JSON(http.StatusOK, gin.H{"cart": cart, "subtotal": services.RoundMoney(cart.Subtotal())})
}

// UpdateItem sets the quantity of a line, adding it if absent.
func (cc *CartController) UpdateItem(ctx *gin.Context) {
	userID := middleware.UserID(ctx)

	var req models.UpdateCartItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	cart, err := cc.repo.GetCart(ctx.Request.Context(), userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get cart"})
		return
	}
	if cart == nil {
		cart = &models.Cart{UserID: userID, Items: []models.CartItem{}}
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == req.ProductID && cart.Items[i].VariantID == req.VariantID {
			cart.Items[i].Quantity = req.Quantity
			cart.Items[i].UnitPrice = req.UnitPrice
			cart.Items[i].StockSnapshot = req.StockSnapshot
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID:     req.ProductID,
			VariantID:     req.VariantID,
			Name:          req.Name,
			UnitPrice:     req.UnitPrice,
			Quantity:      req.Quantity,
			StockSnapshot: req.StockSnapshot,
		})
	}

	if err := cc.repo.SaveCart(ctx.Request.Context(), cart); err != nil {
		cc.logger.Error("Failed to save cart", zap.String("user_id", userID), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save cart"})
		return
	}
	cc.notifyCheckout(ctx, userID)

	ctx.JSON(http.StatusOK, gin.H{"cart": cart, "subtotal": services.RoundMoney(cart.Subtotal())})
}

// RemoveItem deletes a line from the cart.
func (cc *CartController) RemoveItem(ctx *gin.Context) {
	userID := middleware.UserID(ctx)
	productID := ctx.Param("productId")
	variantID := ctx.Query("variant_id")

	cart, err := cc.repo.GetCart(ctx.Request.Context(), userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get cart"})
		return
	}
	if cart == nil || cart.IsEmpty() {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Cart is empty"})
		return
	}

	items := cart.Items[:0]
	removed := false
	for _, item := range cart.Items {
		if item.ProductID == productID && (variantID == "" || item.VariantID == variantID) {
			removed = true
			continue
		}
		items = append(items, item)
	}
	if !removed {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Item not in cart"})
		return
	}
	cart.Items = items

	if err := cc.repo.SaveCart(ctx.Request.Context(), cart); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save cart"})
		return
	}
	cc.notifyCheckout(ctx, userID)

	ctx.JSON(http.StatusOK, gin.H{"cart": cart, "subtotal": services.RoundMoney(cart.Subtotal())})
}
