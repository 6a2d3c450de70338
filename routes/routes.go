package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/controllers"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/middleware"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
)

// RegisterRoutes wires all HTTP routes. The Stripe webhook stays outside the
// auth group: it is authenticated by signature, not by user identity.
func RegisterRoutes(
	r *gin.Engine,
	jwtSecret string,
	cart *controllers.CartController,
	checkout *controllers.CheckoutController,
	orders *controllers.OrderController,
	payments *controllers.PaymentController,
) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		models.RegisterValidations(v)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/payments/webhook", payments.StripeWebhook)

	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(jwtSecret))

	cartRoutes := auth.Group("/cart")
	{
		cartRoutes.GET("/", cart.GetCart)
		cartRoutes.PUT("/items", cart.UpdateItem)
		cartRoutes.DELETE("/items/:productId", cart.RemoveItem)
	}

	checkoutRoutes := auth.Group("/checkout")
	{
		checkoutRoutes.GET("/addresses", checkout.ListAddresses)
		checkoutRoutes.POST("/sessions", checkout.CreateSession)
		checkoutRoutes.GET("/sessions/:id", checkout.GetSession)
		checkoutRoutes.DELETE("/sessions/:id", checkout.Abandon)
		checkoutRoutes.PUT("/sessions/:id/address", checkout.SelectAddress)
		checkoutRoutes.POST("/sessions/:id/coupon", checkout.ApplyCoupon)
		checkoutRoutes.DELETE("/sessions/:id/coupon", checkout.RemoveCoupon)
		checkoutRoutes.POST("/sessions/:id/submit", checkout.Submit)
		checkoutRoutes.GET("/sessions/:id/payment/result", checkout.PaymentResult)
		checkoutRoutes.POST("/sessions/:id/payment/confirm", payments.ConfirmPayment)
		checkoutRoutes.POST("/sessions/:id/payment/fail", payments.FailPayment)
	}

	orderRoutes := auth.Group("/orders")
	{
		orderRoutes.GET("/:id", orders.GetOrder)
		orderRoutes.GET("/:id/actions", orders.GetAllowedActions)
		orderRoutes.PUT("/:id/cancel", orders.CancelOrder)
		orderRoutes.POST("/:id/exchange", orders.RequestExchange)
	}
}
