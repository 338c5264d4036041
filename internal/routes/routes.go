package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"unimerch_back_end/internal/handlers"
	"unimerch_back_end/internal/handlers/admin"
	"unimerch_back_end/internal/handlers/product"
	"unimerch_back_end/internal/handlers/user"
	"unimerch_back_end/internal/middleware"
	"unimerch_back_end/internal/models"
	"unimerch_back_end/internal/permissions"
)

// Deps carries what the routes need. Redis may be nil, which disables
// rate limiting.
type Deps struct {
	JWTSecret   string
	Revocations middleware.Revocations
	Gate        middleware.Authorizer
	Redis       *redis.Client

	Auth     *handlers.AuthHandler
	Payments *handlers.PaymentHandler
	Products *product.Handler
	Orders   *user.OrderHandler
	Admin    *admin.OrderHandler
	Users    *admin.UserHandler

	Health func(c *gin.Context)
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	auth := middleware.AuthRequired(d.JWTSecret, d.Revocations)
	optional := middleware.OptionalAuth(d.JWTSecret, d.Revocations)

	if d.Health != nil {
		r.GET("/health", d.Health)
	}
	r.POST("/api/payments/webhook", d.Payments.StripeWebhook)

	api := r.Group("/api")
	if d.Redis != nil {
		api.Use(middleware.APIRateLimit(d.Redis))
	}

	// Auth
	api.GET("/auth/:provider", d.Auth.BeginAuth)
	api.GET("/auth/:provider/callback", d.Auth.CallbackAuth)
	api.POST("/auth/logout", auth, d.Auth.Logout)
	api.GET("/me", auth, d.Auth.Me)

	// Storefront
	api.GET("/products", optional, d.Products.ListProducts)
	api.GET("/products/search", d.Products.Search)
	api.GET("/products/:id", optional, d.Products.GetProduct)

	// Customer orders
	orders := api.Group("/orders", auth)
	checkout := []gin.HandlerFunc{d.Orders.Checkout}
	if d.Redis != nil {
		checkout = append([]gin.HandlerFunc{middleware.CheckoutRateLimit(d.Redis)}, checkout...)
	}
	orders.POST("", checkout...)
	orders.GET("", d.Orders.ListOrders)
	orders.GET("/:id", d.Orders.GetOrder)
	orders.GET("/:id/ws", d.Orders.OrderWebSocket)
	orders.PATCH("/:id/items/:itemId/note", d.Orders.UpdateItemNote)
	orders.GET("/:id/survey", d.Orders.GetSurvey)
	orders.POST("/:id/survey", d.Orders.SubmitSurvey)

	// Back office. Capabilities are checked by the services.
	adm := api.Group("/admin", auth)

	adm.GET("/orders", d.Admin.ListOrders)
	adm.GET("/orders/:id", d.Admin.GetOrder)
	adm.GET("/orders/:id/ws", d.Admin.OrderWebSocket)
	adm.PATCH("/orders/:id/status", d.Admin.UpdateStatus)
	adm.PATCH("/orders/:id/payment-status", d.Admin.UpdatePaymentStatus)
	adm.GET("/dashboard", d.Admin.Dashboard)

	adm.GET("/survey-categories", d.Admin.ListSurveyCategories)
	adm.POST("/survey-categories", d.Admin.CreateSurveyCategory)
	adm.DELETE("/survey-categories/:id", d.Admin.DeleteSurveyCategory)

	adm.POST("/products", d.Products.CreateProduct)
	adm.POST("/products/:id/variants", d.Products.CreateVariant)
	adm.POST("/products/:id/images", d.Products.UploadImage)
	adm.PUT("/variants/:id", d.Products.UpdateVariant)
	adm.DELETE("/variants/:id", d.Products.DeleteVariant)

	adm.GET("/users/:id", d.Users.GetCustomer)
	adm.PATCH("/users/:id/profile", d.Users.UpdateProfile)
	adm.POST("/users/:id/roles", d.Users.GrantRole)
	adm.DELETE("/users/:id/roles/:role", d.Users.RevokeRole)
	adm.GET("/staff-roles", d.Users.ListStaffRoles)
	adm.GET("/roles", middleware.RequireCapability(d.Gate, models.ActionRoleView, permissions.UsersRead), d.Users.RoleCatalog)
	adm.GET("/audit", d.Users.AuditTrail)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "route not found"})
	})
}
