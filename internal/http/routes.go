package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/arshitcc/rablo-api/internal/domain"
)

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Observe())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")

	api.GET("/healthcheck", h.Healthz)

	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.RateLimit(), h.Signup)
		auth.POST("/login", h.RateLimit(), h.Login)
		auth.POST("/logout", h.Authenticate(), h.Logout)
		auth.POST("/refresh", h.Refresh)
		auth.GET("/verify-email", h.VerifyEmail)
		auth.POST("/forgot-password", h.RateLimit(), h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
		auth.POST("/change-password", h.Authenticate(), h.ChangePassword)
		auth.GET("/me", h.Authenticate(), h.Me)
		auth.GET("/google", h.GoogleRedirect)
		auth.GET("/google/callback", h.GoogleCallback)
	}

	// catalog routes: explicit allow-lists per operation
	products := api.Group("/products", h.Authenticate())
	{
		products.POST("", RequireRole(domain.RoleAdmin), h.AddProduct)
		products.GET("", RequireRole(domain.RoleAdmin, domain.RoleUser), h.ListProducts)
		products.GET("/featured", RequireRole(domain.RoleAdmin, domain.RoleUser), h.FeaturedProducts)
		products.GET("/price", RequireRole(domain.RoleAdmin, domain.RoleUser), h.ProductsByPrice)
		products.GET("/rating", RequireRole(domain.RoleAdmin, domain.RoleUser), h.ProductsByRating)
		products.PUT("/:productId", RequireRole(domain.RoleAdmin), h.UpdateProduct)
		products.DELETE("/:productId", RequireRole(domain.RoleAdmin), h.DeleteProduct)
	}

	return r
}
