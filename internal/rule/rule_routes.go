package rule

import (
	"estate-crm/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	rules := r.Group("/commission-rules")
	rules.Use(middleware.AuthMiddleware(), middleware.ExtractUserID())
	{
		rules.GET("",
			middleware.RateLimitByUser(1, 5),
			handler.GetAll,
		)
		rules.GET("/:id",
			middleware.RateLimitByUser(2, 5),
			handler.GetById,
		)
		rules.POST("",
			middleware.RateLimitByUser(0.1, 1),
			handler.Create,
		)
		rules.POST("/validate",
			middleware.RateLimitByUser(0.5, 2),
			handler.Validate,
		)
	}
}
