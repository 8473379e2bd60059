package sale

import (
	"estate-crm/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	sales := r.Group("/sales")
	sales.Use(middleware.AuthMiddleware(), middleware.ExtractUserID())
	{
		sales.GET("/:id",
			middleware.RateLimitByUser(2, 5),
			handler.GetById,
		)
		sales.PATCH("/:id",
			middleware.RateLimitByUser(0.2, 1),
			handler.Update,
		)
	}
}
