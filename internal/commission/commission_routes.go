package commission

import (
	"estate-crm/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb *redis.Client) {
	commissions := r.Group("/commissions")
	commissions.Use(middleware.AuthMiddleware(), middleware.ExtractUserID())
	{
		commissions.GET("",
			middleware.RateLimitByUser(1, 5),
			handler.GetAll,
		)
		commissions.GET("/:id",
			middleware.RateLimitByUser(2, 5),
			handler.GetById,
		)
		commissions.POST("",
			middleware.RateLimitByUser(0.5, 2),
			middleware.IdempotencyMiddleware(rdb),
			handler.Create,
		)
		commissions.POST("/:id/approve",
			middleware.RateLimitByUser(0.5, 2),
			handler.Approve,
		)
		commissions.POST("/:id/reject",
			middleware.RateLimitByUser(0.5, 2),
			handler.Reject,
		)
		commissions.POST("/:id/payments",
			middleware.RateLimitByUser(0.5, 2),
			middleware.IdempotencyMiddleware(rdb),
			handler.RecordPayment,
		)
		commissions.POST("/:id/clawback",
			middleware.RateLimitByUser(0.2, 1),
			handler.Clawback,
		)
		commissions.POST("/:id/recalculate",
			middleware.RateLimitByUser(0.2, 1),
			handler.Recalculate,
		)
		commissions.POST("/bulk-approve",
			middleware.RateLimitByUser(0.1, 1),
			middleware.IdempotencyMiddleware(rdb),
			handler.BulkApprove,
		)
		commissions.POST("/bulk-payments",
			middleware.RateLimitByUser(0.1, 1),
			middleware.IdempotencyMiddleware(rdb),
			handler.BulkRecordPayments,
		)
	}

	// Mounted under /sales so the path names the aggregate being acted on.
	sales := r.Group("/sales")
	sales.Use(middleware.AuthMiddleware(), middleware.ExtractUserID())
	{
		sales.POST("/:id/recalculate-commissions",
			middleware.RateLimitByUser(0.2, 1),
			handler.RecalculateForSale,
		)
	}
}
