package app

import (
	"estate-crm/internal/commission"
	"estate-crm/internal/messaging/kafka"
	"estate-crm/internal/partner"
	"estate-crm/internal/rule"
	"estate-crm/internal/sale"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	ruleRepo := rule.NewRepository(gormDB)
	saleRepo := sale.NewRepository(gormDB)
	partnerRepo := partner.NewRepository(gormDB)
	commissionRepo := commission.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(gormDB)

	// --- Services ---
	ruleService := rule.NewService(gormDB, ruleRepo)
	saleService := sale.NewService(gormDB, saleRepo, outboxRepo)
	commissionService := commission.NewService(
		gormDB,
		commissionRepo,
		ruleRepo,
		saleRepo,
		partnerRepo,
		outboxRepo,
	)

	// --- Handlers ---
	ruleHandler := rule.NewHandler(ruleService)
	saleHandler := sale.NewHandler(saleService)
	commissionHandler := commission.NewHandlerWithRedis(commissionService, rdb)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		rule.RegisterRoutes(api, ruleHandler)
		sale.RegisterRoutes(api, saleHandler)
		commission.RegisterRoutes(api, commissionHandler, rdb)
	}

	return nil
}
