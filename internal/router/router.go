package router

import (
	"time"

	"pharmapos/internal/config"
	"pharmapos/internal/handler"
	"pharmapos/internal/middleware"
	"pharmapos/internal/repository"
	"pharmapos/internal/service"
	"pharmapos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	lotRepo := repository.NewPurchaseLotRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)

	// Worker dispatcher — enqueues low-stock alerts for async handling
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	productSvc := service.NewProductService(productRepo, lotRepo)
	saleSvc := service.NewSaleService(saleRepo, productRepo, lotRepo, movementRepo, dispatcher, cfg.LowStockThreshold)
	inventorySvc := service.NewInventoryService(lotRepo, productRepo, movementRepo, cfg.LowStockThreshold)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Sales — any authenticated operator
		v1.POST("/sales", middleware.RequireRole("operator", "admin"), salesH.RecordSale)
		v1.POST("/sales/batch", middleware.RequireRole("operator", "admin"), salesH.RecordBatch)
		v1.GET("/sales", middleware.RequireRole("operator", "admin"), salesH.ListSales)
		v1.DELETE("/sales/:id", middleware.RequireRole("admin"), salesH.DeleteSale)

		// Products — all authenticated can read, admin writes
		v1.GET("/products", middleware.RequireRole("operator", "admin"), productsH.List)
		v1.GET("/products/:id", middleware.RequireRole("operator", "admin"), productsH.GetByID)
		prods := v1.Group("/products", middleware.RequireRole("admin"))
		{
			prods.POST("", productsH.Create)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Deactivate)
			prods.PATCH("/:id/reactivate", productsH.Reactivate)
		}

		inv := v1.Group("/inventory")
		{
			inv.PATCH("/lots/:id", middleware.RequireRole("admin"), inventoryH.AdjustLot)
			inv.GET("/low-stock", middleware.RequireRole("operator", "admin"), inventoryH.ListLowStock)
			inv.GET("/movements", middleware.RequireRole("operator", "admin"), inventoryH.ListMovements)
		}

		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", authH.CreateUser)
			users.GET("", authH.ListUsers)
			users.PUT("/:id", authH.UpdateUser)
			users.DELETE("/:id", authH.DeactivateUser)
			users.PATCH("/:id/reactivate", authH.ReactivateUser)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
