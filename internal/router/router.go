// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/assetgrid/itam-backend/internal/config"
	"github.com/assetgrid/itam-backend/internal/handlers"
	"github.com/assetgrid/itam-backend/internal/middleware"
	"github.com/assetgrid/itam-backend/internal/services"
	"github.com/assetgrid/itam-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services. All write paths share one lock registry so that
	// pool and asset serialization holds across services.
	locks := utils.NewKeyedMutex()
	storageService, _ := services.NewStorageService(cfg)
	catalogService := services.NewCatalogService(db, time.Duration(cfg.Catalog.CacheTTL)*time.Second)
	poolService := services.NewLicensePoolService(db, locks)
	assetService := services.NewAssetService(db, catalogService, locks, cfg.Policy)
	installationService := services.NewInstallationService(db, catalogService, poolService, locks)
	lifecycleService := services.NewLifecycleService(db, locks, storageService, nil, cfg.Labels)

	// Initialize handlers
	assetHandler := handlers.NewAssetHandler(assetService, lifecycleService)
	installationHandler := handlers.NewInstallationHandler(installationService)
	poolHandler := handlers.NewLicensePoolHandler(poolService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	labelHandler := handlers.NewLabelHandler(lifecycleService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	v1.Use(middleware.AuthRequired())
	{
		// Asset routes
		assets := v1.Group("/assets")
		{
			assets.GET("", assetHandler.GetAssets)
			assets.GET("/:id", assetHandler.GetAsset)
			assets.GET("/:id/components", assetHandler.GetAssetComponents)
			assets.GET("/:id/software-installations", installationHandler.GetAssetInstallations)

			mutating := assets.Group("")
			mutating.Use(middleware.TechnicianRequired())
			{
				mutating.POST("", assetHandler.CreateAsset)
				mutating.PATCH("/:id", assetHandler.UpdateAsset)
				mutating.DELETE("/:id", assetHandler.DeleteAsset)
				mutating.POST("/:id/assign", assetHandler.AssignAsset)
				mutating.POST("/:id/unassign", assetHandler.UnassignAsset)
				mutating.POST("/:id/status", assetHandler.ChangeAssetStatus)
				mutating.POST("/:id/restore", assetHandler.RestoreAsset)
				mutating.POST("/:id/software-installations", installationHandler.AddInstallation)
			}
		}

		// Software installation routes
		installations := v1.Group("/software-installations")
		{
			installations.GET("/:id", installationHandler.GetInstallation)

			mutating := installations.Group("")
			mutating.Use(middleware.TechnicianRequired())
			{
				mutating.PATCH("/:id", installationHandler.UpdateInstallation)
				mutating.DELETE("/:id", installationHandler.RemoveInstallation)
			}
		}

		// License pool routes
		pools := v1.Group("/license-pools")
		{
			pools.GET("", poolHandler.GetLicensePools)
			pools.GET("/:id", poolHandler.GetLicensePool)
			pools.GET("/:id/availability", poolHandler.GetAvailability)

			mutating := pools.Group("")
			mutating.Use(middleware.TechnicianRequired())
			{
				mutating.POST("", poolHandler.CreateLicensePool)
				mutating.PATCH("/:id", poolHandler.UpdateLicensePool)
			}
		}

		// Label routes
		labels := v1.Group("/labels")
		labels.Use(middleware.TechnicianRequired())
		{
			labels.POST("/bulk", middleware.BulkRateLimit(), labelHandler.GenerateLabels)
		}

		// Catalog routes. Reads are open to any authenticated role; writes
		// are an admin concern.
		v1.GET("/products", catalogHandler.GetProducts)
		v1.GET("/products/:id", catalogHandler.GetProduct)
		v1.POST("/products", middleware.AdminRequired(), catalogHandler.CreateProduct)
		v1.PATCH("/products/:id", middleware.AdminRequired(), catalogHandler.UpdateProduct)
		v1.GET("/vendors", catalogHandler.GetVendors)
		v1.POST("/vendors", middleware.AdminRequired(), catalogHandler.CreateVendor)
		v1.GET("/locations", catalogHandler.GetLocations)
		v1.POST("/locations", middleware.AdminRequired(), catalogHandler.CreateLocation)
		v1.GET("/directory-users", catalogHandler.GetDirectoryUsers)
		v1.POST("/directory-users", middleware.AdminRequired(), catalogHandler.CreateDirectoryUser)

		// Maintenance routes
		maintenance := v1.Group("/maintenance")
		maintenance.Use(middleware.AdminRequired())
		{
			maintenance.POST("/release-expired-holds", labelHandler.ReleaseExpiredHolds)
		}
	}

	return r
}
