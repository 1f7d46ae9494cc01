package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/whoyoshome/mini-productos/internal/config"
	"github.com/whoyoshome/mini-productos/internal/http/handlers"
	"github.com/whoyoshome/mini-productos/internal/http/middleware"
	"go.uber.org/zap"
)

// multipart framing allowance on top of the file size limit
const uploadOverhead = 1 << 20

type Router struct {
	productHandler *handlers.ProductHandler
	imageHandler   *handlers.ImageHandler
	healthHandler  *handlers.HealthHandler
	config         *config.Config
	logger         *zap.Logger
}

func NewRouter(
	productHandler *handlers.ProductHandler,
	imageHandler *handlers.ImageHandler,
	healthHandler *handlers.HealthHandler,
	config *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		productHandler: productHandler,
		imageHandler:   imageHandler,
		healthHandler:  healthHandler,
		config:         config,
		logger:         logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	if r.config.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS(r.config.Server.CORSOrigins))
	router.Use(middleware.SecurityHeaders(r.config.Server.IsProduction()))

	api := router.Group("/api")
	{
		api.GET("/health", r.healthHandler.HealthCheck)
		api.GET("/image", r.imageHandler.ProxyImage)
		api.POST("/uploads",
			middleware.RequireContentType("multipart/form-data"),
			middleware.LimitBody(r.config.Storage.MaxFileSize+uploadOverhead),
			r.imageHandler.Upload,
		)

		products := api.Group("/products")
		{
			products.GET("", r.productHandler.ListProducts)
			products.POST("", r.productHandler.CreateProduct)
			products.PATCH("", r.productHandler.UpdateProduct)
			products.DELETE("", r.productHandler.DeleteProduct)

			products.GET("/:id", r.productHandler.GetProduct)
			products.PATCH("/:id", r.productHandler.UpdateProduct)
			products.DELETE("/:id", r.productHandler.DeleteProduct)
			products.GET("/:id/image-status", r.productHandler.ImageStatus)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Product catalog is running",
		})
	})

	return router
}
