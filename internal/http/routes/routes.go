package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-resizer-bridge/internal/http/handlers"
	"github.com/phambaophuc/image-resizer-bridge/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	bridgeHandler *handlers.BridgeHandler
	logger        *zap.Logger
}

func NewRouter(
	bridgeHandler *handlers.BridgeHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		bridgeHandler: bridgeHandler,
		logger:        logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.bridgeHandler.HealthCheck)
		v1.GET("/stats", r.bridgeHandler.GetStats)

		v1.POST("/bridge/:action", middleware.ValidateContentType(), r.bridgeHandler.Call)

		jobs := v1.Group("/jobs")
		{
			jobs.POST("/resize", middleware.ValidateContentType(), r.bridgeHandler.SubmitResizeJob)
			jobs.GET("/:id", r.bridgeHandler.GetJob)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Image resizer bridge is running",
		})
	})

	return router
}
