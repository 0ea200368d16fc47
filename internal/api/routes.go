package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pulsefit/coach-app/internal/service"
)

// SetupRoutes wires the methodology endpoints. Gin keeps one routing tree
// per HTTP method and rejects a static segment alongside a named parameter
// in the same position, so userId/methodologyId scoped GETs sit behind a
// static verb segment.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	recommendationService service.RecommendationService,
	methodologyService service.MethodologyService,
	progressService service.ProgressService,
) {
	methodologyHandler := NewMethodologyHandler(recommendationService, methodologyService, progressService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		methodologyGroup := protected.Group("/methodology")
		{
			methodologyGroup.POST("/recommend", methodologyHandler.Recommend)
			methodologyGroup.POST("", methodologyHandler.CreateSelection)
			methodologyGroup.PATCH("/:id", methodologyHandler.UpdateSelection)

			methodologyGroup.GET("/active/:userId", methodologyHandler.GetActive)
			methodologyGroup.GET("/history/:userId", methodologyHandler.History)
			methodologyGroup.GET("/stats/:userId", methodologyHandler.Stats)

			methodologyGroup.POST("/weeks", methodologyHandler.CreateWeeks)
			methodologyGroup.GET("/weeks/:methodologyId", methodologyHandler.GetWeeks)

			methodologyGroup.POST("/sessions", methodologyHandler.RecordSession)
			methodologyGroup.GET("/sessions/summary/:userId", methodologyHandler.HomeSummary)
		}
	}
}
