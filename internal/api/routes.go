package api

import (
	"net/http"

	"alcyxob/movement-program/internal/logger"
	"alcyxob/movement-program/internal/service"

	"github.com/gin-gonic/gin"
)

// RouteConfig carries the handler dependencies.
type RouteConfig struct {
	JWTSecret      string
	RequireAuth    bool
	ProgramService service.ProgramService
	CorpusService  service.CorpusService
	Log            *logger.Logger
}

func SetupRoutes(router *gin.Engine, cfg RouteConfig) {
	programHandler := NewProgramHandler(cfg.ProgramService, cfg.Log)
	corpusHandler := NewCorpusHandler(cfg.CorpusService, cfg.Log)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	if cfg.RequireAuth {
		apiV1.Use(AuthMiddleware(cfg.JWTSecret))
	}
	{
		// POST /api/v1/programs
		apiV1.POST("/programs", programHandler.GenerateProgram)

		corpusGroup := apiV1.Group("/corpus")
		{
			// GET /api/v1/corpus/versions
			corpusGroup.GET("/versions", corpusHandler.ListVersions)
			// GET /api/v1/corpus/{version}/templates ("latest" or a semver constraint also work)
			corpusGroup.GET("/:version/templates", corpusHandler.ListTemplates)
		}
	}
}
