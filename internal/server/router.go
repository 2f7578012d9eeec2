package server

import (
	"strings"
	"time"

	"github.com/dyluth/ucm/internal/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(s.log))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "X-Requested-With"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", s.health)

	api := router.Group("/api")
	{
		api.GET("/use-cases", s.listUseCases)
		api.GET("/use-cases/:id", s.getUseCase)
		api.POST("/use-cases", s.createUseCase)
		api.PUT("/use-cases/:id", s.updateUseCase)
		api.PATCH("/use-cases/:id/position", s.updatePosition)
		api.DELETE("/use-cases/:id", s.deleteUseCase)

		api.GET("/categories", s.listCategories)
		api.GET("/tags", s.listTags)
		api.GET("/stats", s.stats)
		api.POST("/backup", s.backup)
	}

	return router
}

// requestLogger logs one line per request, at a level chosen by the status.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Debug("HTTP request", fields...)
		}
	}
}
