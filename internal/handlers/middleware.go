package handlers

import (
	"strconv"
	"time"

	"github.com/Brownie44l1/breed-api/internal/metric"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// CORS allows browser clients from any origin to call the JSON endpoints.
func CORS() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	return cors.New(corsConfig)
}

// HTTPLogger logs each request and records its latency.
func HTTPLogger(metrics *metric.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		tags := []string{
			metric.TagAsString(metric.TagPath, path),
			metric.TagAsString(metric.TagMethod, c.Request.Method),
			metric.TagAsString(metric.TagHttpStatusCode, strconv.Itoa(status)),
		}
		metrics.Incr(metric.ApiRequestCount, tags)
		metrics.Timing(metric.ApiRequestLatency, latency, tags)

		log.Info().Msgf("[access] [%s] %s %s %d %v", c.ClientIP(), c.Request.Method, c.Request.URL.Path, status, latency)
	}
}

// NewRouter builds the gin engine serving h.
func NewRouter(h *Handler, metrics *metric.Recorder) *gin.Engine {
	r := gin.New()
	r.Use(CORS(), HTTPLogger(metrics), gin.Recovery())
	h.Register(r)
	return r
}
