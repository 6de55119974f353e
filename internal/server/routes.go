package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danmuck/pamrfid/internal/buildinfo"
)

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"service": s.name,
			"version": buildinfo.Version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// The full tag ID is a credential; only the masked form leaves the host.
	s.router.GET("/last", func(c *gin.Context) {
		stats := s.watcher.Stats()
		seen, ok := s.watcher.Last()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "no tag seen",
				"stats": stats,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"type":      seen.Tag.TypeHex(),
			"type_name": seen.Tag.TypeName(),
			"id":        seen.Tag.MaskedID(),
			"checksum":  seen.Tag.ChecksumHex(),
			"seen_at":   seen.SeenAt.UTC().Format(time.RFC3339),
			"stats":     stats,
		})
	})
}
