package route

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/snowie2000/stepdaddylive/handler"
)

func Register(r *gin.Engine, h *handler.Handler) {
	r.Use(handler.RequestID())
	r.OPTIONS("/*path", handler.CORSHandler)

	r.GET("/stream/:channel", h.StreamHandler)
	r.GET("/key/:url/:host", h.KeyHandler)
	r.GET("/content/:url", h.ContentHandler)
	r.GET("/logo/:url", h.LogoHandler)

	text := r.Group("/", handler.Gzip())
	text.GET("/playlist.m3u8", h.M3UHandler)
	text.GET("/lives.txt", h.TXTHandler)

	r.GET("/api/channels", h.ChannelListHandler)
	r.GET("/api/channels/:id", h.ChannelHandler)
	r.GET("/api/schedule", h.ScheduleHandler)
	r.GET("/api/status", h.StatusHandler)
	r.GET("/api/status/:component", h.ComponentStatusHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
