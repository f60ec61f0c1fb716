package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/snowie2000/stepdaddylive/service"
)

func (h *Handler) ChannelListHandler(c *gin.Context) {
	list := h.Catalog.List()
	channels := make([]Channel, len(list))
	for i, ch := range list {
		channels[i] = h.toAPIChannel(c, ch)
	}
	c.JSON(http.StatusOK, channels)
}

func (h *Handler) ChannelHandler(c *gin.Context) {
	ch, ok := h.Catalog.Get(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown channel"})
		return
	}
	c.JSON(http.StatusOK, h.toAPIChannel(c, ch))
}

// ScheduleHandler passes the upstream schedule through; an empty object
// means upstream could not be read.
func (h *Handler) ScheduleHandler(c *gin.Context) {
	res := h.Schedule.Fetch(c.Request.Context())
	if res.Degraded {
		c.Header("X-Schedule-Degraded", "1")
	}
	c.JSON(http.StatusOK, res.Data)
}

func (h *Handler) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, Status{
		Channels:   h.Catalog.Len(),
		Components: service.AllStatus(),
	})
}

// ComponentStatusHandler reports a single component; unseen ones read as Unknown.
func (h *Handler) ComponentStatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, service.GetStatus(c.Param("component")))
}

func CORSHandler(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api") {
		c.Status(http.StatusForbidden)
		return
	}
	allowCORS(c)
	c.Status(http.StatusOK)
}
