package handler

import (
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/snowie2000/stepdaddylive/service"
)

const m3u8Mime = "application/vnd.apple.mpegurl"

func allowCORS(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "*")
}

// StreamHandler serves /stream/{id}.m3u8, resolving the manifest fresh every time.
func (h *Handler) StreamHandler(c *gin.Context) {
	id := strings.TrimSuffix(c.Param("channel"), ".m3u8")
	if id == "" {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	manifest, err := h.Resolver.Resolve(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	allowCORS(c)
	c.Data(http.StatusOK, m3u8Mime, []byte(manifest))
}

func (h *Handler) KeyHandler(c *gin.Context) {
	key, err := h.Relay.FetchKey(c.Request.Context(), c.Param("url"), c.Param("host"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	allowCORS(c)
	c.Data(http.StatusOK, "application/octet-stream", key)
}

func (h *Handler) ContentHandler(c *gin.Context) {
	content, err := h.Relay.OpenContent(c.Request.Context(), c.Param("url"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer content.Body.Close()
	allowCORS(c)
	c.Header("Content-Type", content.ContentType)
	if content.Length >= 0 {
		c.Header("Content-Length", strconv.FormatInt(content.Length, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, content.Body); err != nil {
		log.Printf("[%s] content relay interrupted: %v\n", requestID(c), err)
	}
}

func (h *Handler) LogoHandler(c *gin.Context) {
	logo, err := h.Relay.FetchLogo(c.Request.Context(), c.Param("url"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, logo.ContentType, logo.Data)
}

func (h *Handler) M3UHandler(c *gin.Context) {
	content := service.M3UGenerate(h.Catalog.List(), h.baseURL(c))
	c.Data(http.StatusOK, m3u8Mime, []byte(content))
}

func (h *Handler) TXTHandler(c *gin.Context) {
	content := service.TXTGenerate(h.Catalog.List(), h.baseURL(c))
	c.Data(http.StatusOK, "text/plain; charset=UTF-8", []byte(content))
}
