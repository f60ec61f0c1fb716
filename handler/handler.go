package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/snowie2000/stepdaddylive/model"
	"github.com/snowie2000/stepdaddylive/service"
	"github.com/snowie2000/stepdaddylive/util"
)

// Handler carries the services behind the HTTP endpoints.
type Handler struct {
	Catalog  *service.Catalog
	Resolver *service.Resolver
	Relay    *service.Relay
	Schedule *service.Schedule
	// BaseURL is the configured public address; empty means derive it from the request.
	BaseURL string
}

// statusOf maps service errors onto response codes.
func statusOf(err error) int {
	var ue *service.UpstreamError
	switch {
	case errors.Is(err, util.ErrDecode):
		return http.StatusBadRequest
	case errors.As(err, &ue):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return 499
	}
	return http.StatusBadGateway
}

func abortWithError(c *gin.Context, err error) {
	code := statusOf(err)
	if code != 499 {
		log.Printf("[%s] %s %s: %v\n", requestID(c), c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

// baseURL is where clients reach us, used to build absolute playlist entries.
func (h *Handler) baseURL(c *gin.Context) string {
	if h.BaseURL != "" {
		return strings.TrimSuffix(h.BaseURL, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	host := c.Request.Host
	if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}

func (h *Handler) toAPIChannel(c *gin.Context, ch model.Channel) Channel {
	base := h.baseURL(c)
	out := Channel{
		ID:     ch.ID,
		Name:   ch.Name,
		Tags:   ch.Tags,
		Stream: service.StreamURL(base, ch.ID),
	}
	if ch.Logo != "" {
		out.Logo = service.AbsoluteURL(base, ch.Logo)
	}
	return out
}
