package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"catalog-service/internal/events"
)

// HealthHandler reports liveness and dependency status
type HealthHandler struct {
	eventsPublisher *events.Publisher
}

func NewHealthHandler(eventsPublisher *events.Publisher) *HealthHandler {
	return &HealthHandler{eventsPublisher: eventsPublisher}
}

// HealthCheck returns service health
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	natsStatus := "disabled"
	if h.eventsPublisher != nil {
		if h.eventsPublisher.IsConnected() {
			natsStatus = "connected"
		} else {
			natsStatus = "disconnected"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "catalog-service",
		"nats":      natsStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
