package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"unimate/internal/app/commands"
	"unimate/internal/app/dto"
	pushapp "unimate/internal/app/handlers/push"
	"unimate/internal/app/queries"
)

type PushHTTP interface {
	VapidKey(c *gin.Context)
	Subscribe(c *gin.Context)
	Unsubscribe(c *gin.Context)
}

type PushHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

// subscriptionRequest mirrors the browser PushSubscription JSON.
type subscriptionRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (h PushHandler) VapidKey(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push: queries unavailable"})
		return
	}
	key, err := queries.Ask[pushapp.VapidKeyQuery, dto.VapidKey](c.Request.Context(), h.Queries, pushapp.VapidKeyQuery{})
	if err != nil {
		respondError(c, h.Logger, "vapid key", err)
		return
	}
	c.JSON(http.StatusOK, key)
}

func (h PushHandler) Subscribe(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push: commands unavailable"})
		return
	}
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := pushapp.RegisterSubscriptionCommand{
		UserID:    user.ID,
		Endpoint:  req.Endpoint,
		P256dh:    req.Keys.P256dh,
		Auth:      req.Keys.Auth,
		UserAgent: c.Request.UserAgent(),
	}
	sub, err := commands.Dispatch[pushapp.RegisterSubscriptionCommand, dto.PushSubscription](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "push subscribe", err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h PushHandler) Unsubscribe(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push: commands unavailable"})
		return
	}
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := pushapp.UnregisterSubscriptionCommand{UserID: user.ID, Endpoint: req.Endpoint}
	if _, err := commands.Dispatch[pushapp.UnregisterSubscriptionCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, "push unsubscribe", err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ PushHTTP = PushHandler{}
