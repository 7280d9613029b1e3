package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"unimate/internal/app/commands"
	"unimate/internal/app/dto"
	savedapp "unimate/internal/app/handlers/saved"
	"unimate/internal/app/queries"
)

type SavedHTTP interface {
	List(c *gin.Context)
	Save(c *gin.Context)
	Unsave(c *gin.Context)
}

// SavedHandler serves the caller's saved listings.
type SavedHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h SavedHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "saved: queries unavailable"})
		return
	}
	result, err := queries.Ask[savedapp.ListSavedQuery, dto.SavedList](c.Request.Context(), h.Queries, savedapp.ListSavedQuery{UserID: user.ID})
	if err != nil {
		respondError(c, h.Logger, "list saved", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SavedHandler) Save(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "saved: commands unavailable"})
		return
	}
	listingID, ok := requireParam(c, "id", "listing id is required")
	if !ok {
		return
	}
	cmd := savedapp.SaveListingCommand{UserID: user.ID, ListingID: listingID}
	if _, err := commands.Dispatch[savedapp.SaveListingCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, "save listing", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h SavedHandler) Unsave(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "saved: commands unavailable"})
		return
	}
	listingID, ok := requireParam(c, "id", "listing id is required")
	if !ok {
		return
	}
	cmd := savedapp.UnsaveListingCommand{UserID: user.ID, ListingID: listingID}
	if _, err := commands.Dispatch[savedapp.UnsaveListingCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, "unsave listing", err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ SavedHTTP = SavedHandler{}
