package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"unimate/internal/app/commands"
	"unimate/internal/app/dto"
	chatsapp "unimate/internal/app/handlers/chats"
	"unimate/internal/app/queries"
)

// ChatHTTP exposes chat and deal endpoints.
type ChatHTTP interface {
	Open(c *gin.Context)
	Get(c *gin.Context)
	Conversations(c *gin.Context)
	ListMessages(c *gin.Context)
	SendMessage(c *gin.Context)
	SendMedia(c *gin.Context)
	MarkRead(c *gin.Context)
	MarkSold(c *gin.Context)
	Unread(c *gin.Context)
	Deal(c *gin.Context)
	Deals(c *gin.Context)
	ProfileStats(c *gin.Context)
}

type ChatHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type openChatRequest struct {
	ListingID string `json:"listing_id"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// Open returns the buyer's chat for a listing, creating it on first contact.
func (h ChatHandler) Open(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.commandsReady(c) {
		return
	}
	var req openChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := chatsapp.OpenChatCommand{BuyerID: user.ID, ListingID: strings.TrimSpace(req.ListingID)}
	chat, err := commands.Dispatch[chatsapp.OpenChatCommand, *dto.Chat](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "open chat", err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h ChatHandler) Get(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.queriesReady(c) {
		return
	}
	chatID, ok := requireParam(c, "id", "chat id is required")
	if !ok {
		return
	}
	chat, err := queries.Ask[chatsapp.GetChatQuery, dto.Chat](c.Request.Context(), h.Queries, chatsapp.GetChatQuery{UserID: user.ID, ChatID: chatID})
	if err != nil {
		respondError(c, h.Logger, "get chat", err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h ChatHandler) Conversations(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.queriesReady(c) {
		return
	}
	result, err := queries.Ask[chatsapp.ListConversationsQuery, dto.ConversationList](c.Request.Context(), h.Queries, chatsapp.ListConversationsQuery{UserID: user.ID})
	if err != nil {
		respondError(c, h.Logger, "list conversations", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ChatHandler) ListMessages(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.queriesReady(c) {
		return
	}
	chatID, ok := requireParam(c, "id", "chat id is required")
	if !ok {
		return
	}
	result, err := queries.Ask[chatsapp.ListMessagesQuery, dto.ChatMessageList](c.Request.Context(), h.Queries, chatsapp.ListMessagesQuery{UserID: user.ID, ChatID: chatID})
	if err != nil {
		respondError(c, h.Logger, "list messages", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SendMessage posts a text message. A repeated Idempotency-Key returns the
// stored result instead of inserting again.
func (h ChatHandler) SendMessage(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.commandsReady(c) {
		return
	}
	chatID, ok := requireParam(c, "id", "chat id is required")
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := chatsapp.SendTextCommand{
		SenderID:        user.ID,
		ChatID:          chatID,
		Text:            req.Text,
		IdempotencyKeyV: strings.TrimSpace(c.GetHeader("Idempotency-Key")),
	}
	msg, err := commands.Dispatch[chatsapp.SendTextCommand, *dto.ChatMessage](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "send message", err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h ChatHandler) SendMedia(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.commandsReady(c) {
		return
	}
	chatID, ok := requireParam(c, "id", "chat id is required")
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	cmd := chatsapp.SendMediaCommand{
		SenderID:    user.ID,
		ChatID:      chatID,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
		Caption:     c.PostForm("caption"),
	}
	msg, err := commands.Dispatch[chatsapp.SendMediaCommand, *dto.ChatMessage](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "send media", err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h ChatHandler) MarkRead(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.commandsReady(c) {
		return
	}
	chatID, ok := requireParam(c, "id", "chat id is required")
	if !ok {
		return
	}
	result, err := commands.Dispatch[chatsapp.MarkReadCommand, dto.UnreadCount](c.Request.Context(), h.Commands, chatsapp.MarkReadCommand{ReaderID: user.ID, ChatID: chatID})
	if err != nil {
		respondError(c, h.Logger, "mark read", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ChatHandler) MarkSold(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.commandsReady(c) {
		return
	}
	chatID, ok := requireParam(c, "id", "chat id is required")
	if !ok {
		return
	}
	deal, err := commands.Dispatch[chatsapp.MarkSoldCommand, *dto.Deal](c.Request.Context(), h.Commands, chatsapp.MarkSoldCommand{SellerID: user.ID, ChatID: chatID})
	if err != nil {
		respondError(c, h.Logger, "mark sold", err)
		return
	}
	c.JSON(http.StatusCreated, deal)
}

func (h ChatHandler) Unread(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.queriesReady(c) {
		return
	}
	result, err := queries.Ask[chatsapp.CountUnreadQuery, dto.UnreadCount](c.Request.Context(), h.Queries, chatsapp.CountUnreadQuery{UserID: user.ID})
	if err != nil {
		respondError(c, h.Logger, "count unread", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Deal returns the chat's deal, or null when the item is not sold yet.
func (h ChatHandler) Deal(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.queriesReady(c) {
		return
	}
	chatID, ok := requireParam(c, "id", "chat id is required")
	if !ok {
		return
	}
	deal, err := queries.Ask[chatsapp.GetDealQuery, *dto.Deal](c.Request.Context(), h.Queries, chatsapp.GetDealQuery{UserID: user.ID, ChatID: chatID})
	if err != nil {
		respondError(c, h.Logger, "get deal", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deal": deal})
}

func (h ChatHandler) Deals(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.queriesReady(c) {
		return
	}
	result, err := queries.Ask[chatsapp.ListDealsQuery, dto.DealList](c.Request.Context(), h.Queries, chatsapp.ListDealsQuery{UserID: user.ID})
	if err != nil {
		respondError(c, h.Logger, "list deals", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ChatHandler) ProfileStats(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.queriesReady(c) {
		return
	}
	result, err := queries.Ask[chatsapp.ProfileStatsQuery, dto.ProfileStats](c.Request.Context(), h.Queries, chatsapp.ProfileStatsQuery{UserID: user.ID})
	if err != nil {
		respondError(c, h.Logger, "profile stats", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ChatHandler) commandsReady(c *gin.Context) bool {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chats: commands unavailable"})
		return false
	}
	return true
}

func (h ChatHandler) queriesReady(c *gin.Context) bool {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chats: queries unavailable"})
		return false
	}
	return true
}

var _ ChatHTTP = ChatHandler{}
