package chats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"unimate/internal/app/commands"
	"unimate/internal/app/dto"
	handlersupport "unimate/internal/app/handlers/support"
	"unimate/internal/app/middleware"
	"unimate/internal/app/outbox"
	"unimate/internal/app/realtime"
	"unimate/internal/app/uow"
	domainchats "unimate/internal/domain/chats"
	"unimate/internal/domain/shared/media"
	"unimate/internal/infra/storage/s3"
)

const (
	sendTextKey  = "chats.messages.send_text"
	sendMediaKey = "chats.messages.send_media"
)

type SendTextCommand struct {
	SenderID        string
	ChatID          string
	Text            string
	IdempotencyKeyV string
}

func (c SendTextCommand) Key() string            { return sendTextKey }
func (c SendTextCommand) ActorID() string        { return c.SenderID }
func (c SendTextCommand) IdempotencyKey() string { return c.IdempotencyKeyV }
func (c SendTextCommand) ResultPrototype() any   { return &dto.ChatMessage{} }

type SendTextHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Hub        *realtime.Hub
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *SendTextHandler) Handle(ctx context.Context, cmd SendTextCommand) (*dto.ChatMessage, error) {
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()
	ctx = unit.Ctx

	chat, err := participantChat(ctx, unit.UnitOfWork, cmd.ChatID, cmd.SenderID)
	if err != nil {
		return nil, err
	}
	msg, err := domainchats.NewMessage(domainchats.NewMessageParams{
		ID:       domainchats.MessageID(uuid.NewString()),
		Chat:     chat,
		SenderID: cmd.SenderID,
		Text:     cmd.Text,
		Now:      clock(h.Now),
	})
	if err != nil {
		return nil, err
	}
	notes, err := deliver(ctx, unit.UnitOfWork, h.Outbox, h.Encoder, chat, msg)
	if err != nil {
		return nil, err
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}
	publish(h.Hub, notes...)

	result := dto.MapMessage(msg)
	return &result, nil
}

// SendMediaCommand uploads an image or video and posts it as a message.
type SendMediaCommand struct {
	SenderID    string
	ChatID      string
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
	Caption     string
}

func (c SendMediaCommand) Key() string     { return sendMediaKey }
func (c SendMediaCommand) ActorID() string { return c.SenderID }

func (c SendMediaCommand) Validate() error {
	if c.Reader == nil {
		return errors.New("chats: media file is required")
	}
	return nil
}

type SendMediaHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Hub        *realtime.Hub
	Uploader   s3.Uploader
	Limits     media.Limits
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *SendMediaHandler) Handle(ctx context.Context, cmd SendMediaCommand) (*dto.ChatMessage, error) {
	if h.Uploader == nil {
		return nil, errors.New("chats: media uploader unavailable")
	}
	limits := h.Limits
	if limits == (media.Limits{}) {
		limits = media.ChatLimits
	}
	kind, err := limits.Validate(cmd.ContentType, cmd.Size)
	if err != nil {
		return nil, err
	}

	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()
	ctx = unit.Ctx

	chat, err := participantChat(ctx, unit.UnitOfWork, cmd.ChatID, cmd.SenderID)
	if err != nil {
		return nil, err
	}

	now := clock(h.Now)
	objectKey := fmt.Sprintf("%s/%s/%d.%s", chat.ID, cmd.SenderID, now.UnixMilli(), media.Extension(cmd.Filename, cmd.ContentType))
	url, err := h.Uploader.Upload(ctx, objectKey, cmd.Reader, cmd.Size, cmd.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload chat media: %w", err)
	}

	msg, err := domainchats.NewMessage(domainchats.NewMessageParams{
		ID:        domainchats.MessageID(uuid.NewString()),
		Chat:      chat,
		SenderID:  cmd.SenderID,
		Text:      cmd.Caption,
		MediaURL:  url,
		MediaKind: kind,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}
	notes, err := deliver(ctx, unit.UnitOfWork, h.Outbox, h.Encoder, chat, msg)
	if err != nil {
		return nil, err
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}
	publish(h.Hub, notes...)

	if h.Logger != nil {
		h.Logger.Info("chat media sent", "chat_id", chat.ID, "sender_id", cmd.SenderID, "kind", kind, "key", objectKey)
	}
	result := dto.MapMessage(msg)
	return &result, nil
}

var _ commands.Handler[SendTextCommand, *dto.ChatMessage] = (*SendTextHandler)(nil)
var _ commands.Handler[SendMediaCommand, *dto.ChatMessage] = (*SendMediaHandler)(nil)
var _ middleware.IdempotentCommand = SendTextCommand{}
