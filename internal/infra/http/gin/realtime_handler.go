package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"unimate/internal/app/busy"
	"unimate/internal/app/dto"
	chatsapp "unimate/internal/app/handlers/chats"
	"unimate/internal/app/queries"
	"unimate/internal/app/realtime"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	writeWait      = 10 * time.Second
	maxFrameSize   = 4 * 1024
	sessionBuffer  = 64
	dedupWindow    = 512
	userFeedKey    = ""
	frameSubscribe = "subscribe"
	frameUnsub     = "unsubscribe"
	// frameResync tells the client its feed lagged and state must be refetched.
	frameResync = "resync"
	frameError  = "error"
)

type RealtimeHTTP interface {
	Connect(c *gin.Context)
}

// RealtimeHandler upgrades to a WebSocket carrying hub events for the caller.
// Every connection follows the caller's user feed; clients add chat feeds with
// {"type":"subscribe","chat_id":"..."}.
type RealtimeHandler struct {
	Hub     *realtime.Hub
	Queries queries.Bus
	Busy    *busy.Tracker
	Logger  *slog.Logger
}

type clientFrame struct {
	Type   string `json:"type"`
	ChatID string `json:"chat_id"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func (h RealtimeHandler) Connect(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime unavailable"})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("websocket upgrade failed", "error", err)
		}
		return
	}
	s := &session{
		handler: h,
		userID:  user.ID,
		conn:    conn,
		out:     make(chan realtime.Event, sessionBuffer),
		done:    make(chan struct{}),
		subs:    make(map[string]*realtime.Subscription),
	}
	if h.Busy != nil {
		s.out <- realtime.BusyEvent(busy.Event{Busy: h.Busy.Busy(), InFlight: h.Busy.InFlight()})
	}
	go s.follow(userFeedKey, realtime.Topic{UserID: user.ID})
	go s.writePump()
	s.readPump(c)
}

type session struct {
	handler RealtimeHandler
	userID  string
	conn    *websocket.Conn
	out     chan realtime.Event
	done    chan struct{}
	once    sync.Once

	mu   sync.Mutex
	subs map[string]*realtime.Subscription
}

func (s *session) readPump(c *gin.Context) {
	defer s.close()
	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var frame clientFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && s.handler.Logger != nil {
				s.handler.Logger.Debug("websocket closed", "user_id", s.userID, "error", err)
			}
			return
		}
		chatID := strings.TrimSpace(frame.ChatID)
		switch frame.Type {
		case frameSubscribe:
			if chatID == "" {
				s.emit(realtime.Event{Type: frameError, Data: "chat_id is required"})
				continue
			}
			if err := s.authorize(c, chatID); err != nil {
				s.emit(realtime.Event{Type: frameError, ChatID: chatID, Data: err.Error()})
				continue
			}
			if s.claim(chatID) {
				go s.follow(chatID, realtime.Topic{ChatID: chatID})
			}
		case frameUnsub:
			s.release(chatID)
		default:
			s.emit(realtime.Event{Type: frameError, Data: "unknown frame type"})
		}
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	dedup := realtime.NewDedup(dedupWindow)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()
	for {
		select {
		case ev := <-s.out:
			if dedup.Seen(ev) {
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(ev); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// authorize only lets participants follow a chat feed.
func (s *session) authorize(c *gin.Context, chatID string) error {
	if s.handler.Queries == nil {
		return nil
	}
	_, err := queries.Ask[chatsapp.GetChatQuery, dto.Chat](c.Request.Context(), s.handler.Queries, chatsapp.GetChatQuery{UserID: s.userID, ChatID: chatID})
	return err
}

// claim reserves the feed key; it reports false when the feed is already followed.
func (s *session) claim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.subs[key]; exists {
		return false
	}
	s.subs[key] = nil
	return true
}

func (s *session) release(key string) {
	if key == userFeedKey {
		return
	}
	s.mu.Lock()
	sub, ok := s.subs[key]
	delete(s.subs, key)
	s.mu.Unlock()
	if ok && sub != nil {
		sub.Close()
	}
}

// follow pumps one hub subscription into the session and resubscribes after
// a lag, so the client keeps receiving events once it has refetched.
func (s *session) follow(key string, topic realtime.Topic) {
	var prev *realtime.Subscription
	for {
		sub := s.handler.Hub.Subscribe(topic)
		if !s.attach(key, prev, sub) {
			sub.Close()
			return
		}
		for ev := range sub.Events() {
			if ev.Broadcast && key != userFeedKey {
				continue
			}
			select {
			case s.out <- ev:
			case <-s.done:
				sub.Close()
				return
			}
		}
		if !errors.Is(sub.Err(), realtime.ErrLagged) {
			return
		}
		prev = sub
		if s.handler.Logger != nil {
			s.handler.Logger.Debug("realtime feed lagged", "user_id", s.userID, "chat_id", topic.ChatID)
		}
		select {
		case s.out <- realtime.Event{Type: frameResync, ChatID: topic.ChatID}:
		case <-s.done:
			return
		}
	}
}

// attach records sub as the live feed for key unless the session closed or
// the feed was released (or replaced) since prev was attached.
func (s *session) attach(key string, prev, sub *realtime.Subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	if current, ok := s.subs[key]; key != userFeedKey && (!ok || current != prev) {
		return false
	}
	s.subs[key] = sub
	return true
}

func (s *session) emit(ev realtime.Event) {
	select {
	case s.out <- ev:
	case <-s.done:
	}
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		subs := s.subs
		s.subs = map[string]*realtime.Subscription{}
		s.mu.Unlock()
		for _, sub := range subs {
			if sub != nil {
				sub.Close()
			}
		}
	})
}

var _ RealtimeHTTP = RealtimeHandler{}
