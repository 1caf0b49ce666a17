package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/careermentor/internal/events"
	"github.com/yoockh/careermentor/internal/logger"
	"github.com/yoockh/careermentor/internal/services"
	"github.com/yoockh/careermentor/internal/session"
	"github.com/yoockh/careermentor/internal/utils"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = 50 * time.Second
)

type WSHandler struct {
	interviews services.InterviewService
	sub        events.Subscriber
	log        *logrus.Logger
	upgrader   websocket.Upgrader
}

// NewWSHandler accepts handshakes from allowedOrigins. "*" allows any
// origin; an empty list keeps the same-origin check.
func NewWSHandler(interviews services.InterviewService, sub events.Subscriber, allowedOrigins []string, log *logrus.Logger) *WSHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &WSHandler{
		interviews: interviews,
		sub:        sub,
		log:        log,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[strings.ToLower(o)] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// non-browser clients send no Origin
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}

type wsClientMsg struct {
	Type string `json:"type"` // draft|submit|skip|next|abandon
	Text string `json:"text"`
}

type wsErrorMsg struct {
	Type    string     `json:"type"`
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) write(kind int, b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.c.WriteMessage(kind, b)
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.write(websocket.TextMessage, b)
}

func (w *wsConn) writeError(err error) error {
	msg := wsErrorMsg{Type: "error", Code: utils.CodeOf(err), Message: "interview action failed"}
	var ae *utils.AppError
	if errors.As(err, &ae) {
		msg.Message = ae.Message
	}
	return w.writeJSON(msg)
}

// InterviewWS streams the session's events and accepts actions over the
// same socket.
func (h *WSHandler) InterviewWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	sessionID := c.Param("id")

	// authorize before upgrading so errors are plain HTTP
	snap, err := h.interviews.Get(c.Request.Context(), userID, sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream, closeSub, err := h.sub.Subscribe(ctx, sessionID)
	if err != nil {
		h.log.WithField("session_id", sessionID).WithError(err).Error("failed to subscribe to interview events")
		_ = wc.writeError(utils.E(utils.CodeUnavailable, "WSHandler.InterviewWS", "event stream unavailable", err))
		return
	}
	defer closeSub()

	// initial state so late joiners can render immediately
	if err := wc.writeJSON(session.Event{Type: session.EventState, SessionID: sessionID, Snapshot: &snap}); err != nil {
		return
	}

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		h.readLoop(ctx, wc, userID, sessionID)
	}()

	ping := time.NewTicker(wsPingEvery)
	defer ping.Stop()

	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := wc.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case payload, ok := <-stream:
			if !ok {
				return
			}
			// forward as-is, payload is already JSON
			if err := wc.write(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) readLoop(ctx context.Context, wc *wsConn, userID, sessionID string) {
	conn := wc.c
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeError(utils.E(utils.CodeInvalidArgument, "WSHandler", "invalid json", err))
			continue
		}

		// resulting transitions reach the client through the event stream
		switch msg.Type {
		case "draft":
			_, err = h.interviews.Draft(ctx, userID, sessionID, msg.Text)
		case "submit":
			_, err = h.interviews.Submit(ctx, userID, sessionID, msg.Text)
		case "skip":
			_, err = h.interviews.Skip(ctx, userID, sessionID)
		case "next":
			_, err = h.interviews.Next(ctx, userID, sessionID)
		case "abandon":
			if err = h.interviews.Abandon(ctx, userID, sessionID); err == nil {
				return
			}
		default:
			err = utils.E(utils.CodeInvalidArgument, "WSHandler", "unknown message type", nil)
		}
		if err != nil {
			_ = wc.writeError(err)
		}
	}
}
