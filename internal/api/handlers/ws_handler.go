package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/careerguide/internal/services"
	"github.com/yoockh/careerguide/internal/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// ChatWSHandler answers queries over a websocket, one at a time per
// connection.
type ChatWSHandler struct {
	svc      services.QueryService
	timeout  time.Duration
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewChatWSHandler(svc services.QueryService, allowedOrigins []string, timeout time.Duration, log *logrus.Logger) *ChatWSHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ChatWSHandler{
		svc:     svc,
		timeout: timeout,
		log:     log,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
	}
}

type wsClientMsg struct {
	Type string `json:"type"`
	QueryRequest
}

type wsServerMsg struct {
	Type    string     `json:"type"`
	Data    any        `json:"data,omitempty"`
	Code    utils.Code `json:"code,omitempty"`
	Message string     `json:"message,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) writeJSON(msg wsServerMsg) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return w.writeText(b)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

func (h *ChatWSHandler) Chat(c *gin.Context) {
	authUserID := userIDFrom(c, "")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// keepalive
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := wc.ping(); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "invalid json"})
			continue
		}

		var werr error
		switch msg.Type {
		case "query":
			werr = h.answer(ctx, wc, msg.QueryRequest, authUserID)
		case "ping":
			werr = wc.writeJSON(wsServerMsg{Type: "pong"})
		default:
			werr = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "unknown message type"})
		}
		if werr != nil {
			return
		}
	}
}

func (h *ChatWSHandler) answer(ctx context.Context, wc *wsConn, req QueryRequest, authUserID string) error {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	userID := authUserID
	if userID == "" {
		userID = req.UserID
	}

	res, err := h.svc.Ask(ctx, req.input(userID))
	if err != nil {
		h.log.WithError(err).WithField("conversation_id", req.ConversationID).Warn("ws query failed")
		return wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeOf(err), Message: errorMessage(err)})
	}
	return wc.writeJSON(wsServerMsg{Type: "answer", Data: res})
}

func errorMessage(err error) string {
	var ae *utils.AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return http.StatusText(utils.HTTPStatus(err))
}
