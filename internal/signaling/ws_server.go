package signaling

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vetlink/consult-signaling-relay/internal/config"
	"github.com/vetlink/consult-signaling-relay/internal/metrics"
	"github.com/vetlink/consult-signaling-relay/internal/origin"
	"github.com/vetlink/consult-signaling-relay/internal/ratelimit"
)

// WebSocketServer upgrades consultation clients and pumps their frames into
// the router. Per-connection hardening (message size cap, message rate cap,
// Origin allow-list) lives here, outside the signaling protocol itself.
type WebSocketServer struct {
	cfg      config.Config
	log      *slog.Logger
	router   *Router
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

func NewWebSocketServer(cfg config.Config, logger *slog.Logger, router *Router, m *metrics.Metrics) *WebSocketServer {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	s := &WebSocketServer{
		cfg:     cfg,
		log:     logger,
		router:  router,
		metrics: m,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// RegisterRoutes mounts the consultation WebSocket endpoint.
func (s *WebSocketServer) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /consult/ws", s)
}

// checkOrigin applies the browser Origin policy to the upgrade request.
// Non-browser clients (no Origin header) are allowed; socket authentication
// is explicitly not this relay's job.
func (s *WebSocketServer) checkOrigin(r *http.Request) bool {
	originHeader := strings.TrimSpace(r.Header.Get("Origin"))
	if originHeader == "" {
		return true
	}
	normalized, host, ok := origin.Normalize(originHeader)
	return ok && origin.IsAllowed(normalized, host, r.Host, s.cfg.AllowedOrigins)
}

func (s *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.log.Debug("websocket upgrade failed", "remote_addr", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()

	c := newClient(conn)
	s.router.HandleOpen(c)
	defer s.router.HandleClose(c)
	go c.writePump()

	var limiter *ratelimit.TokenBucket
	if rate := int64(s.cfg.MaxSignalingMessagesPerSecond); rate > 0 {
		limiter = ratelimit.NewTokenBucket(nil, rate, rate)
	}

	for {
		msgType, msgReader, err := conn.NextReader()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			writeClose(conn, websocket.CloseUnsupportedData, "expected text message")
			return
		}

		raw, err := readLimited(msgReader, s.cfg.MaxSignalingMessageBytes)
		if err != nil {
			if errors.Is(err, errMessageTooLarge) {
				writeClose(conn, websocket.CloseMessageTooBig, "message too large")
				return
			}
			return
		}

		if limiter != nil && !limiter.Allow(1) {
			s.metrics.Inc(metrics.EventRateLimitedClosed)
			writeClose(conn, websocket.ClosePolicyViolation, "rate limit exceeded")
			return
		}

		s.router.HandleMessage(c, raw)
	}
}

func writeClose(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(wsWriteWait))
}

var errMessageTooLarge = errors.New("message too large")

func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return nil, errMessageTooLarge
	}
	b, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > max {
		return nil, errMessageTooLarge
	}
	return b, nil
}
