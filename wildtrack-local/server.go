// Package wildtracklocal serves the relay over a plain websocket so it can be
// driven from a browser or wscat without API Gateway.
package wildtracklocal

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	wildtrackws "github.com/wildtrack/wildtrack-relay/wildtrack-ws"
)

const (
	defaultWriteTimeout = 10 * time.Second
	maxCloseReason      = 123
)

// EventHandler is satisfied by wildtrackws.Handler.
type EventHandler interface {
	HandleEvent(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error)
}

// Server translates websocket connections into API Gateway style events and
// doubles as the SenderFactory the handler pushes chunks through.
//
// Each connection is read by a single goroutine, so queries on one connection
// run one after another and their chunk streams never interleave.
type Server struct {
	Handler      EventHandler
	Logger       zerolog.Logger
	WriteTimeout time.Duration

	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*clientConn
}

type clientConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	timeout time.Duration
}

func (c *clientConn) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(c.timeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *clientConn) close(code int, reason string) {
	reason = truncateReason(reason, maxCloseReason)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.timeout))
}

// truncateReason cuts s to at most n bytes without splitting a rune.
func truncateReason(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func NewServer(handler EventHandler, logger zerolog.Logger) *Server {
	return &Server{
		Handler:      handler,
		Logger:       logger,
		WriteTimeout: defaultWriteTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: map[string]*clientConn{},
	}
}

// Sender implements wildtrackws.SenderFactory. The endpoint is ignored; the
// connection is looked up by id.
func (s *Server) Sender(_, connectionID string) wildtrackws.Sender {
	return wildtrackws.SenderFunc(func(ctx context.Context, data []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.mu.RLock()
		conn, ok := s.conns[connectionID]
		s.mu.RUnlock()
		if !ok {
			return fmt.Errorf("%w: connection %v", wildtrackws.ErrChannelGone, connectionID)
		}
		if err := conn.write(data); err != nil {
			return fmt.Errorf("%w: connection %v: %v", wildtrackws.ErrChannelGone, connectionID, err)
		}
		return nil
	})
}

// ServeWS upgrades the request and pumps frames through the handler until
// the peer goes away.
func (s *Server) ServeWS(w http.ResponseWriter, req *http.Request) {
	id := uuid.NewString()
	logger := s.Logger.With().Str("connection_id", id).Logger()

	ws, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer ws.Close()

	timeout := s.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	conn := &clientConn{ws: ws, timeout: timeout}

	s.mu.Lock()
	s.conns[id] = conn
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, id)
		s.mu.Unlock()
	}()

	ctx := req.Context()
	resp, _ := s.Handler.HandleEvent(ctx, s.event(req, wildtrackws.RouteConnect, id, ""))
	if resp.StatusCode != http.StatusOK {
		logger.Warn().Int("status", resp.StatusCode).Msg("connect rejected")
		conn.close(websocket.CloseInternalServerErr, resp.Body)
		return
	}
	defer func() {
		_, _ = s.Handler.HandleEvent(context.Background(), s.event(req, wildtrackws.RouteDisconnect, id, ""))
	}()

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("connection dropped")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		resp, _ := s.Handler.HandleEvent(ctx, s.event(req, wildtrackws.RouteDefault, id, string(data)))
		if err := conn.write([]byte(resp.Body)); err != nil {
			logger.Info().Err(err).Msg("unable to deliver acknowledgement")
			return
		}
	}
}

// Close sends a going-away frame to every open connection.
func (s *Server) Close() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, conn := range s.conns {
		conn.close(websocket.CloseGoingAway, "server shutting down")
	}
}

func (s *Server) event(req *http.Request, route, connectionID, body string) events.APIGatewayWebsocketProxyRequest {
	return events.APIGatewayWebsocketProxyRequest{
		Body: body,
		RequestContext: events.APIGatewayWebsocketProxyRequestContext{
			RouteKey:         route,
			ConnectionID:     connectionID,
			DomainName:       req.Host,
			Stage:            "local",
			RequestTimeEpoch: time.Now().UnixMilli(),
		},
	}
}
