// README: Websocket gateway; auth handshake and control message loop.
package realtime

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"mealmesh/internal/infra"
	"mealmesh/internal/types"
)

// DefaultAuthTimeout is how long a fresh connection has to authenticate.
const DefaultAuthTimeout = 10 * time.Second

// Gateway upgrades HTTP requests to live connections and runs their
// message loops.
type Gateway struct {
	upgrader    websocket.Upgrader
	verifier    infra.TokenVerifier
	registry    *Registry
	subs        *SubscriptionIndex
	authTimeout time.Duration
	logger      zerolog.Logger
}

func NewGateway(verifier infra.TokenVerifier, registry *Registry, subs *SubscriptionIndex, authTimeout time.Duration, logger zerolog.Logger) *Gateway {
	if authTimeout <= 0 {
		authTimeout = DefaultAuthTimeout
	}
	return &Gateway{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		verifier:    verifier,
		registry:    registry,
		subs:        subs,
		authTimeout: authTimeout,
		logger:      logger,
	}
}

// Handle is the gin handler for the live endpoint.
func (g *Gateway) Handle(c *gin.Context) {
	ws, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	go g.runSession(newWSConn(ws))
}

// runSession drives one connection from handshake to close.
func (g *Gateway) runSession(conn transport) {
	userID, role, ok := g.authenticate(conn)
	if !ok {
		return
	}

	g.registry.Register(userID, role, conn)
	_ = conn.WriteJSON(serverMessage{Type: TypeAuthSuccess, UserID: userID, Role: string(role)})

	g.readLoop(conn, userID)
	g.registry.ConnectionClosed(userID, conn)
}

// authenticate waits for a valid auth message. Non-auth messages before
// authentication get an auth_error but keep the connection open; only the
// timeout or an invalid token closes it.
func (g *Gateway) authenticate(conn transport) (types.ID, types.Role, bool) {
	deadline := time.AfterFunc(g.authTimeout, func() {
		_ = conn.Close(CloseAuthFailure, "authentication timeout")
	})
	defer deadline.Stop()

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return "", "", false
		}
		msg, err := parseClientMessage(data)
		if err != nil || msg.Type != TypeAuth {
			_ = conn.WriteJSON(serverMessage{Type: TypeAuthError, Message: "authenticate first"})
			continue
		}
		claims, err := g.verifier.Verify(msg.Token)
		if err != nil {
			_ = conn.WriteJSON(serverMessage{Type: TypeAuthError, Message: "invalid token"})
			_ = conn.Close(CloseAuthFailure, "invalid token")
			return "", "", false
		}
		return claims.UserID, claims.Role, true
	}
}

func (g *Gateway) readLoop(conn transport, userID types.ID) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := parseClientMessage(data)
		if err != nil {
			_ = conn.WriteJSON(serverMessage{Type: TypeError, Message: "malformed message"})
			continue
		}
		switch msg.Type {
		case TypeSubscribe:
			if msg.OrderID == "" {
				_ = conn.WriteJSON(serverMessage{Type: TypeError, Message: "order_id required"})
				continue
			}
			g.subs.Subscribe(userID, types.ID(msg.OrderID))
			_ = conn.WriteJSON(serverMessage{Type: TypeSubscribed, OrderID: msg.OrderID})
		case TypeUnsubscribe:
			g.subs.Unsubscribe(userID, types.ID(msg.OrderID))
			_ = conn.WriteJSON(serverMessage{Type: TypeUnsubscribed, OrderID: msg.OrderID})
		case TypePing:
			_ = conn.WriteJSON(serverMessage{Type: TypePong})
		default:
			_ = conn.WriteJSON(serverMessage{Type: TypeError, Message: "unknown message type"})
		}
	}
}