// README: Wire frames for the live channel.
package realtime

import (
	"encoding/json"
	"time"

	"mealmesh/internal/types"
)

// Client-to-server message types.
const (
	TypeAuth        = "auth"
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypePing        = "ping"
)

// Server-to-client message types.
const (
	TypeAuthSuccess  = "auth_success"
	TypeAuthError    = "auth_error"
	TypeSubscribed   = "subscribed"
	TypeUnsubscribed = "unsubscribed"
	TypePong         = "pong"
	TypeError        = "error"
	TypeOrderCreated    = "order_created"
	TypeOrderStatus     = "order_status_changed"
	TypePartnerLocation = "partner_location"
)

// clientMessage is the envelope for everything a client sends.
type clientMessage struct {
	Type    string `json:"type"`
	Token   string `json:"token,omitempty"`
	OrderID string `json:"order_id,omitempty"`
}

type serverMessage struct {
	Type    string   `json:"type"`
	UserID  types.ID `json:"user_id,omitempty"`
	Role    string   `json:"role,omitempty"`
	OrderID string   `json:"order_id,omitempty"`
	Message string   `json:"message,omitempty"`
}

// EventFrame is the wire form of an order lifecycle event.
type EventFrame struct {
	Type        string    `json:"type"`
	OrderID     types.ID  `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to"`
	At          time.Time `json:"at"`
}

// LocationFrame is the wire form of a partner position update.
type LocationFrame struct {
	Type      string      `json:"type"`
	OrderID   types.ID    `json:"order_id"`
	PartnerID types.ID    `json:"partner_id"`
	Position  types.Point `json:"position"`
	At        time.Time   `json:"at"`
}

func parseClientMessage(data []byte) (clientMessage, error) {
	var msg clientMessage
	err := json.Unmarshal(data, &msg)
	return msg, err
}