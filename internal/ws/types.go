package ws

import (
	"encoding/json"
)

// MessageType represents the different kinds of messages exchanged over a
// game's websocket.
type MessageType string

const (
	MessageTypeMove       MessageType = "move"
	MessageTypeCheck      MessageType = "check"
	MessageTypeBoardState MessageType = "boardState"
	MessageTypeLegality   MessageType = "legality"
	MessageTypeError      MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MovePayload is the payload of move and check messages. Either Move holds
// both squares ("e2 e4") or From and To hold one square each.
type MovePayload struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
	Move string `json:"move,omitempty"`
}

// LegalityPayload answers a check message.
type LegalityPayload struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Legal bool   `json:"legal"`
}

// ErrorPayload carries a human readable error.
type ErrorPayload struct {
	Error string `json:"error"`
}
