package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	ClientIDHeader = "X-Client-ID"
	ClientIDLocal  = "clientID"
)

// EnsureClientID stores a client id in the request locals. It comes from
// the X-Client-ID header, then the clientId query parameter, and is
// generated when neither is present. Clients only identify websocket
// connections; they carry no side or turn.
func EnsureClientID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals(ClientIDLocal).(string); ok && id != "" {
			return c.Next()
		}

		clientID := c.Get(ClientIDHeader)
		if clientID == "" {
			clientID = c.Query("clientId")
		}
		if clientID == "" {
			clientID = uuid.New().String()
		}

		c.Locals(ClientIDLocal, clientID)
		c.Set(ClientIDHeader, clientID)
		return c.Next()
	}
}

// ClientID returns the id stored by EnsureClientID.
func ClientID(c *fiber.Ctx) string {
	return clientIDValue(c.Locals(ClientIDLocal))
}

// ConnClientID returns the id EnsureClientID stored on the request that
// was upgraded to c.
func ConnClientID(c *websocket.Conn) string {
	return clientIDValue(c.Locals(ClientIDLocal))
}

func clientIDValue(v interface{}) string {
	id, _ := v.(string)
	return id
}
