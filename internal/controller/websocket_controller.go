package controller

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/benbeisheim/movecheck-backend/internal/middleware"
	"github.com/benbeisheim/movecheck-backend/internal/model"
	"github.com/benbeisheim/movecheck-backend/internal/service"
	"github.com/benbeisheim/movecheck-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// HandleConnection is called when a new WebSocket connection is established.
// Every write to c goes through one SyncConn so replies never interleave
// with board broadcasts.
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	clientID := middleware.ConnClientID(c)
	conn := model.NewSyncConn(c)

	if err := wsc.gameService.RegisterConnection(gameID, clientID, conn); err != nil {
		log.Printf("Failed to register connection: %v", err)
		wsc.sendError(conn, err)
		conn.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, clientID, conn)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Printf("read error: %v", err)
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}
		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("parse error: %v", err)
			wsc.sendError(conn, fmt.Errorf("invalid message: %w", err))
			continue
		}

		reply, err := wsc.handleMessage(gameID, msg)
		if err != nil {
			log.Printf("handle error: %v", err)
			wsc.sendError(conn, err)
			continue
		}
		if reply != nil {
			if err := conn.WriteJSON(reply); err != nil {
				log.Printf("write error: %v", err)
			}
		}
	}
}

// handleMessage processes one client message. Move results reach every
// client through the game's broadcast, so only checks produce a reply.
func (wsc *WebSocketController) handleMessage(gameID string, msg ws.Message) (*ws.Message, error) {
	switch msg.Type {
	case ws.MessageTypeMove:
		move, err := decodeMove(msg.Payload)
		if err != nil {
			return nil, err
		}
		_, err = wsc.gameService.HandleMove(gameID, move)
		return nil, err

	case ws.MessageTypeCheck:
		move, err := decodeMove(msg.Payload)
		if err != nil {
			return nil, err
		}
		legal, err := wsc.gameService.CheckMove(gameID, move)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(ws.LegalityPayload{
			From:  move.From.String(),
			To:    move.To.String(),
			Legal: legal,
		})
		if err != nil {
			return nil, err
		}
		return &ws.Message{Type: ws.MessageTypeLegality, Payload: payload}, nil

	default:
		return nil, fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

func decodeMove(raw json.RawMessage) (model.Move, error) {
	var payload ws.MovePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return model.Move{}, fmt.Errorf("%w: %v", model.ErrMalformedMove, err)
	}
	return model.ParseMoveRequest(payload.From, payload.To, payload.Move)
}

func (wsc *WebSocketController) sendError(c model.Conn, err error) {
	payload, _ := json.Marshal(ws.ErrorPayload{Error: err.Error()})
	c.WriteJSON(ws.Message{
		Type:    ws.MessageTypeError,
		Payload: payload,
	})
}
