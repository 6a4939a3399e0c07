package handlers

import (
	"log"
	"net"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/BrandonT-ops/chatbot-project/internal/container"
	"github.com/BrandonT-ops/chatbot-project/internal/models"
)

// Client is one live WebSocket connection.
type Client struct {
	Conn      *websocket.Conn
	SessionID string
}

// WSHandler runs the chat flow over WebSocket, sharing the processor with
// the REST surface.
type WSHandler struct {
	container *container.Container
	processor *ChatProcessor
	clients   map[string]*Client
	mu        sync.RWMutex
}

func NewWSHandler(c *container.Container) *WSHandler {
	return &WSHandler{
		container: c,
		processor: NewChatProcessor(c),
		clients:   make(map[string]*Client),
	}
}

// WSMessage is the inbound frame.
type WSMessage struct {
	Type      string                `json:"type"`
	SessionID string                `json:"session_id"`
	Message   string                `json:"message"`
	Images    []string              `json:"images,omitempty"`
	Files     []models.FileMetadata `json:"files,omitempty"`
}

func (h *WSHandler) HandleWebSocket(c *websocket.Conn) {
	clientID := uuid.New().String()
	log.Printf("client connected: %s", clientID)

	// Client should ping within 30s; drop the connection after 60s of silence.
	c.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	h.addClient(clientID, &Client{Conn: c})
	defer h.removeClient(clientID)

	for {
		var msg WSMessage
		if err := c.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			} else if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				log.Printf("websocket timeout (no ping received): %s", clientID)
			}
			break
		}

		c.SetReadDeadline(time.Now().Add(60 * time.Second))
		h.handleMessage(c, &msg, clientID)
	}

	log.Printf("client disconnected: %s", clientID)
}

func (h *WSHandler) handleMessage(c *websocket.Conn, msg *WSMessage, clientID string) {
	switch msg.Type {
	case "chat":
		h.handleChat(c, msg, clientID)
	case "ping":
		h.sendResponse(c, &models.ChatResponse{Type: "pong", SessionID: msg.SessionID})
	default:
		h.sendError(c, msg.SessionID, "unknown_message_type", "Unknown message type")
	}
}

func (h *WSHandler) handleChat(c *websocket.Conn, msg *WSMessage, clientID string) {
	if msg.SessionID != "" {
		h.mu.Lock()
		if client, ok := h.clients[clientID]; ok {
			client.SessionID = msg.SessionID
		}
		h.mu.Unlock()
	}

	result := h.processor.ProcessChat(&models.ChatRequest{
		SessionID: msg.SessionID,
		Message:   msg.Message,
		Images:    msg.Images,
		Files:     msg.Files,
	})
	h.sendResponse(c, result)
}

func (h *WSHandler) addClient(id string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[id] = client
}

func (h *WSHandler) removeClient(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
}

func (h *WSHandler) sendResponse(c *websocket.Conn, response *models.ChatResponse) {
	if err := c.WriteJSON(response); err != nil {
		log.Printf("failed to send response: %v", err)
	}
}

func (h *WSHandler) sendError(c *websocket.Conn, sessionID, code, message string) {
	h.sendResponse(c, &models.ChatResponse{
		Type:      "error",
		SessionID: sessionID,
		Error: &models.ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
