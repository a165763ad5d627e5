package events

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"comicsort/internal/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the API is meant for a single operator on a trusted host
	},
}

// WSHandler streams the events of the caller's own session. It must sit
// behind auth.AuthMiddleware.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		hub.Add(ws, claims.SessionID)
		hub.logger.Printf("[ws] client connected to session %s", claims.SessionID)

		welcome, _ := json.Marshal(gin.H{"type": "welcome", "transport": "websocket", "session_id": claims.SessionID})
		_ = hub.send(ws, welcome)

		// incoming messages are ignored; reading only detects the close
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.Remove(ws)
		hub.logger.Printf("[ws] client of session %s disconnected", claims.SessionID)
	}
}
