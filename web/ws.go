package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is served same-origin or behind a reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const statusFeedInterval = time.Second

// statusFeedHandler streams the user's session status over a websocket until
// the client disconnects.
func statusFeedHandler(controller AppController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			controller.Logger().LogWarn("Status feed: upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		// Reader goroutine: surfaces client disconnects.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(statusFeedInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-r.Context().Done():
				return
			case <-ticker.C:
				if err := conn.WriteJSON(controller.BotStatus(userID)); err != nil {
					return
				}
			}
		}
	}
}
