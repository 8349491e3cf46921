package clients

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// HandleWebSocket returns an HTTP handler that upgrades connections from
// application windows and runs them as hub clients. The window passes its
// current URL in the "url" query parameter.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // UI and agent share the device
		})
		if err != nil {
			logger.Error("websocket accept", "error", err)
			return
		}

		initialURL := r.URL.Query().Get("url")
		if initialURL == "" {
			initialURL = "/"
		}

		client := NewClient(hub, conn, initialURL)
		client.Run(r.Context())
	}
}
