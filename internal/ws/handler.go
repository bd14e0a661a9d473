package ws

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/smashchats/smash-web-client-sub000/internal/security"
	"github.com/smashchats/smash-web-client-sub000/internal/service"
)

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

func extractToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		if token := strings.TrimSpace(authHeader[len("Bearer "):]); token != "" {
			return token
		}
	}

	// Browser WebSocket clients cannot set Authorization; they smuggle the
	// token through the subprotocol list.
	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return ""
}

// clientSignal is what the UI sends upstream: view lifecycle, presence
// signals, and message visibility reports feeding the read-receipt tracker.
type clientSignal struct {
	Type           string  `json:"type"` // view_open | view_close | interaction | visibility
	ConversationID string  `json:"conversation_id"`
	MessageID      string  `json:"message_id,omitempty"`
	Ratio          float64 `json:"ratio,omitempty"`
	Visible        bool    `json:"visible,omitempty"`
}

// MakeHandler returns the /ws endpoint handler. It authenticates via bearer
// token (Authorization header or Sec-WebSocket-Protocol), registers the
// connection for event broadcasts, and dispatches upstream signals to the
// read-receipt tracker.
func MakeHandler(
	log *slog.Logger,
	hub *Hub,
	tokens *security.TokenService,
	receipts *service.ReceiptTracker,
	allowedOrigins []string,
) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin:  makeCheckOrigin(allowedOrigins),
		Subprotocols: []string{"bearer"},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		if _, err := tokens.Parse(token); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", "err", err)
			return
		}

		hub.Register(conn)
		defer func() {
			hub.Unregister(conn)
			conn.Close()
		}()

		for {
			var sig clientSignal
			if err := conn.ReadJSON(&sig); err != nil {
				return
			}
			switch sig.Type {
			case "view_open":
				receipts.OpenView(sig.ConversationID)
			case "view_close":
				receipts.CloseView(sig.ConversationID)
			case "interaction":
				receipts.NoteInteraction(sig.ConversationID)
			case "visibility":
				receipts.ReportVisibility(sig.ConversationID, sig.MessageID, sig.Ratio, sig.Visible)
			default:
				log.Debug("unknown client signal", "type", sig.Type)
			}
		}
	}
}
