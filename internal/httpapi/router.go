package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/smashchats/smash-web-client-sub000/internal/config"
	"github.com/smashchats/smash-web-client-sub000/internal/domain"
	"github.com/smashchats/smash-web-client-sub000/internal/gateway"
	"github.com/smashchats/smash-web-client-sub000/internal/security"
	"github.com/smashchats/smash-web-client-sub000/internal/service"
	"github.com/smashchats/smash-web-client-sub000/internal/ws"
)

// NewRouter constructs the daemon's local API: the surface the (external,
// browser-hosted) UI talks to instead of an in-process store.
func NewRouter(
	cfg *config.Config,
	log *slog.Logger,
	tokens *security.TokenService,
	gw *gateway.Gateway,
	rec *service.Reconciler,
	store domain.Store,
	receipts *service.ReceiptTracker,
	hub *ws.Hub,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/session", handleCreateSession(cfg, tokens))

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokens))

			r.Route("/identity", func(r chi.Router) {
				r.Get("/", handleIdentityStatus(gw))
				r.Post("/logout", handleLogout(log, gw))
				r.Put("/endpoint", handleUpdateEndpoint(gw))
				r.Put("/profile", handleUpdateLocalProfile(gw))
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", handleListConversations(gw, store))
				r.Post("/", handleAddPeer(gw))
				r.Get("/{conversationID}", handleGetConversation(store))
				r.Post("/{conversationID}/read", handleMarkConversationRead(rec))
				r.Get("/{conversationID}/messages", handleListMessages(gw, cfg.MaxMessagesPerConversation))
				r.Post("/{conversationID}/messages", handleSendMessage(gw))
			})

			r.Get("/profiles/{peerID}", handleGetPeerProfile(store))

			r.Route("/media", func(r chi.Router) {
				r.Post("/", handleSaveMedia(store))
				r.Get("/pending", handleListPendingMedia(store))
				r.Post("/{mediaID}/sent", handleMarkMediaSent(store))
				r.Delete("/{mediaID}", handleDeleteMedia(store))
			})
		})
	})

	r.Get("/ws", ws.MakeHandler(log, hub, tokens, receipts, cfg.CORSOrigins))

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps sentinel errors from user-initiated actions onto status
// codes. Background reconciliation errors never reach this path.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrConversationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrGatewayNotInitialized),
		errors.Is(err, domain.ErrStoreNotInitialized):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
