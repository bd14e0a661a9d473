package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
	"github.com/smashchats/smash-web-client-sub000/internal/gateway"
	"github.com/smashchats/smash-web-client-sub000/internal/messenger"
)

// handleListMessages serves a conversation's messages. defaultLimit applies
// when the request carries no limit parameter; zero means unlimited.
func handleListMessages(gw *gateway.Gateway, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "conversationID")
		limit := defaultLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		msgs, err := gw.GetMessages(r.Context(), id, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

type sendMessageRequest struct {
	Kind  domain.MessageKind   `json:"kind"`
	Body  string               `json:"body,omitempty"`
	Media *domain.MediaContent `json:"media,omitempty"`
}

func handleSendMessage(gw *gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "conversationID")
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if req.Kind == "" {
			req.Kind = domain.KindText
		}
		if req.Kind == domain.KindText && req.Body == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message body cannot be empty"})
			return
		}
		if req.Kind == domain.KindMedia && req.Media == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "media payload is required"})
			return
		}

		msg, err := gw.SendMessage(r.Context(), id, messenger.Content{
			Kind:  req.Kind,
			Body:  req.Body,
			Media: req.Media,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}
