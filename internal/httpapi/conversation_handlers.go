package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
	"github.com/smashchats/smash-web-client-sub000/internal/gateway"
	"github.com/smashchats/smash-web-client-sub000/internal/service"
)

// conversationView is a conversation with the peer profile merged in for
// display: profile title wins, conversation title is the fallback.
type conversationView struct {
	*domain.Conversation
	DisplayTitle string `json:"display_title"`
}

func handleListConversations(gw *gateway.Gateway, store domain.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		convs, err := gw.GetConversations(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		views := make([]conversationView, 0, len(convs))
		for _, c := range convs {
			p, err := store.GetProfile(r.Context(), c.ID)
			if err != nil {
				writeError(w, err)
				return
			}
			views = append(views, conversationView{Conversation: c, DisplayTitle: domain.DisplayTitle(c, p)})
		}
		writeJSON(w, http.StatusOK, views)
	}
}

type addPeerRequest struct {
	PeerID string `json:"peer_id"`
}

func handleAddPeer(gw *gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addPeerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		conv, err := gw.AddPeerConversation(r.Context(), req.PeerID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, conv)
	}
}

func handleGetConversation(store domain.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "conversationID")
		conv, err := store.GetConversation(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if conv == nil {
			writeError(w, domain.ErrConversationNotFound)
			return
		}
		p, err := store.GetProfile(r.Context(), conv.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, conversationView{Conversation: conv, DisplayTitle: domain.DisplayTitle(conv, p)})
	}
}

func handleMarkConversationRead(rec *service.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "conversationID")
		if err := rec.MarkConversationRead(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

func handleGetPeerProfile(store domain.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		peerID := chi.URLParam(r, "peerID")
		p, err := store.GetProfile(r.Context(), peerID)
		if err != nil {
			writeError(w, err)
			return
		}
		if p == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no profile for peer"})
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
