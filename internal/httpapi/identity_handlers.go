package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
	"github.com/smashchats/smash-web-client-sub000/internal/gateway"
)

type identityStatus struct {
	Exists    bool                   `json:"exists"`
	Profile   *domain.Profile        `json:"profile,omitempty"`
	Endpoint  *domain.EndpointConfig `json:"endpoint,omitempty"`
	CreatedAt int64                  `json:"created_at,omitempty"`
}

func handleIdentityStatus(gw *gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := gw.Session()
		if session == nil {
			writeJSON(w, http.StatusOK, identityStatus{Exists: false})
			return
		}
		writeJSON(w, http.StatusOK, identityStatus{
			Exists:    true,
			Profile:   &session.Profile,
			Endpoint:  &session.Endpoint,
			CreatedAt: session.CreatedAt,
		})
	}
}

func handleLogout(log *slog.Logger, gw *gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := gw.Logout(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		log.Info("device session destroyed")
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

func handleUpdateEndpoint(gw *gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ep domain.EndpointConfig
		if err := json.NewDecoder(r.Body).Decode(&ep); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if ep.URL == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "endpoint url is required"})
			return
		}
		if err := gw.UpdateEndpoint(r.Context(), ep); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

func handleUpdateLocalProfile(gw *gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p domain.Profile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if err := gw.UpdateLocalProfile(r.Context(), p); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}
