package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/smashchats/smash-web-client-sub000/internal/config"
	"github.com/smashchats/smash-web-client-sub000/internal/security"
)

type sessionRequest struct {
	Secret string `json:"secret"`
}

// handleCreateSession exchanges the configured API secret for a bearer token.
// The UI pairs with the daemon once and keeps the token.
func handleCreateSession(cfg *config.Config, tokens *security.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(cfg.APISecret)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid secret"})
			return
		}
		token, err := tokens.CreateForDevice("local")
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "token creation failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

// AuthMiddleware requires a valid bearer token on every API call.
func AuthMiddleware(tokens *security.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}
			token := strings.TrimSpace(header[len("Bearer "):])
			if _, err := tokens.Parse(token); err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
