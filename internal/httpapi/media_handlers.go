package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
)

type saveMediaRequest struct {
	Type     domain.MediaType `json:"type"`
	MimeType string           `json:"mime_type"`
	Blob     string           `json:"blob"` // base64
	Pending  bool             `json:"pending"`
}

// handleSaveMedia stores a captured blob. Pending items survive a crash and
// are re-offered via /media/pending so an interrupted capture-to-send flow
// can resume.
func handleSaveMedia(store domain.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveMediaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		blob, err := base64.StdEncoding.DecodeString(req.Blob)
		if err != nil || len(blob) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "blob must be non-empty base64"})
			return
		}
		switch req.Type {
		case domain.MediaImage, domain.MediaVideo, domain.MediaAudio:
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type must be image, video, or audio"})
			return
		}

		item := &domain.MediaItem{
			Type:      req.Type,
			MimeType:  req.MimeType,
			Blob:      blob,
			Timestamp: time.Now().UnixMilli(),
			IsPending: req.Pending,
		}
		id, err := store.PutMedia(r.Context(), item)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
	}
}

type pendingMediaView struct {
	ID        int64            `json:"id"`
	Type      domain.MediaType `json:"type"`
	MimeType  string           `json:"mime_type"`
	Blob      string           `json:"blob"`
	Timestamp int64            `json:"timestamp"`
}

func handleListPendingMedia(store domain.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := store.ListPendingMedia(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		views := make([]pendingMediaView, 0, len(items))
		for _, item := range items {
			views = append(views, pendingMediaView{
				ID:        item.ID,
				Type:      item.Type,
				MimeType:  item.MimeType,
				Blob:      base64.StdEncoding.EncodeToString(item.Blob),
				Timestamp: item.Timestamp,
			})
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func mediaID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "mediaID"), 10, 64)
	return id, err == nil
}

func handleMarkMediaSent(store domain.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := mediaID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid media id"})
			return
		}
		if err := store.MarkMediaSent(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

func handleDeleteMedia(store domain.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := mediaID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid media id"})
			return
		}
		if err := store.DeleteMedia(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}
