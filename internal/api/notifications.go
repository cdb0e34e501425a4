package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jeiary/jeiary/internal/storage"
)

const notificationPageSize = 50

type notificationJSON struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func handleListNotifications(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notifs, err := deps.Store.NotificationsByUser(requestUser(r).ID, notificationPageSize)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing notifications: %v", err)
			return
		}

		out := make([]notificationJSON, len(notifs))
		for i, n := range notifs {
			out[i] = notificationJSON{
				ID:        n.ID,
				Type:      n.Type,
				Content:   n.Content,
				IsRead:    n.IsRead,
				CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"notifications": out})
	}
}

func handleMarkNotificationRead(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Store.MarkNotificationRead(id, requestUser(r).ID)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "invalid_request_error", "notification %s not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "marking notification read: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "read", "id": id})
	}
}
