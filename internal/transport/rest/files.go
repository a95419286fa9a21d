package rest

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"registry-report/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) downloadFile(w http.ResponseWriter, r *http.Request) {
	path, original, err := h.files.Resolve(chi.URLParam(r, "file"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fail(w, http.StatusNotFound, "file not found")
			return
		}
		h.log.ErrorContext(r.Context(), "resolve archived file failed", "error", err)
		fail(w, http.StatusInternalServerError, "failed to access file")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", original))
	http.ServeFile(w, r, path)
}

func (h *Handler) openWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	h.log.InfoContext(r.Context(), "websocket connected", "user_id", userID)
	h.ws.HandleWebSocket(w, r, userID)
}
