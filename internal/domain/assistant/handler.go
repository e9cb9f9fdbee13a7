package assistant

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/smarttravel/itinerary-api/internal/types"
)

// Handler exposes the assistant over plain JSON HTTP.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

func NewHandler(svc Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger,
	}
}

// ProcessCommand handles POST /api/assistant/command.
func (h *Handler) ProcessCommand(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	result, err := h.svc.Process(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to process instruction", slog.Any("error", err))
		var integrityErr *types.DataIntegrityError
		if errors.As(err, &integrityErr) {
			writeError(w, http.StatusInternalServerError, integrityErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to process instruction")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
