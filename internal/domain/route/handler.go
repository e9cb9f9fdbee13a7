package route

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/smarttravel/itinerary-api/internal/types"
)

// Handler exposes route optimization over plain JSON HTTP.
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

type optimizeRequest struct {
	Waypoints []types.RouteWaypoint `json:"waypoints"`
}

// OptimizeRoute handles POST /api/route/optimize.
func (h *Handler) OptimizeRoute(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	optimized, err := h.svc.Optimize(r.Context(), req.Waypoints)
	if err != nil {
		if errors.Is(err, types.ErrBadRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var routingErr *types.RoutingError
		if errors.As(err, &routingErr) {
			h.logger.WarnContext(r.Context(), "route optimization failed",
				slog.String("message", routingErr.Message))
			writeError(w, http.StatusBadGateway, routingErr.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "route optimization failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to optimize route")
		return
	}

	writeJSON(w, http.StatusOK, optimized)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
