// services/planner-svc/internal/handlers/schedule.go
package handlers

import (
	"net/http"

	"transit/services/planner-svc/internal/service"
)

type scheduleRequest struct {
	Shifts []service.ShiftInput `json:"shifts"`
}

func (h *Handler) scheduleCheckers(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	out, err := h.svc.ScheduleCheckers(r.Context(), req.Shifts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}
