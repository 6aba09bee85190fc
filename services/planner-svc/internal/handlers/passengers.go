// services/planner-svc/internal/handlers/passengers.go
package handlers

import (
	"net/http"

	"transit/pkg/apperror"
)

type addPassengerRequest struct {
	Name string `json:"name"`
}

type searchPassengersResponse struct {
	Prefix string   `json:"prefix"`
	Names  []string `json:"names"`
	Count  int      `json:"count"`
}

func (h *Handler) addPassenger(w http.ResponseWriter, r *http.Request) {
	var req addPassengerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if max := h.cfg.Planner.DirectoryMaxName; max > 0 && len(req.Name) > max {
		writeError(w, apperror.NewWithField(apperror.CodeInvalidArgument, "passenger name too long", "name"))
		return
	}

	if err := h.svc.AddPassenger(r.Context(), req.Name); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) searchPassengers(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	names := h.svc.SearchPassengers(r.Context(), prefix)

	writeJSON(w, http.StatusOK, searchPassengersResponse{
		Prefix: prefix,
		Names:  names,
		Count:  len(names),
	})
}
