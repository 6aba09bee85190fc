// services/planner-svc/internal/handlers/networks.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"transit/pkg/apperror"
	"transit/pkg/domain"
	"transit/services/planner-svc/internal/report"
	"transit/services/planner-svc/internal/repository"
	"transit/services/planner-svc/internal/service"
)

// ============================================================
// NETWORK REGISTRY
// ============================================================

func (h *Handler) createNetwork(w http.ResponseWriter, r *http.Request) {
	var in service.CreateNetworkInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}

	if max := h.cfg.Planner.MaxStations; max > 0 && len(in.Stations) > max {
		writeError(w, apperror.New(apperror.CodeInvalidNetwork, "too many stations").
			WithDetails("limit", max).
			WithDetails("got", len(in.Stations)))
		return
	}
	if max := h.cfg.Planner.MaxTracks; max > 0 && len(in.Tracks) > max {
		writeError(w, apperror.New(apperror.CodeInvalidNetwork, "too many tracks").
			WithDetails("limit", max).
			WithDetails("got", len(in.Tracks)))
		return
	}

	out, err := h.svc.CreateNetwork(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) deleteNetwork(w http.ResponseWriter, r *http.Request) {
	networkID := chi.URLParam(r, "networkID")

	if err := h.svc.DeleteNetwork(r.Context(), networkID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// stationView станция в ответе API
type stationView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name,omitempty"`
	Occupancy int64  `json:"occupancy"`
	Type      string `json:"type"`
}

// trackView линия в ответе API
type trackView struct {
	ID       int64 `json:"id"`
	From     int64 `json:"from"`
	To       int64 `json:"to"`
	Capacity int64 `json:"capacity"`
	Cost     int64 `json:"cost"`
}

// networkView снимок сети в ответе API
type networkView struct {
	NetworkID string        `json:"network_id"`
	Name      string        `json:"name,omitempty"`
	Stations  []stationView `json:"stations"`
	Tracks    []trackView   `json:"tracks"`
	CreatedAt time.Time     `json:"created_at"`
}

func (h *Handler) getNetwork(w http.ResponseWriter, r *http.Request) {
	networkID := chi.URLParam(r, "networkID")

	snap, err := h.svc.Snapshot(r.Context(), networkID)
	if err != nil {
		writeError(w, err)
		return
	}

	view := networkView{
		NetworkID: snap.NetworkID,
		Name:      snap.Name,
		Stations:  make([]stationView, 0, len(snap.Stations)),
		Tracks:    make([]trackView, 0, len(snap.Tracks)),
		CreatedAt: snap.CreatedAt,
	}
	for _, s := range snap.Stations {
		view.Stations = append(view.Stations, stationView{
			ID:        int64(s.ID),
			Name:      s.Name,
			Occupancy: s.Occupancy,
			Type:      s.Type.String(),
		})
	}
	for _, t := range snap.Tracks {
		view.Tracks = append(view.Tracks, trackView{
			ID:       int64(t.ID),
			From:     int64(t.From),
			To:       int64(t.To),
			Capacity: t.Capacity,
			Cost:     t.Cost,
		})
	}

	writeJSON(w, http.StatusOK, view)
}

// ============================================================
// PLAN QUERIES
// ============================================================

func (h *Handler) maxFlow(w http.ResponseWriter, r *http.Request) {
	networkID := chi.URLParam(r, "networkID")

	from, err := queryInt64(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := queryInt64(r, "to")
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := h.solveContext(r.Context())
	defer cancel()

	out, err := h.svc.MaxFlow(ctx, networkID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) bestNetwork(w http.ResponseWriter, r *http.Request) {
	networkID := chi.URLParam(r, "networkID")

	ctx, cancel := h.solveContext(r.Context())
	defer cancel()

	out, err := h.svc.BestNetwork(ctx, networkID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

// historyItem запись истории в ответе API
type historyItem struct {
	ID                string    `json:"id"`
	Operation         string    `json:"operation"`
	ResultValue       int64     `json:"result_value"`
	ComputationTimeMs float64   `json:"computation_time_ms"`
	StationCount      int       `json:"station_count"`
	TrackCount        int       `json:"track_count"`
	CreatedAt         time.Time `json:"created_at"`
}

type historyResponse struct {
	NetworkID string        `json:"network_id"`
	Items     []historyItem `json:"items"`
	Total     int64         `json:"total"`
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	networkID := chi.URLParam(r, "networkID")

	opts := &repository.ListOptions{
		Operation: r.URL.Query().Get("operation"),
		Sort:      repository.SortOrder(r.URL.Query().Get("sort")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, apperror.NewWithField(apperror.CodeInvalidArgument, "limit must be an integer", "limit"))
			return
		}
		opts.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, apperror.NewWithField(apperror.CodeInvalidArgument, "offset must be an integer", "offset"))
			return
		}
		opts.Offset = n
	}

	items, total, err := h.svc.History(r.Context(), networkID, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := historyResponse{
		NetworkID: networkID,
		Items:     make([]historyItem, 0, len(items)),
		Total:     total,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, historyItem{
			ID:                it.ID,
			Operation:         it.Operation,
			ResultValue:       it.ResultValue,
			ComputationTimeMs: it.ComputationTimeMs,
			StationCount:      it.StationCount,
			TrackCount:        it.TrackCount,
			CreatedAt:         it.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// ============================================================
// REPORTS
// ============================================================

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	networkID := chi.URLParam(r, "networkID")

	name := r.URL.Query().Get("format")
	if name == "" {
		name = h.cfg.Report.DefaultFormat
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		writeError(w, err)
		return
	}

	snap, err := h.svc.Snapshot(r.Context(), networkID)
	if err != nil {
		writeError(w, err)
		return
	}

	data := &report.ReportData{
		NetworkID:   snap.NetworkID,
		NetworkName: snap.Name,
		CreatedAt:   snap.CreatedAt,
		Stations:    snap.Stations,
		Tracks:      snap.Tracks,
		Options: &report.Options{
			CompanyName:    h.cfg.Report.CompanyName,
			IncludeRawData: h.cfg.Report.IncludeRawData || r.URL.Query().Get("raw") == "true",
			MaxTableRows:   h.cfg.Report.MaxTracksInPDF,
			PageNumbers:    h.cfg.Report.EnablePageNums,
		},
	}

	ctx := r.Context()
	if timeout := h.cfg.Report.GenerateTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// Секция потока по запросу
	if r.URL.Query().Get("from") != "" || r.URL.Query().Get("to") != "" {
		from, err := queryInt64(r, "from")
		if err != nil {
			writeError(w, err)
			return
		}
		to, err := queryInt64(r, "to")
		if err != nil {
			writeError(w, err)
			return
		}

		flow, err := h.svc.MaxFlow(ctx, networkID, from, to)
		if err != nil {
			writeError(w, err)
			return
		}
		data.Flow = &report.FlowSummary{
			From:              domain.StationID(flow.From),
			To:                domain.StationID(flow.To),
			MaxFlow:           flow.MaxFlow,
			Iterations:        flow.Iterations,
			ComputationTimeMs: flow.ComputationTimeMs,
		}
	}

	// Секция остовной сети по запросу
	if r.URL.Query().Get("selection") == "true" {
		best, err := h.svc.BestNetwork(ctx, networkID)
		if err != nil {
			writeError(w, err)
			return
		}
		data.Selection = &report.SelectionSummary{
			TrackIDs:          best.TrackIDs,
			TotalCost:         best.TotalCost,
			TotalGoodness:     best.TotalGoodness,
			ComputationTimeMs: best.ComputationTimeMs,
		}
	}

	gen, err := report.ForFormat(format)
	if err != nil {
		writeError(w, err)
		return
	}

	payload, err := gen.Generate(ctx, data)
	if err != nil {
		writeError(w, apperror.Wrap(err, apperror.CodeInternal, "failed to generate report"))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "network-"+networkID+format.Extension()))
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// ============================================================
// HELPERS
// ============================================================

func (h *Handler) solveContext(parent context.Context) (context.Context, context.CancelFunc) {
	if timeout := h.cfg.Planner.SolveTimeout; timeout > 0 {
		return context.WithTimeout(parent, timeout)
	}
	return context.WithCancel(parent)
}

func queryInt64(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, apperror.NewWithField(apperror.CodeInvalidArgument, "missing required query parameter", name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.NewWithField(apperror.CodeInvalidArgument, "query parameter must be an integer", name)
	}
	return v, nil
}
