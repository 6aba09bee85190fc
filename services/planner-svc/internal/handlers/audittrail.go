// services/planner-svc/internal/handlers/audittrail.go

package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"transit/pkg/audit"
	"transit/pkg/logger"
)

// ============================================================
// AUDIT TRAIL
// ============================================================

// auditRoute описывает, как аудитировать один маршрут
type auditRoute struct {
	action   audit.Action
	resource string
}

// auditedRoutes сопоставляет метод и шаблон маршрута с действием аудита.
// Маршруты вне таблицы не аудитируются.
var auditedRoutes = map[string]auditRoute{
	"POST /v1/auth/token":                       {audit.ActionLogin, "operator"},
	"POST /v1/networks":                         {audit.ActionCreate, "network"},
	"DELETE /v1/networks/{networkID}":           {audit.ActionDelete, "network"},
	"GET /v1/networks/{networkID}/maxflow":      {audit.ActionSolve, "network"},
	"GET /v1/networks/{networkID}/best-network": {audit.ActionSelect, "network"},
	"POST /v1/passengers":                       {audit.ActionCreate, "passenger"},
	"POST /v1/checkers/schedule":                {audit.ActionSchedule, "shift"},
}

// auditTrail записывает событие аудита для значимых операций API.
// Исход определяется по статусу ответа.
func (h *Handler) auditTrail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		pattern := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			pattern = rctx.RoutePattern()
		}

		route, ok := auditedRoutes[r.Method+" "+pattern]
		if !ok {
			return
		}

		entry := audit.NewEntry().
			Service(h.cfg.App.Name).
			Method(r.Method + " " + pattern).
			Action(route.action).
			Outcome(outcomeForStatus(ww.Status())).
			Client(r.RemoteAddr).
			Resource(route.resource, chi.URLParam(r, "networkID")).
			RequestID(chimw.GetReqID(r.Context())).
			Duration(time.Since(start)).
			Meta("status", ww.Status()).
			Build()

		if err := h.auditor.Log(r.Context(), entry); err != nil {
			logger.Log.Warn("Failed to write audit entry", "error", err)
		}
	})
}

func outcomeForStatus(status int) audit.Outcome {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return audit.OutcomeDenied
	case status >= 400:
		return audit.OutcomeFailure
	default:
		return audit.OutcomeSuccess
	}
}
