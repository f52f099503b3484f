package reportshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/auth"
	"pms/internal/domain/reports"
	"pms/internal/requestctx"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
)

type Handler struct {
	Service *reports.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *reports.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermReportsRead, h.Perms))
		r.Get("/cycles/{id}", h.HandleCycleReport)
		r.Get("/appraisals/{id}/pdf", h.HandleAppraisalPDF)
	})
}

func (h *Handler) HandleCycleReport(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	report, err := h.Service.CycleReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, report, reqID)
}

func (h *Handler) HandleAppraisalPDF(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="performance-plan.pdf"`)
	if err := h.Service.AppraisalPDF(r.Context(), chi.URLParam(r, "id"), w); err != nil {
		api.FromError(w, err, reqID)
		return
	}
}
