package cyclehandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/appraisal"
	"pms/internal/domain/auth"
	"pms/internal/domain/cycle"
	"pms/internal/requestctx"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
)

type Handler struct {
	Service    *cycle.Service
	Appraisals *appraisal.Service
	Perms      middleware.PermissionStore
}

func NewHandler(service *cycle.Service, appraisals *appraisal.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Appraisals: appraisals, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/cycles", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermCyclesRead, h.Perms)).Get("/", h.HandleList)
		r.With(middleware.RequirePermission(auth.PermCyclesRead, h.Perms)).Get("/{id}", h.HandleGet)
		r.With(middleware.RequirePermission(auth.PermCyclesRead, h.Perms)).Get("/{id}/appraisals", h.HandleListAppraisals)
		r.With(middleware.RequirePermission(auth.PermCyclesRead, h.Perms)).Get("/{id}/progress", h.HandleProgress)
		r.With(middleware.RequirePermission(auth.PermCyclesWrite, h.Perms)).Post("/", h.HandleCreate)
		r.With(middleware.RequirePermission(auth.PermCyclesWrite, h.Perms)).Put("/{id}", h.HandleUpdate)
		r.With(middleware.RequirePermission(auth.PermCyclesWrite, h.Perms)).Delete("/{id}", h.HandleDelete)
		r.With(middleware.RequirePermission(auth.PermCyclesActivate, h.Perms)).Post("/{id}/activate", h.HandleActivate)
		r.With(middleware.RequirePermission(auth.PermCyclesActivate, h.Perms)).Post("/{id}/advance", h.HandleAdvance)
	})
}

type cycleRequest struct {
	Name                 string   `json:"name"`
	Type                 string   `json:"type"`
	StartDate            string   `json:"startDate"`
	PlanningDurationDays int      `json:"planningDurationDays"`
	ResubmissionDays     int      `json:"resubmissionDays"`
	ApplyTo              string   `json:"applyTo"`
	EmployeeIDs          []string `json:"employeeIds"`
}

func (req cycleRequest) toCycle() (cycle.Cycle, error) {
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return cycle.Cycle{}, err
	}
	return cycle.Cycle{
		Name:                 req.Name,
		Type:                 req.Type,
		StartDate:            start,
		PlanningDurationDays: req.PlanningDurationDays,
		ResubmissionDays:     req.ResubmissionDays,
		ApplyTo:              req.ApplyTo,
		EmployeeIDs:          req.EmployeeIDs,
	}, nil
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	list, err := h.Service.List(r.Context())
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, list, reqID)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	c, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, c, reqID)
}

func (h *Handler) HandleListAppraisals(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	list, err := h.Appraisals.ListByCycle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, list, reqID)
}

func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	p, err := h.Service.Progress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, p, reqID)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	var req cycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	c, err := req.toCycle()
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "startDate must be YYYY-MM-DD", reqID)
		return
	}

	created, err := h.Service.Create(r.Context(), c)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	var req cycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	c, err := req.toCycle()
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "startDate must be YYYY-MM-DD", reqID)
		return
	}
	c.ID = chi.URLParam(r, "id")

	updated, err := h.Service.UpdateDraft(r.Context(), c)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, updated, reqID)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	result, err := h.Service.Activate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, result, reqID)
}

type advanceRequest struct {
	Target string `json:"target"`
}

func (h *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	c, err := h.Service.AdvancePhase(r.Context(), chi.URLParam(r, "id"), req.Target)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, c, reqID)
}
