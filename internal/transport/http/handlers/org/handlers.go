package orghandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/auth"
	"pms/internal/domain/org"
	"pms/internal/requestctx"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
)

type Handler struct {
	Service *org.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *org.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.HandleList)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/{id}", h.HandleGet)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/", h.HandleCreate)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/{id}", h.HandleUpdate)
	})
	r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).
		Get("/evaluation-groups", h.HandleListGroups)
	r.With(middleware.RequirePermission(auth.PermSystemAdmin, h.Perms)).
		Post("/permissions/recompute", h.HandleRecompute)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	list, err := h.Service.ListEmployees(r.Context())
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, list, reqID)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	e, err := h.Service.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, e, reqID)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	var e org.Employee
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	id, err := h.Service.CreateEmployee(r.Context(), e)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	e.ID = id
	api.Created(w, e, reqID)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	var e org.Employee
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	e.ID = chi.URLParam(r, "id")

	if err := h.Service.UpdateEmployee(r.Context(), e); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, e, reqID)
}

func (h *Handler) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	groups, err := h.Service.ListGroups(r.Context())
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, groups, reqID)
}

type recomputeRequest struct {
	AccountIDs []string `json:"accountIds"`
}

func (h *Handler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	var req recomputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	if err := h.Service.RecomputePermissions(r.Context(), req.AccountIDs); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": "recomputed"}, reqID)
}
