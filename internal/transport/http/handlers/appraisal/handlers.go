package appraisalhandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/appraisal"
	"pms/internal/domain/auth"
	"pms/internal/requestctx"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
)

type Handler struct {
	Service *appraisal.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *appraisal.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/appraisals", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAppraisalsRead, h.Perms)).Get("/mine", h.HandleListMine)
		r.With(middleware.RequirePermission(auth.PermAppraisalsRead, h.Perms)).Get("/{id}", h.HandleGet)
		r.With(middleware.RequirePermission(auth.PermAppraisalsWrite, h.Perms)).Patch("/{id}", h.HandleWrite)
		r.With(middleware.RequirePermission(auth.PermAppraisalsWrite, h.Perms)).Post("/{id}/submit", h.HandleSubmit)
		r.With(middleware.RequirePermission(auth.PermAppraisalsAct, h.Perms)).Post("/{id}/approve", h.HandleApprove)
		r.With(middleware.RequirePermission(auth.PermAppraisalsAct, h.Perms)).Post("/{id}/reject", h.HandleReject)
	})
}

// actor derives the domain actor from the authenticated caller. HR and
// system admins take the administrative path.
func actor(r *http.Request) appraisal.Actor {
	user, _ := middleware.GetUser(r.Context())
	return appraisal.Actor{
		EmployeeID: user.EmployeeID,
		Admin:      user.RoleName == auth.RoleHRManager || user.RoleName == auth.RoleSystemAdmin,
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	view, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, view, reqID)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	if user.EmployeeID == "" {
		api.Fail(w, http.StatusForbidden, "no_employee", "no employee record linked to this account", reqID)
		return
	}
	list, err := h.Service.ListForEmployee(r.Context(), user.EmployeeID)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, list, reqID)
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	a, err := h.Service.Submit(r.Context(), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, a, reqID)
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	a, err := h.Service.Approve(r.Context(), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, a, reqID)
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	a, err := h.Service.Reject(r.Context(), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, a, reqID)
}

func (h *Handler) HandleWrite(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	var payload appraisal.WritePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Service.Write(r.Context(), id, actor(r), payload); err != nil {
		api.FromError(w, err, reqID)
		return
	}

	view, err := h.Service.Get(r.Context(), id, actor(r))
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, view, reqID)
}
