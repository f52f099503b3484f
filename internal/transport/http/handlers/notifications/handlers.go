package notificationshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/notifications"
	"pms/internal/requestctx"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
)

type Handler struct {
	Service *notifications.Service
}

func NewHandler(service *notifications.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/{id}/read", h.HandleMarkRead)
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	list, err := h.Service.ListForUser(r.Context(), user.UserID, unreadOnly)
	if err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, list, reqID)
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	if err := h.Service.MarkRead(r.Context(), chi.URLParam(r, "id"), user.UserID); err != nil {
		api.FromError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": "read"}, reqID)
}
