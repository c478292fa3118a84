package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/imovlocal/backend/internal/api/dto"
	"github.com/imovlocal/backend/internal/domain/notification"
	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/pkg/utils"
	"github.com/imovlocal/backend/internal/pkg/validator"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	service   notification.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(service notification.Service, log *logger.Logger, val *validator.Validator) *NotificationHandler {
	return &NotificationHandler{
		service:   service,
		logger:    log,
		validator: val,
	}
}

// List handles GET /api/v1/notifications
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Param unread_only query bool false "Only unread"
// @Param limit query int false "Max items (default 50, max 100)"
// @Success 200 {array} notification.Notification
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	page := utils.ParsePaginationParams(r)
	items, err := h.service.List(r.Context(), notification.Filter{
		UserID:     u.ID,
		UnreadOnly: utils.QueryBool(r, "unread_only"),
		Limit:      page.Limit,
	})
	if err != nil {
		respondError(w, h.logger, err, "Failed to list notifications")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, emptyIfNil(items))
}

// UnreadCount handles GET /api/v1/notifications/unread-count
// @Summary Count unread notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} dto.UnreadCountDTO
// @Security BearerAuth
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	n, err := h.service.CountUnread(r.Context(), u.ID)
	if err != nil {
		respondError(w, h.logger, err, "Failed to count notifications")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.UnreadCountDTO{Count: n})
}

// MarkRead handles PUT /api/v1/notifications/{id}/read
// @Summary Mark notification read
// @Tags Notifications
// @Param id path string true "Notification ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse "Notification not found"
// @Security BearerAuth
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkRead(r.Context(), chi.URLParam(r, "id"), u.ID); err != nil {
		respondError(w, h.logger, err, "Failed to mark notification read")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Notification marked as read", nil)
}

// MarkAllRead handles PUT /api/v1/notifications/read-all
// @Summary Mark every notification read
// @Tags Notifications
// @Produce json
// @Success 200 {object} dto.MarkAllReadDTO
// @Security BearerAuth
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	n, err := h.service.MarkAllRead(r.Context(), u.ID)
	if err != nil {
		respondError(w, h.logger, err, "Failed to mark notifications read")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.MarkAllReadDTO{Updated: n})
}

// Delete handles DELETE /api/v1/notifications/{id}
// @Summary Delete notification
// @Tags Notifications
// @Param id path string true "Notification ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse "Not the recipient"
// @Failure 404 {object} utils.ErrorResponse "Notification not found"
// @Security BearerAuth
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), u.ID); err != nil {
		respondError(w, h.logger, err, "Failed to delete notification")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Notification deleted", nil)
}

// Broadcast handles POST /api/v1/admin/notifications/broadcast
// @Summary Broadcast a system notification
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body dto.BroadcastRequest true "Announcement"
// @Success 200 {object} notification.BroadcastResult
// @Failure 400 {object} utils.ErrorResponse "Validation error"
// @Failure 403 {object} utils.ErrorResponse "Admin only"
// @Security BearerAuth
// @Router /admin/notifications/broadcast [post]
func (h *NotificationHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.BroadcastRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	res, err := h.service.Broadcast(r.Context(), u, req.ToInput())
	if err != nil {
		respondError(w, h.logger, err, "Failed to broadcast notification")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, res)
}

// Stats handles GET /api/v1/admin/notifications/stats
// @Summary Broadcast reach
// @Tags Admin
// @Produce json
// @Success 200 {object} notification.Stats
// @Failure 403 {object} utils.ErrorResponse "Admin only"
// @Security BearerAuth
// @Router /admin/notifications/stats [get]
func (h *NotificationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), u)
	if err != nil {
		respondError(w, h.logger, err, "Failed to get notification stats")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, stats)
}
