package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/exception-notifier/backend/internal/model"
	"github.com/gin-gonic/gin"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 500
)

// notificationRepo - 전송 기록 조회 인터페이스
type notificationRepo interface {
	ListNotifications(ctx context.Context, limit int) ([]model.NotificationRecord, error)
}

// NotificationHandler - 전송 기록 조회 핸들러
type NotificationHandler struct {
	repo notificationRepo
}

// repo가 nil이면 503 응답 (Postgres 미설정)
func NewNotificationHandler(repo notificationRepo) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

// ListNotifications godoc
// @Summary List recent exception notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max rows (default 50, max 500)"
// @Success 200 {object} model.NotificationListResponse
// @Failure 400,500,503 {object} model.ErrorResponse
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: "notification history is not configured"})
		return
	}

	limit := defaultNotificationLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = min(n, maxNotificationLimit)
	}

	list, err := h.repo.ListNotifications(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.NotificationListResponse{Status: "success", Data: list})
}
