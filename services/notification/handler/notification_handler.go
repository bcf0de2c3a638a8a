package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/models"
	"auction-marketplace/internal/notification"
	"auction-marketplace/services/bidding/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

// NotificationCenter is the per-user notification store with live push
type NotificationCenter interface {
	For(userID string) *notification.Queue
	Subscribe(userID string) (<-chan models.Notification, func())
}

type NotificationHandler struct {
	center NotificationCenter
}

func NewNotificationHandler(center NotificationCenter) *NotificationHandler {
	return &NotificationHandler{center: center}
}

// queueFor resolves the caller's queue or writes a 401
func (h *NotificationHandler) queueFor(c *gin.Context, handlerName string) (string, *notification.Queue, bool) {
	userID := helpers.CurrentUserID(c)
	if userID == "" {
		helpers.RespondError(c, handlerName, fmt.Errorf("handler: %w", biddingerrors.ErrUnauthenticated), nil)
		return "", nil, false
	}
	return userID, h.center.For(userID), true
}

func respondList(c *gin.Context, q *notification.Queue, message string) {
	utils.JSONResponse(c, http.StatusOK, helpers.ToNotificationList(q.List(), q.UnreadCount()), message)
}

// ListHandler handles GET /notifications
func (h *NotificationHandler) ListHandler(c *gin.Context) {
	_, q, ok := h.queueFor(c, "ListHandler")
	if !ok {
		return
	}
	respondList(c, q, "notifications retrieved successfully")
}

// MarkReadHandler handles POST /notifications/:id/read
func (h *NotificationHandler) MarkReadHandler(c *gin.Context) {
	userID, q, ok := h.queueFor(c, "MarkReadHandler")
	if !ok {
		return
	}
	q.MarkRead(c.Param("id"))

	respondList(c, q, "notification marked as read")
	helpers.LogSuccess("MarkReadHandler", "notification marked as read", map[string]any{
		"user_id":         userID,
		"notification_id": c.Param("id"),
	})
}

// MarkAllReadHandler handles POST /notifications/read-all
func (h *NotificationHandler) MarkAllReadHandler(c *gin.Context) {
	userID, q, ok := h.queueFor(c, "MarkAllReadHandler")
	if !ok {
		return
	}
	q.MarkAllRead()

	respondList(c, q, "all notifications marked as read")
	helpers.LogSuccess("MarkAllReadHandler", "all notifications marked as read", map[string]any{"user_id": userID})
}

// RemoveHandler handles DELETE /notifications/:id
func (h *NotificationHandler) RemoveHandler(c *gin.Context) {
	userID, q, ok := h.queueFor(c, "RemoveHandler")
	if !ok {
		return
	}
	q.Remove(c.Param("id"))

	respondList(c, q, "notification removed")
	helpers.LogSuccess("RemoveHandler", "notification removed", map[string]any{
		"user_id":         userID,
		"notification_id": c.Param("id"),
	})
}

// ClearHandler handles DELETE /notifications
func (h *NotificationHandler) ClearHandler(c *gin.Context) {
	userID, q, ok := h.queueFor(c, "ClearHandler")
	if !ok {
		return
	}
	q.Clear()

	respondList(c, q, "notifications cleared")
	helpers.LogSuccess("ClearHandler", "notifications cleared", map[string]any{"user_id": userID})
}

// StreamHandler handles GET /ws/notifications, pushing each new notification
// for the caller as it is created.
func (h *NotificationHandler) StreamHandler(c *gin.Context) {
	userID, _, ok := h.queueFor(c, "StreamHandler")
	if !ok {
		return
	}

	conn, err := helpers.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Warn("StreamHandler: upgrade failed", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}
	defer helpers.Close(conn)

	updates, unsubscribe := h.center.Subscribe(userID)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	helpers.WatchPeer(conn, cancel)

	ticker := time.NewTicker(helpers.PingPeriod)
	defer ticker.Stop()

	utils.Info("StreamHandler: subscriber connected", map[string]any{"user_id": userID})
	defer utils.Info("StreamHandler: subscriber disconnected", map[string]any{"user_id": userID})

	for {
		select {
		case <-ctx.Done():
			return
		case n, open := <-updates:
			if !open {
				// dropped for falling behind
				return
			}
			if err := helpers.WriteJSON(conn, helpers.ToNotificationResponse(n)); err != nil {
				return
			}
		case <-ticker.C:
			if err := helpers.WritePing(conn); err != nil {
				return
			}
		}
	}
}
