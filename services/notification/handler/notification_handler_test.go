package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/notification"
	"auction-marketplace/services/bidding/helpers"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func setupRouter(center *notification.Center, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewNotificationHandler(center)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(helpers.UserKey, model.User{UserID: userID})
		}
		c.Next()
	})
	router.GET("/notifications", h.ListHandler)
	router.POST("/notifications/read-all", h.MarkAllReadHandler)
	router.POST("/notifications/:id/read", h.MarkReadHandler)
	router.DELETE("/notifications/:id", h.RemoveHandler)
	router.DELETE("/notifications", h.ClearHandler)
	router.GET("/ws/notifications", h.StreamHandler)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path string) (int, helpers.NotificationListResponse) {
	t.Helper()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))

	var envelope struct {
		Data helpers.NotificationListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w.Code, envelope.Data
}

func TestNotificationHandlers(t *testing.T) {
	t.Parallel()

	center := notification.NewCenter()
	router := setupRouter(center, "user1")

	first := center.Notify("user1", model.Notification{Kind: model.NotificationBid, Message: "New bid", ListingID: "listing1"})
	second := center.Notify("user1", model.Notification{Kind: model.NotificationOutbid, Message: "You've been outbid on Camera!", ListingID: "listing2"})
	center.Notify("user2", model.Notification{Kind: model.NotificationBid, Message: "not yours"})

	code, list := doRequest(t, router, http.MethodGet, "/notifications")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, list.Notifications, 2)
	require.Equal(t, 2, list.UnreadCount)
	// newest first
	require.Equal(t, second.NotificationID, list.Notifications[0].ID)
	require.Equal(t, "outbid", list.Notifications[0].Type)
	require.Equal(t, "listing2", list.Notifications[0].ProductID)

	code, list = doRequest(t, router, http.MethodPost, "/notifications/"+first.NotificationID+"/read")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, list.UnreadCount)

	// unknown ids are ignored
	code, list = doRequest(t, router, http.MethodPost, "/notifications/does-not-exist/read")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, list.UnreadCount)

	for i := 0; i < 2; i++ {
		code, list = doRequest(t, router, http.MethodPost, "/notifications/read-all")
		require.Equal(t, http.StatusOK, code)
		require.Zero(t, list.UnreadCount)
	}

	code, list = doRequest(t, router, http.MethodDelete, "/notifications/"+second.NotificationID)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, list.Notifications, 1)
	require.Equal(t, first.NotificationID, list.Notifications[0].ID)

	code, list = doRequest(t, router, http.MethodDelete, "/notifications")
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, list.Notifications)

	// other users are untouched
	require.Len(t, center.For("user2").List(), 1)
}

func TestNotificationHandlers_Anonymous(t *testing.T) {
	t.Parallel()

	router := setupRouter(notification.NewCenter(), "")

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/notifications"},
		{http.MethodPost, "/notifications/read-all"},
		{http.MethodPost, "/notifications/abc/read"},
		{http.MethodDelete, "/notifications/abc"},
		{http.MethodDelete, "/notifications"},
		{http.MethodGet, "/ws/notifications"},
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		require.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestStreamHandler(t *testing.T) {
	t.Parallel()

	center := notification.NewCenter()
	srv := httptest.NewServer(setupRouter(center, "user1"))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return center.SubscriberCount("user1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	sent := center.Notify("user1", model.Notification{Kind: model.NotificationOutbid, Message: "You've been outbid on Camera!", ListingID: "listing1"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got helpers.NotificationResponse
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, sent.NotificationID, got.ID)
	require.Equal(t, "outbid", got.Type)
	require.False(t, got.Read)

	// closing the socket releases the subscription
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return center.SubscriberCount("user1") == 0
	}, 2*time.Second, 10*time.Millisecond)
}
