package notification

import (
	"testing"
	"time"

	"auction-marketplace/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newNotification(kind models.NotificationKind, listingID, message string) models.Notification {
	return models.Notification{Kind: kind, ListingID: listingID, Message: message}
}

func TestQueue_Add(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	first := q.Add(newNotification(models.NotificationBid, "listing1", "first"))
	second := q.Add(models.Notification{
		Kind:           models.NotificationOutbid,
		ListingID:      "listing2",
		Message:        "second",
		NotificationID: "caller-supplied",
		Read:           true,
	})

	_, err := uuid.Parse(first.NotificationID)
	require.NoError(t, err, "NotificationID should be a valid UUID")
	require.NotEqual(t, "caller-supplied", second.NotificationID)
	require.NotEqual(t, first.NotificationID, second.NotificationID)
	require.False(t, second.Read)
	require.WithinDuration(t, time.Now().UTC(), first.CreatedAt, 2*time.Second)

	list := q.List()
	require.Len(t, list, 2)
	require.Equal(t, "second", list[0].Message, "newest notification comes first")
	require.Equal(t, "first", list[1].Message)
	require.Equal(t, 2, q.UnreadCount())
}

func TestQueue_ReadState(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	a := q.Add(newNotification(models.NotificationBid, "listing1", "a"))
	q.Add(newNotification(models.NotificationBid, "listing1", "b"))
	q.Add(newNotification(models.NotificationOutbid, "listing2", "c"))

	tests := []struct {
		name       string
		action     func()
		wantUnread int
	}{
		{name: "mark_one_read", action: func() { q.MarkRead(a.NotificationID) }, wantUnread: 2},
		{name: "mark_same_read_again", action: func() { q.MarkRead(a.NotificationID) }, wantUnread: 2},
		{name: "mark_unknown_read", action: func() { q.MarkRead("missing") }, wantUnread: 2},
		{name: "mark_all_read", action: q.MarkAllRead, wantUnread: 0},
		{name: "mark_all_read_twice", action: q.MarkAllRead, wantUnread: 0},
	}

	// steps share the queue and must run in order
	for _, tc := range tests {
		tc.action()
		require.Equal(t, tc.wantUnread, q.UnreadCount(), tc.name)
	}
	require.Len(t, q.List(), 3)
}

func TestQueue_Remove(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	a := q.Add(newNotification(models.NotificationBid, "listing1", "a"))
	b := q.Add(newNotification(models.NotificationBid, "listing1", "b"))

	q.Remove(a.NotificationID)
	require.Len(t, q.List(), 1)
	require.Equal(t, b.NotificationID, q.List()[0].NotificationID)

	// removing again or removing an unknown id is a no-op
	q.Remove(a.NotificationID)
	q.Remove("missing")
	require.Len(t, q.List(), 1)

	q.Clear()
	require.Empty(t, q.List())
	require.Equal(t, 0, q.UnreadCount())

	q.Clear()
	require.Empty(t, q.List())
}

func TestQueue_ListIsACopy(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	q.Add(newNotification(models.NotificationBid, "listing1", "a"))

	list := q.List()
	list[0].Read = true
	require.Equal(t, 1, q.UnreadCount())
}
