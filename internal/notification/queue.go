package notification

import (
	"sync"
	"time"

	"auction-marketplace/internal/models"
	"auction-marketplace/utils"
)

// Queue is one user's notifications, newest first
type Queue struct {
	mu      sync.Mutex
	entries []models.Notification
	now     func() time.Time
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// Add assigns an id, marks the notification unread and puts it at the front.
// A zero CreatedAt is filled with the current time.
func (q *Queue) Add(n models.Notification) models.Notification {
	n.NotificationID = utils.GenerateID()
	n.Read = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = q.now().UTC()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = append([]models.Notification{n}, q.entries...)
	return n
}

// MarkRead flags one notification as read. Unknown ids are ignored.
func (q *Queue) MarkRead(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.entries {
		if q.entries[i].NotificationID == id {
			q.entries[i].Read = true
			return
		}
	}
}

// MarkAllRead flags every notification as read
func (q *Queue) MarkAllRead() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.entries {
		q.entries[i].Read = true
	}
}

// Remove dismisses one notification. Unknown ids are ignored.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.entries {
		if q.entries[i].NotificationID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return
		}
	}
}

// Clear dismisses every notification
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = nil
}

// List returns a copy of the notifications, newest first
func (q *Queue) List() []models.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	return append([]models.Notification{}, q.entries...)
}

// UnreadCount returns how many notifications have not been read
func (q *Queue) UnreadCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for _, n := range q.entries {
		if !n.Read {
			count++
		}
	}
	return count
}
