package notification

import (
	"sync"

	"auction-marketplace/internal/models"
	"auction-marketplace/utils"
)

// subscriberBuffer bounds how far a push subscriber may lag before it is dropped
const subscriberBuffer = 32

// Center owns the notification queue of every user and fans new
// notifications out to live subscribers.
type Center struct {
	mu          sync.Mutex
	queues      map[string]*Queue
	subscribers map[string]map[*subscription]struct{}
}

type subscription struct {
	ch     chan models.Notification
	closed bool
}

// NewCenter creates an empty notification center
func NewCenter() *Center {
	return &Center{
		queues:      make(map[string]*Queue),
		subscribers: make(map[string]map[*subscription]struct{}),
	}
}

// For returns the queue belonging to userID, creating it on first use
func (c *Center) For(userID string) *Queue {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.queues[userID]
	if !ok {
		q = NewQueue()
		c.queues[userID] = q
	}
	return q
}

// Notify appends n to the user's queue and pushes the stored entry to subscribers
func (c *Center) Notify(userID string, n models.Notification) models.Notification {
	stored := c.For(userID).Add(n)

	c.mu.Lock()
	defer c.mu.Unlock()

	for sub := range c.subscribers[userID] {
		select {
		case sub.ch <- stored:
		default:
			// subscriber is not keeping up, drop it
			c.unsubscribeLocked(userID, sub)
			utils.Warn("notification subscriber dropped", map[string]any{"user_id": userID})
		}
	}

	return stored
}

// Subscribe returns a channel receiving every notification added for userID
// from now on. The cancel func releases the subscription; the channel is
// closed when the subscription ends for any reason.
func (c *Center) Subscribe(userID string) (<-chan models.Notification, func()) {
	sub := &subscription{ch: make(chan models.Notification, subscriberBuffer)}

	c.mu.Lock()
	if c.subscribers[userID] == nil {
		c.subscribers[userID] = make(map[*subscription]struct{})
	}
	c.subscribers[userID][sub] = struct{}{}
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.unsubscribeLocked(userID, sub)
	}
	return sub.ch, cancel
}

// SubscriberCount returns the number of live subscriptions for userID
func (c *Center) SubscriberCount(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.subscribers[userID])
}

func (c *Center) unsubscribeLocked(userID string, sub *subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)

	delete(c.subscribers[userID], sub)
	if len(c.subscribers[userID]) == 0 {
		delete(c.subscribers, userID)
	}
}
