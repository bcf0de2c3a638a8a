package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/utils"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
)

// BidEvent is published whenever a bid is accepted
type BidEvent struct {
	EventID     string          `json:"event_id"`
	ListingID   string          `json:"listing_id"`
	BidID       string          `json:"bid_id"`
	BidderID    string          `json:"user_id"`
	SellerID    string          `json:"seller_id"`
	Amount      decimal.Decimal `json:"amount"`
	PreviousBid decimal.Decimal `json:"previous_bid"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Subject returns the subject a bid event for listingID is published on
func Subject(listingID string) string {
	return fmt.Sprintf("bid_events.%s", listingID)
}

// Publisher ships accepted-bid events to downstream consumers
type Publisher interface {
	PublishBid(ctx context.Context, event BidEvent) error
	Close() error
}

// conn is the subset of *nats.Conn the publisher needs
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// NATSPublisher publishes bid events to NATS core subjects
type NATSPublisher struct {
	conn conn
}

// NewNATSPublisher connects to the NATS server at url
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("auction-marketplace"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				utils.Warn("nats disconnected", map[string]any{"error": err.Error()})
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			utils.Info("nats reconnected", map[string]any{"url": nc.ConnectedUrl()})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w: %v", url, biddingerrors.ErrNetworkFailure, err)
	}
	return &NATSPublisher{conn: nc}, nil
}

// PublishBid marshals the event and publishes it on Subject(event.ListingID)
func (p *NATSPublisher) PublishBid(ctx context.Context, event BidEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal bid event: %w", err)
	}

	subject := Subject(event.ListingID)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w: %v", subject, biddingerrors.ErrNetworkFailure, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w: %v", subject, biddingerrors.ErrNetworkFailure, err)
	}
	return nil
}

// Close drains pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NopPublisher discards events; used when no broker is configured
type NopPublisher struct{}

func (NopPublisher) PublishBid(context.Context, BidEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
