package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonetaryPrecision is the number of decimal places kept for bid amounts
const MonetaryPrecision int32 = 2

// Categories a listing may be filed under
var Categories = []string{
	"Electronics",
	"Fashion",
	"Home & Garden",
	"Sports",
	"Toys & Hobbies",
	"Jewelry",
	"Art",
	"Collectibles",
	"Vehicles",
	"Other",
}

// IsValidCategory reports whether c is one of Categories
func IsValidCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// User represents a registered marketplace participant
type User struct {
	UserID          string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    []byte    `json:"-"`
	ProfileImageURL string    `json:"profile_image,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Listing represents an item put up for auction.
// CurrentBid always equals max(StartingBid, highest bid amount).
type Listing struct {
	ListingID   string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	StartingBid decimal.Decimal `json:"starting_bid"`
	CurrentBid  decimal.Decimal `json:"current_bid"`
	EndTime     time.Time       `json:"end_time"`
	SellerID    string          `json:"seller_id"`
	ImageURL    string          `json:"image,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Bids        []Bid           `json:"bids"`
}

// Clone returns a copy of the listing that shares no bid slice with l
func (l Listing) Clone() Listing {
	l.Bids = append([]Bid(nil), l.Bids...)
	return l
}

// HighestBidBy returns the highest amount userID has bid on the listing
// and the number of bids they placed on it.
func (l Listing) HighestBidBy(userID string) (decimal.Decimal, int) {
	var (
		highest decimal.Decimal
		count   int
	)
	for _, b := range l.Bids {
		if b.BidderID != userID {
			continue
		}
		if count == 0 || b.Amount.GreaterThan(highest) {
			highest = b.Amount
		}
		count++
	}
	return highest, count
}

// Bidders returns the distinct bidder ids in order of their first bid
func (l Listing) Bidders() []string {
	seen := make(map[string]struct{}, len(l.Bids))
	bidders := make([]string, 0, len(l.Bids))
	for _, b := range l.Bids {
		if _, ok := seen[b.BidderID]; ok {
			continue
		}
		seen[b.BidderID] = struct{}{}
		bidders = append(bidders, b.BidderID)
	}
	return bidders
}

// Bid represents a user's offer on a listing
type Bid struct {
	BidID     string          `json:"bid_id"`
	ListingID string          `json:"listing_id"`
	BidderID  string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// NotificationKind distinguishes the events a user is told about
type NotificationKind string

const (
	NotificationBid    NotificationKind = "bid"
	NotificationOutbid NotificationKind = "outbid"
)

// Notification is a user-facing event with read state
type Notification struct {
	NotificationID string           `json:"id"`
	Kind           NotificationKind `json:"type"`
	Message        string           `json:"message"`
	ListingID      string           `json:"product_id"`
	CreatedAt      time.Time        `json:"time"`
	Read           bool             `json:"read"`
}

// Countdown is the remaining time until a listing's end time
type Countdown struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
	Expired bool  `json:"expired"`
}
