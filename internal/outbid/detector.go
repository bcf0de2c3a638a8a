// Package outbid tells bidders when their highest bid on a listing has been beaten.
//
// Each (user, listing) pair is notified at most once per generation, where the
// generation is the number of bids the user has placed on that listing. A new
// bid from the user starts a new generation and re-arms the notification.
package outbid

import (
	"fmt"
	"sync"

	"auction-marketplace/internal/models"
)

// Notifier receives the outbid notifications emitted by the detector
type Notifier interface {
	Notify(userID string, n models.Notification) models.Notification
}

type key struct {
	userID    string
	listingID string
}

// ListingSource is the store the detector reads current listing state from
type ListingSource interface {
	GetListing(listingID string) (models.Listing, error)
	ListListings() []models.Listing
	GetListingsByBidder(userID string) []models.Listing
}

// Detector tracks which supersession events have already been reported.
// Listings are read from the source while the detector's lock is held.
type Detector struct {
	mu       sync.Mutex
	notifier Notifier
	source   ListingSource
	notified map[key]int // generation last reported per (user, listing)
}

// NewDetector creates a detector reading from source and reporting through notifier
func NewDetector(notifier Notifier, source ListingSource) *Detector {
	return &Detector{
		notifier: notifier,
		source:   source,
		notified: make(map[key]int),
	}
}

// Evaluate returns the listings on which userID is currently outbid and has
// not yet been told so, emitting one outbid notification for each.
func (d *Detector) Evaluate(userID string) []models.Listing {
	if userID == "" {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var outbid []models.Listing
	for _, l := range d.source.GetListingsByBidder(userID) {
		if d.evaluateLocked(userID, l) {
			outbid = append(outbid, l)
		}
	}
	return outbid
}

// ListingChanged re-evaluates every bidder of a single listing.
// It returns the ids of the users that were newly notified.
func (d *Detector) ListingChanged(listingID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	listing, err := d.source.GetListing(listingID)
	if err != nil {
		return nil
	}

	var users []string
	for _, userID := range listing.Bidders() {
		if d.evaluateLocked(userID, listing) {
			users = append(users, userID)
		}
	}
	return users
}

// ListingsReplaced re-evaluates every bidder of every listing, typically after
// the listing set has been loaded or swapped wholesale.
func (d *Detector) ListingsReplaced() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	emitted := 0
	for _, l := range d.source.ListListings() {
		for _, userID := range l.Bidders() {
			if d.evaluateLocked(userID, l) {
				emitted++
			}
		}
	}
	return emitted
}

// evaluateLocked must be called with d.mu held
func (d *Detector) evaluateLocked(userID string, l models.Listing) bool {
	highest, generation := l.HighestBidBy(userID)
	if generation == 0 || !l.CurrentBid.GreaterThan(highest) {
		return false
	}

	k := key{userID: userID, listingID: l.ListingID}
	if d.notified[k] == generation {
		return false
	}
	d.notified[k] = generation

	d.notifier.Notify(userID, models.Notification{
		Kind:      models.NotificationOutbid,
		Message:   fmt.Sprintf("You've been outbid on %s!", l.Title),
		ListingID: l.ListingID,
	})
	return true
}
