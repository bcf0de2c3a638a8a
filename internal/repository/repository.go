package repository

import (
	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"
	"fmt"
	"sync"
)

// AuctionDB defines the listing and bid storage interface for the marketplace
type AuctionDB interface {
	AddListing(listing model.Listing) error
	ReplaceListings(listings []model.Listing)
	GetListing(listingID string) (model.Listing, error)
	ListListings() []model.Listing
	AppendBid(bid model.Bid) (model.Listing, error)
	GetBidsByListing(listingID string) ([]model.Bid, error)
	GetWinningBid(listingID string) (model.Bid, error)
	GetListingsByBidder(userID string) []model.Listing
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu          sync.RWMutex
	listings    map[string]*model.Listing // key: listingID -> value: listing with its bids
	order       []string                  // listing ids in insertion order
	userBidding map[string][]string       // key: userID -> value: list of listingIDs user has bid on
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		listings:    make(map[string]*model.Listing),
		userBidding: make(map[string][]string),
	}
}

// AddListing stores a new listing
func (r *MemoryRepo) AddListing(listing model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if listing.ListingID == "" {
		return fmt.Errorf("add listing: %w - empty listing ID", biddingerrors.ErrInvalidListing)
	}
	if _, exists := r.listings[listing.ListingID]; exists {
		return fmt.Errorf("add listing %s: %w - duplicate listing ID", listing.ListingID, biddingerrors.ErrInvalidListing)
	}

	r.insert(listing)
	return nil
}

// ReplaceListings swaps the whole listing set, rebuilding the bidder index
func (r *MemoryRepo) ReplaceListings(listings []model.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listings = make(map[string]*model.Listing, len(listings))
	r.order = r.order[:0]
	r.userBidding = make(map[string][]string)

	for _, l := range listings {
		r.insert(l)
	}
}

// insert must be called with the write lock held
func (r *MemoryRepo) insert(listing model.Listing) {
	stored := listing.Clone()
	if _, exists := r.listings[stored.ListingID]; !exists {
		r.order = append(r.order, stored.ListingID)
	}
	r.listings[stored.ListingID] = &stored
	for _, b := range stored.Bids {
		r.indexBidder(b.BidderID, stored.ListingID)
	}
}

// GetListing returns a copy of a listing
func (r *MemoryRepo) GetListing(listingID string) (model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, biddingerrors.ErrListingNotFound)
	}
	return listing.Clone(), nil
}

// ListListings returns copies of every listing in insertion order
func (r *MemoryRepo) ListListings() []model.Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listings := make([]model.Listing, 0, len(r.order))
	for _, id := range r.order {
		listings = append(listings, r.listings[id].Clone())
	}
	return listings
}

// AppendBid accepts a bid only if it beats the listing's current bid.
// The comparison and the append happen under one lock.
func (r *MemoryRepo) AppendBid(bid model.Bid) (model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[bid.ListingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("append bid for listing %s: %w", bid.ListingID, biddingerrors.ErrListingNotFound)
	}

	if !bid.Amount.GreaterThan(listing.CurrentBid) {
		return model.Listing{}, fmt.Errorf("append bid for listing %s: %w - current bid is %s",
			bid.ListingID, biddingerrors.ErrBidTooLow, listing.CurrentBid.StringFixed(model.MonetaryPrecision))
	}

	listing.Bids = append(listing.Bids, bid)
	listing.CurrentBid = bid.Amount
	r.indexBidder(bid.BidderID, bid.ListingID)

	return listing.Clone(), nil
}

// indexBidder must be called with the write lock held
func (r *MemoryRepo) indexBidder(userID, listingID string) {
	for _, id := range r.userBidding[userID] {
		if id == listingID {
			return
		}
	}
	r.userBidding[userID] = append(r.userBidding[userID], listingID)
}

// GetBidsByListing returns all bids for a listing in the order they were accepted
func (r *MemoryRepo) GetBidsByListing(listingID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, biddingerrors.ErrListingNotFound)
	}
	if len(listing.Bids) == 0 {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, biddingerrors.ErrNoBids)
	}
	return append([]model.Bid(nil), listing.Bids...), nil
}

// GetWinningBid returns the highest bid for a listing
func (r *MemoryRepo) GetWinningBid(listingID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Bid{}, fmt.Errorf("get winning bid for listing %s: %w", listingID, biddingerrors.ErrListingNotFound)
	}
	if len(listing.Bids) == 0 {
		return model.Bid{}, fmt.Errorf("get winning bid for listing %s: %w", listingID, biddingerrors.ErrNoBids)
	}

	// bids only ever increase, so the last accepted bid is the winner
	return listing.Bids[len(listing.Bids)-1], nil
}

// GetListingsByBidder returns all listings a user has bid on
func (r *MemoryRepo) GetListingsByBidder(userID string) []model.Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.userBidding[userID]
	listings := make([]model.Listing, 0, len(ids))
	for _, id := range ids {
		if listing, exists := r.listings[id]; exists {
			listings = append(listings, listing.Clone())
		}
	}
	return listings
}
