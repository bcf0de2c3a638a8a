package bidding

import (
	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/events"
	"auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/internal/storage"
	"auction-marketplace/utils"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// publishTimeout bounds a single fire-and-forget event publish
const publishTimeout = 5 * time.Second

// Notifier receives user-facing notifications
type Notifier interface {
	Notify(userID string, n models.Notification) models.Notification
}

// OutbidDetector is re-run after every change to the listing set and
// whenever a user signs in
type OutbidDetector interface {
	Evaluate(userID string) []models.Listing
	ListingChanged(listingID string) []string
	ListingsReplaced() int
}

// Settings carries the tunables the service needs from configuration
type Settings struct {
	DefaultDuration time.Duration
}

// BiddingService defines the business logic for the auction marketplace
type BiddingService struct {
	repo      repository.AuctionDB
	notifier  Notifier
	detector  OutbidDetector
	publisher events.Publisher
	images    storage.ImageStore
	settings  Settings
	now       func() time.Time

	inflight sync.WaitGroup
}

// NewBiddingService creates a new BiddingService instance.
// images may be nil, in which case listings are created without pictures.
func NewBiddingService(
	repo repository.AuctionDB,
	notifier Notifier,
	detector OutbidDetector,
	publisher events.Publisher,
	images storage.ImageStore,
	settings Settings,
) *BiddingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &BiddingService{
		repo:      repo,
		notifier:  notifier,
		detector:  detector,
		publisher: publisher,
		images:    images,
		settings:  settings,
		now:       time.Now,
	}
}

// PlaceBid validates and records a bid, returning the updated listing.
// A failed call leaves the listing untouched and has no side effects.
func (s *BiddingService) PlaceBid(listingID, bidderID string, amount decimal.Decimal) (models.Listing, error) {
	if bidderID == "" {
		return models.Listing{}, fmt.Errorf("service: %w - no bidder identity", biddingerrors.ErrUnauthenticated)
	}
	if listingID == "" {
		return models.Listing{}, fmt.Errorf("service: %w - empty listing ID", biddingerrors.ErrListingNotFound)
	}

	// the amount is recorded exactly as offered; AppendBid rejects anything
	// not strictly above the current bid, zero and negatives included
	bid := models.Bid{
		BidID:     utils.GenerateID(),
		ListingID: listingID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: s.now().UTC(),
	}

	listing, err := s.repo.AppendBid(bid)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to record bid on listing %s by user %s: %w", listingID, bidderID, err)
	}

	return listing, nil
}

// SubmitBid places a bid and then performs the follow-up work a successful bid
// triggers: telling the seller, re-running outbid detection for the listing and
// publishing the accepted bid.
func (s *BiddingService) SubmitBid(ctx context.Context, listingID, bidderID string, amount decimal.Decimal) (models.Listing, models.Bid, error) {
	listing, err := s.PlaceBid(listingID, bidderID, amount)
	if err != nil {
		return models.Listing{}, models.Bid{}, err
	}

	bid := listing.Bids[len(listing.Bids)-1]
	previous := listing.StartingBid
	if len(listing.Bids) > 1 {
		previous = listing.Bids[len(listing.Bids)-2].Amount
	}

	if listing.SellerID != "" && listing.SellerID != bidderID {
		s.notifier.Notify(listing.SellerID, models.Notification{
			Kind:      models.NotificationBid,
			Message:   fmt.Sprintf("New bid of $%s on your item %q", bid.Amount.StringFixed(models.MonetaryPrecision), listing.Title),
			ListingID: listing.ListingID,
		})
	}

	s.detector.ListingChanged(listing.ListingID)

	s.publishAsync(ctx, events.BidEvent{
		EventID:     utils.GenerateID(),
		ListingID:   listing.ListingID,
		BidID:       bid.BidID,
		BidderID:    bid.BidderID,
		SellerID:    listing.SellerID,
		Amount:      bid.Amount,
		PreviousBid: previous,
		Timestamp:   bid.CreatedAt,
	})

	return listing, bid, nil
}

// publishAsync ships the event without holding up the caller. Failures are
// logged and never retried; the accepted bid stands regardless.
func (s *BiddingService) publishAsync(ctx context.Context, event events.BidEvent) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()

		if err := s.publisher.PublishBid(pubCtx, event); err != nil {
			utils.Warn("failed to publish bid event", map[string]any{
				"listing_id":      event.ListingID,
				"bid_id":          event.BidID,
				"network_failure": errors.Is(err, biddingerrors.ErrNetworkFailure),
				"error":           err.Error(),
			})
		}
	}()
}

// Wait blocks until every in-flight event publish has finished
func (s *BiddingService) Wait() {
	s.inflight.Wait()
}

// GetBidsForListing returns all bids for a specific listing
func (s *BiddingService) GetBidsForListing(listingID string) ([]models.Bid, error) {
	if listingID == "" {
		return nil, fmt.Errorf("service: %w - empty listing ID", biddingerrors.ErrListingNotFound)
	}

	bids, err := s.repo.GetBidsByListing(listingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for listing %s: %w", listingID, err)
	}

	return bids, nil
}

// GetWinningBid returns the highest bid for a specific listing
func (s *BiddingService) GetWinningBid(listingID string) (models.Bid, error) {
	if listingID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty listing ID", biddingerrors.ErrListingNotFound)
	}

	winningBid, err := s.repo.GetWinningBid(listingID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get winning bid for listing %s: %w", listingID, err)
	}

	return winningBid, nil
}

// RefreshOutbid re-runs outbid detection for a user who has just signed in
// and returns the listings they were newly found outbid on.
func (s *BiddingService) RefreshOutbid(userID string) []models.Listing {
	outbid := s.detector.Evaluate(userID)
	if len(outbid) > 0 {
		utils.Info("outbid notifications emitted on sign in", map[string]any{
			"user_id":  userID,
			"listings": len(outbid),
		})
	}
	return outbid
}

// ListingsByBidder returns all listings a user has placed bids on
func (s *BiddingService) ListingsByBidder(userID string) ([]models.Listing, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", biddingerrors.ErrInvalidQuery)
	}

	return s.repo.GetListingsByBidder(userID), nil
}
