package bidding

import (
	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/clock"
	"auction-marketplace/internal/models"
	"auction-marketplace/utils"
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sort orders understood by ListListings
const (
	SortEndingSoon = "endingSoon"
	SortPriceLow   = "priceLow"
	SortPriceHigh  = "priceHigh"
	SortNewest     = "newest"
)

// ListingInput is what a seller submits to open an auction
type ListingInput struct {
	Title       string
	Description string
	Category    string
	StartingBid decimal.Decimal
	EndTime     time.Time // zero means now + Settings.DefaultDuration
	SellerID    string
	Image       io.Reader // optional
}

// ListingQuery filters and orders the listing set
type ListingQuery struct {
	Search   string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
	Limit    int
	SellerID string
}

// CreateListing validates the input, stores the optional image and opens the auction
func (s *BiddingService) CreateListing(ctx context.Context, in ListingInput) (models.Listing, error) {
	if in.SellerID == "" {
		return models.Listing{}, fmt.Errorf("service: %w - no seller identity", biddingerrors.ErrUnauthenticated)
	}

	now := s.now().UTC()
	if err := validateListing(in, now); err != nil {
		return models.Listing{}, err
	}

	end := in.EndTime.UTC()
	if in.EndTime.IsZero() {
		end = now.Add(s.settings.DefaultDuration)
	}

	listing := models.Listing{
		ListingID:   utils.GenerateID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		StartingBid: in.StartingBid.Round(models.MonetaryPrecision),
		EndTime:     end,
		SellerID:    in.SellerID,
		CreatedAt:   now,
		Bids:        []models.Bid{},
	}
	listing.CurrentBid = listing.StartingBid

	if in.Image != nil && s.images != nil {
		url, err := s.images.Save(ctx, in.Image, "listing")
		if err != nil {
			return models.Listing{}, fmt.Errorf("service: failed to store listing image: %w", err)
		}
		listing.ImageURL = url
	}

	if err := s.repo.AddListing(listing); err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to add listing: %w", err)
	}

	return listing, nil
}

func validateListing(in ListingInput, now time.Time) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return fmt.Errorf("service: %w - title is required", biddingerrors.ErrInvalidListing)
	case strings.TrimSpace(in.Description) == "":
		return fmt.Errorf("service: %w - description is required", biddingerrors.ErrInvalidListing)
	case !models.IsValidCategory(in.Category):
		return fmt.Errorf("service: %w - unknown category %q", biddingerrors.ErrInvalidListing, in.Category)
	case !in.StartingBid.IsPositive():
		return fmt.Errorf("service: %w - starting bid must be positive", biddingerrors.ErrInvalidListing)
	case !in.EndTime.IsZero() && !in.EndTime.After(now):
		return fmt.Errorf("service: %w - end time must be in the future", biddingerrors.ErrInvalidListing)
	}
	return nil
}

// GetListing returns a single listing
func (s *BiddingService) GetListing(listingID string) (models.Listing, error) {
	listing, err := s.repo.GetListing(listingID)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to get listing %s: %w", listingID, err)
	}
	return listing, nil
}

// ListListings returns the listings matching q in the requested order
func (s *BiddingService) ListListings(q ListingQuery) ([]models.Listing, error) {
	if q.Limit < 0 {
		return nil, fmt.Errorf("service: %w - negative limit", biddingerrors.ErrInvalidQuery)
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return nil, fmt.Errorf("service: %w - min price above max price", biddingerrors.ErrInvalidQuery)
	}

	compare, err := listingOrder(q.Sort)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	result := make([]models.Listing, 0)
	for _, l := range s.repo.ListListings() {
		if search != "" &&
			!strings.Contains(strings.ToLower(l.Title), search) &&
			!strings.Contains(strings.ToLower(l.Description), search) {
			continue
		}
		if q.Category != "" && l.Category != q.Category {
			continue
		}
		if q.SellerID != "" && l.SellerID != q.SellerID {
			continue
		}
		if q.MinPrice != nil && l.CurrentBid.LessThan(*q.MinPrice) {
			continue
		}
		if q.MaxPrice != nil && l.CurrentBid.GreaterThan(*q.MaxPrice) {
			continue
		}
		result = append(result, l)
	}

	slices.SortStableFunc(result, compare)

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

// ListingsBySeller returns a seller's listings, newest first
func (s *BiddingService) ListingsBySeller(sellerID string) ([]models.Listing, error) {
	if sellerID == "" {
		return nil, fmt.Errorf("service: %w - empty seller ID", biddingerrors.ErrInvalidQuery)
	}
	return s.ListListings(ListingQuery{SellerID: sellerID, Sort: SortNewest})
}

func listingOrder(sort string) (func(a, b models.Listing) int, error) {
	switch sort {
	case "", SortEndingSoon:
		return func(a, b models.Listing) int { return a.EndTime.Compare(b.EndTime) }, nil
	case SortPriceLow:
		return func(a, b models.Listing) int { return a.CurrentBid.Cmp(b.CurrentBid) }, nil
	case SortPriceHigh:
		return func(a, b models.Listing) int { return b.CurrentBid.Cmp(a.CurrentBid) }, nil
	case SortNewest:
		return func(a, b models.Listing) int { return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano()) }, nil
	default:
		return nil, fmt.Errorf("service: %w - unknown sort %q", biddingerrors.ErrInvalidQuery, sort)
	}
}

// Categories returns the categories that currently have at least one listing
func (s *BiddingService) Categories() []string {
	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, l := range s.repo.ListListings() {
		if !seen[l.Category] {
			seen[l.Category] = true
			categories = append(categories, l.Category)
		}
	}
	return categories
}

// Countdown returns the time left on a listing's auction
func (s *BiddingService) Countdown(listingID string) (models.Countdown, time.Time, error) {
	listing, err := s.GetListing(listingID)
	if err != nil {
		return models.Countdown{}, time.Time{}, err
	}
	return clock.Remaining(listing.EndTime, s.now()), listing.EndTime, nil
}

// ReplaceListings swaps in a whole listing set and re-runs outbid detection over it
func (s *BiddingService) ReplaceListings(listings []models.Listing) error {
	for _, l := range listings {
		if l.ListingID == "" {
			return fmt.Errorf("service: %w - empty listing ID", biddingerrors.ErrInvalidListing)
		}
		if !l.CurrentBid.Equal(currentBidOf(l)) {
			return fmt.Errorf("service: %w - listing %s current bid does not match its bids", biddingerrors.ErrInvalidListing, l.ListingID)
		}
	}

	s.repo.ReplaceListings(listings)
	emitted := s.detector.ListingsReplaced()

	utils.Info("listing set replaced", map[string]any{
		"listings":      len(listings),
		"outbid_events": emitted,
	})
	return nil
}

// currentBidOf derives max(starting bid, highest bid amount)
func currentBidOf(l models.Listing) decimal.Decimal {
	current := l.StartingBid
	for _, b := range l.Bids {
		if b.Amount.GreaterThan(current) {
			current = b.Amount
		}
	}
	return current
}
