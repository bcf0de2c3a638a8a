package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	bidding "auction-marketplace/internal/biddingService"
	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/models"
	"auction-marketplace/services/bidding/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BiddingServiceInterface interface {
	SubmitBid(ctx context.Context, listingID, bidderID string, amount decimal.Decimal) (models.Listing, models.Bid, error)
	GetBidsForListing(listingID string) ([]models.Bid, error)
	GetWinningBid(listingID string) (models.Bid, error)
	ListingsByBidder(userID string) ([]models.Listing, error)
	ListingsBySeller(sellerID string) ([]models.Listing, error)
	CreateListing(ctx context.Context, in bidding.ListingInput) (models.Listing, error)
	GetListing(listingID string) (models.Listing, error)
	ListListings(q bidding.ListingQuery) ([]models.Listing, error)
	Categories() []string
	Countdown(listingID string) (models.Countdown, time.Time, error)
}

// Options holds presentation settings for the bidding endpoints
type Options struct {
	SuggestedRaise   decimal.Decimal
	CountdownRefresh time.Duration
}

type BiddingHandler struct {
	service BiddingServiceInterface
	opts    Options
	now     func() time.Time
}

func NewBiddingHandler(service BiddingServiceInterface, opts Options) *BiddingHandler {
	if opts.CountdownRefresh <= 0 {
		opts.CountdownRefresh = time.Second
	}
	return &BiddingHandler{service: service, opts: opts, now: time.Now}
}

// RecordBidHandler handles POST /products/:id/bids
func (h *BiddingHandler) RecordBidHandler(c *gin.Context) {
	listingID := c.Param("id")
	userID := helpers.CurrentUserID(c)

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RecordBidHandler", err)
		return
	}

	listing, bid, err := h.service.SubmitBid(c.Request.Context(), listingID, userID, helpers.ParseAmount(*req.Amount))
	if err != nil {
		helpers.RespondError(c, "RecordBidHandler", err, map[string]any{
			"listing_id": listingID,
			"user_id":    userID,
			"amount":     *req.Amount,
		})
		return
	}

	resp := helpers.PlaceBidResponse{
		Bid:     helpers.ToBidResponse(bid),
		Listing: helpers.ToListingResponse(listing, h.opts.SuggestedRaise, h.now()),
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid recorded successfully")
	helpers.LogSuccess("RecordBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     bid.BidID,
		"listing_id": listingID,
		"user_id":    userID,
		"amount":     bid.Amount.String(),
	})
}

// GetBidsByListingHandler handles GET /products/:id/bids
func (h *BiddingHandler) GetBidsByListingHandler(c *gin.Context) {
	listingID := c.Param("id")
	bids, err := h.service.GetBidsForListing(listingID)
	if err != nil && !errors.Is(err, biddingerrors.ErrNoBids) {
		helpers.RespondError(c, "GetBidsByListingHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	resp := helpers.ToBidResponses(bids)

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByListingHandler", "bids retrieved successfully", map[string]any{
		"listing_id": listingID,
		"count":      len(resp),
	})
}

// GetWinningBidHandler handles GET /products/:id/winning
func (h *BiddingHandler) GetWinningBidHandler(c *gin.Context) {
	listingID := c.Param("id")
	bid, err := h.service.GetWinningBid(listingID)
	if err != nil {
		// no bids yet means nobody is winning
		if errors.Is(err, biddingerrors.ErrNoBids) {
			utils.JSONError(c, http.StatusNotFound, err, "no winning bid found")
			utils.Info("GetWinningBidHandler: no winning bid found", map[string]any{"listing_id": listingID})
			return
		}
		helpers.RespondError(c, "GetWinningBidHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToBidResponse(bid), "winning bid retrieved successfully")
	helpers.LogSuccess("GetWinningBidHandler", "winning bid retrieved successfully", map[string]any{
		"bid_id":     bid.BidID,
		"listing_id": bid.ListingID,
		"user_id":    bid.BidderID,
		"amount":     bid.Amount.String(),
	})
}

// GetListingsByBidderHandler handles GET /users/:user_id/bids
func (h *BiddingHandler) GetListingsByBidderHandler(c *gin.Context) {
	userID := c.Param("user_id")
	listings, err := h.service.ListingsByBidder(userID)
	if err != nil {
		helpers.RespondError(c, "GetListingsByBidderHandler", err, map[string]any{"user_id": userID})
		return
	}

	resp := helpers.ToListingResponses(listings, h.opts.SuggestedRaise, h.now())

	utils.JSONResponse(c, http.StatusOK, resp, "products retrieved successfully")
	helpers.LogSuccess("GetListingsByBidderHandler", "products retrieved successfully", map[string]any{
		"user_id":        userID,
		"listings_count": len(resp),
	})
}

// GetListingsBySellerHandler handles GET /users/:user_id/listings
func (h *BiddingHandler) GetListingsBySellerHandler(c *gin.Context) {
	userID := c.Param("user_id")
	listings, err := h.service.ListingsBySeller(userID)
	if err != nil {
		helpers.RespondError(c, "GetListingsBySellerHandler", err, map[string]any{"user_id": userID})
		return
	}

	resp := helpers.ToListingResponses(listings, h.opts.SuggestedRaise, h.now())

	utils.JSONResponse(c, http.StatusOK, resp, "products retrieved successfully")
	helpers.LogSuccess("GetListingsBySellerHandler", "products retrieved successfully", map[string]any{
		"user_id":        userID,
		"listings_count": len(resp),
	})
}
