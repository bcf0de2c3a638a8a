package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	bidding "auction-marketplace/internal/biddingService"
	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/services/bidding/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ListListingsHandler handles GET /products
func (h *BiddingHandler) ListListingsHandler(c *gin.Context) {
	q, err := parseListingQuery(c)
	if err != nil {
		helpers.RespondError(c, "ListListingsHandler", err, map[string]any{"query": c.Request.URL.RawQuery})
		return
	}

	listings, err := h.service.ListListings(q)
	if err != nil {
		helpers.RespondError(c, "ListListingsHandler", err, map[string]any{"query": c.Request.URL.RawQuery})
		return
	}

	resp := helpers.ToListingResponses(listings, h.opts.SuggestedRaise, h.now())

	utils.JSONResponse(c, http.StatusOK, resp, "products retrieved successfully")
	helpers.LogSuccess("ListListingsHandler", "products retrieved successfully", map[string]any{
		"count": len(resp),
		"sort":  q.Sort,
	})
}

func parseListingQuery(c *gin.Context) (bidding.ListingQuery, error) {
	q := bidding.ListingQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Sort:     c.Query("sort"),
	}

	var err error
	if q.MinPrice, err = optionalDecimal(c.Query("min_price")); err != nil {
		return q, fmt.Errorf("handler: %w - min_price: %v", biddingerrors.ErrInvalidQuery, err)
	}
	if q.MaxPrice, err = optionalDecimal(c.Query("max_price")); err != nil {
		return q, fmt.Errorf("handler: %w - max_price: %v", biddingerrors.ErrInvalidQuery, err)
	}
	if raw := c.Query("limit"); raw != "" {
		if q.Limit, err = strconv.Atoi(raw); err != nil {
			return q, fmt.Errorf("handler: %w - limit: %v", biddingerrors.ErrInvalidQuery, err)
		}
	}
	return q, nil
}

func optionalDecimal(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CategoriesHandler handles GET /products/categories
func (h *BiddingHandler) CategoriesHandler(c *gin.Context) {
	categories := h.service.Categories()
	utils.JSONResponse(c, http.StatusOK, categories, "categories retrieved successfully")
}

// GetListingHandler handles GET /products/:id
func (h *BiddingHandler) GetListingHandler(c *gin.Context) {
	listingID := c.Param("id")
	listing, err := h.service.GetListing(listingID)
	if err != nil {
		helpers.RespondError(c, "GetListingHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToListingResponse(listing, h.opts.SuggestedRaise, h.now()), "product retrieved successfully")
}

// CreateListingHandler handles POST /products (multipart form)
func (h *BiddingHandler) CreateListingHandler(c *gin.Context) {
	userID := helpers.CurrentUserID(c)

	in, closer, err := parseListingForm(c, userID)
	if closer != nil {
		defer closer.Close()
	}
	if err != nil {
		helpers.RespondError(c, "CreateListingHandler", err, map[string]any{"user_id": userID})
		return
	}

	listing, err := h.service.CreateListing(c.Request.Context(), in)
	if err != nil {
		helpers.RespondError(c, "CreateListingHandler", err, map[string]any{
			"user_id":  userID,
			"title":    in.Title,
			"category": in.Category,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToListingResponse(listing, h.opts.SuggestedRaise, h.now()), "product created successfully")
	helpers.LogSuccess("CreateListingHandler", "product created successfully", map[string]any{
		"listing_id": listing.ListingID,
		"seller_id":  listing.SellerID,
		"end_time":   listing.EndTime,
	})
}

// parseListingForm reads the multipart listing form. The returned closer, when
// non-nil, must be closed once the image has been consumed.
func parseListingForm(c *gin.Context, userID string) (bidding.ListingInput, io.Closer, error) {
	in := bidding.ListingInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		SellerID:    userID,
	}

	if sellerID := c.PostForm("seller_id"); sellerID != "" && userID != "" && sellerID != userID {
		return in, nil, fmt.Errorf("handler: %w - seller_id does not match the signed in user", biddingerrors.ErrInvalidListing)
	}

	startingBid, err := decimal.NewFromString(c.PostForm("starting_bid"))
	if err != nil {
		return in, nil, fmt.Errorf("handler: %w - starting_bid: %v", biddingerrors.ErrInvalidListing, err)
	}
	in.StartingBid = startingBid

	if raw := c.PostForm("end_time"); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return in, nil, fmt.Errorf("handler: %w - end_time: %v", biddingerrors.ErrInvalidListing, err)
		}
		in.EndTime = end
	}

	header, err := c.FormFile("image")
	if err != nil {
		// the image is optional
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return in, nil, nil
		}
		return in, nil, fmt.Errorf("handler: %w - image: %v", biddingerrors.ErrInvalidListing, err)
	}
	file, err := header.Open()
	if err != nil {
		return in, nil, fmt.Errorf("handler: open image: %w", err)
	}
	in.Image = file
	return in, file, nil
}
