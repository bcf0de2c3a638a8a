package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/models"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// UserKey is the gin context key the session middleware stores the caller under
const UserKey = "user"

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, biddingerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, biddingerrors.ErrListingNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, biddingerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, biddingerrors.ErrInvalidListing):
		return http.StatusBadRequest, "invalid product details"
	case errors.Is(err, biddingerrors.ErrInvalidQuery):
		return http.StatusBadRequest, "invalid product query"
	case errors.Is(err, biddingerrors.ErrNoBids):
		return http.StatusOK, "no bids found for product"
	case errors.Is(err, biddingerrors.ErrUserExists):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, biddingerrors.ErrInvalidOTP):
		return http.StatusBadRequest, "invalid or expired otp"
	case errors.Is(err, biddingerrors.ErrEmailNotVerified):
		return http.StatusForbidden, "email not verified"
	case errors.Is(err, biddingerrors.ErrInvalidImage):
		return http.StatusUnsupportedMediaType, "unsupported image"
	case errors.Is(err, biddingerrors.ErrNetworkFailure):
		return http.StatusBadGateway, "network failure"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondError maps err, writes the error envelope and logs the failure
func RespondError(c *gin.Context, handlerName string, err error, ctx map[string]any) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	if ctx == nil {
		ctx = map[string]any{}
	}
	ctx["handler"] = handlerName
	ctx["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", ctx)
		return
	}
	utils.Warn(handlerName+": request rejected", ctx)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

// CurrentUser returns the caller resolved by the session middleware
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

// CurrentUserID returns the caller's id, or "" for anonymous requests
func CurrentUserID(c *gin.Context) string {
	user, _ := CurrentUser(c)
	return user.UserID
}

// SuggestedBid is the advisory next bid shown to bidders. It is never enforced.
func SuggestedBid(current, raise decimal.Decimal) decimal.Decimal {
	return current.Add(raise).Round(models.MonetaryPrecision)
}

// Amount converts a monetary value for JSON output
func Amount(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// ParseAmount converts a request amount to a decimal. The shortest decimal
// representation of f is used, so 70.004 stays 70.004.
func ParseAmount(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func ToBidResponse(bid models.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.BidID,
		ListingID: bid.ListingID,
		UserID:    bid.BidderID,
		Amount:    Amount(bid.Amount),
		CreatedAt: formatTime(bid.CreatedAt),
	}
}

func ToBidResponses(bids []models.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, ToBidResponse(b))
	}
	return out
}

// ToListingResponse renders a listing; expiry is derived from now
func ToListingResponse(l models.Listing, raise decimal.Decimal, now time.Time) ListingResponse {
	return ListingResponse{
		ID:           l.ListingID,
		Title:        l.Title,
		Description:  l.Description,
		Category:     l.Category,
		StartingBid:  Amount(l.StartingBid),
		CurrentBid:   Amount(l.CurrentBid),
		SuggestedBid: Amount(SuggestedBid(l.CurrentBid, raise)),
		EndTime:      formatTime(l.EndTime),
		Expired:      !l.EndTime.After(now),
		SellerID:     l.SellerID,
		Image:        l.ImageURL,
		CreatedAt:    formatTime(l.CreatedAt),
		BidCount:     len(l.Bids),
		Bids:         ToBidResponses(l.Bids),
	}
}

func ToListingResponses(listings []models.Listing, raise decimal.Decimal, now time.Time) []ListingResponse {
	out := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, ToListingResponse(l, raise, now))
	}
	return out
}

func ToCountdownResponse(cd models.Countdown, end time.Time) CountdownResponse {
	return CountdownResponse{
		Days:    cd.Days,
		Hours:   cd.Hours,
		Minutes: cd.Minutes,
		Seconds: cd.Seconds,
		Expired: cd.Expired,
		EndTime: formatTime(end),
	}
}

func ToNotificationResponse(n models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.NotificationID,
		Type:      string(n.Kind),
		Message:   n.Message,
		ProductID: n.ListingID,
		Time:      formatTime(n.CreatedAt),
		Read:      n.Read,
	}
}

func ToNotificationList(list []models.Notification, unread int) NotificationListResponse {
	out := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, ToNotificationResponse(n))
	}
	return NotificationListResponse{Notifications: out, UnreadCount: unread}
}

func ToUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:              u.UserID,
		Name:            u.Name,
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
		CreatedAt:       formatTime(u.CreatedAt),
	}
}
