package helpers

// Request/Response DTOs
// PlaceBidRequest carries the offered amount. Zero and negative amounts are
// accepted here and rejected by the ledger as too low.
type PlaceBidRequest struct {
	Amount *float64 `json:"amount" binding:"required"`
}

type BidResponse struct {
	BidID     string  `json:"bid_id"`
	ListingID string  `json:"product_id"`
	UserID    string  `json:"user_id"`
	Amount    float64 `json:"amount"`
	CreatedAt string  `json:"created_at"`
}

type ListingResponse struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Category     string        `json:"category"`
	StartingBid  float64       `json:"starting_bid"`
	CurrentBid   float64       `json:"current_bid"`
	SuggestedBid float64       `json:"suggested_bid"`
	EndTime      string        `json:"end_time"`
	Expired      bool          `json:"expired"`
	SellerID     string        `json:"seller_id"`
	Image        string        `json:"image"`
	CreatedAt    string        `json:"created_at"`
	BidCount     int           `json:"bid_count"`
	Bids         []BidResponse `json:"bids"`
}

// PlaceBidResponse carries the accepted bid together with the updated listing
type PlaceBidResponse struct {
	Bid     BidResponse     `json:"bid"`
	Listing ListingResponse `json:"product"`
}

type CountdownResponse struct {
	Days    int64  `json:"days"`
	Hours   int64  `json:"hours"`
	Minutes int64  `json:"minutes"`
	Seconds int64  `json:"seconds"`
	Expired bool   `json:"expired"`
	EndTime string `json:"end_time"`
}

type NotificationResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	ProductID string `json:"product_id"`
	Time      string `json:"time"`
	Read      bool   `json:"read"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unread_count"`
}

type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profile_image"`
	CreatedAt       string `json:"created_at"`
}

type UploadResponse struct {
	URL string `json:"url"`
}
