package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	bidding "auction-marketplace/internal/biddingService"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/notification"
	"auction-marketplace/internal/outbid"
	"auction-marketplace/internal/repository"
	"auction-marketplace/internal/server"
	"auction-marketplace/internal/session"
	"auction-marketplace/internal/storage"
	authhandler "auction-marketplace/services/auth/handler"
	handler "auction-marketplace/services/bidding/handler"
	"auction-marketplace/services/bidding/helpers"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// otpInbox records the codes the session service sends out
type otpInbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *otpInbox) SendOTP(email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	return nil
}

func (m *otpInbox) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

// TestApp is a fully wired in-memory server
type TestApp struct {
	Router  *gin.Engine
	Repo    *repository.MemoryRepo
	Center  *notification.Center
	Service *bidding.BiddingService
	inbox   *otpInbox
}

// SetupTestApp wires the router over in-memory stores and seeds the given listings.
func SetupTestApp(t *testing.T, listings ...model.Listing) *TestApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	images, err := storage.NewDiskStore(t.TempDir(), "http://localhost:8080", 1<<20)
	require.NoError(t, err)

	repo := repository.NewMemoryRepo()
	for _, l := range listings {
		require.NoError(t, repo.AddListing(l))
	}

	center := notification.NewCenter()
	service := bidding.NewBiddingService(repo, center, outbid.NewDetector(center, repo), nil, images, bidding.Settings{
		DefaultDuration: 24 * time.Hour,
	})
	t.Cleanup(service.Wait)

	inbox := &otpInbox{codes: map[string]string{}}
	sessions := session.NewService(session.Options{
		OTPTTL:     time.Minute,
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, inbox)

	router := server.SetupRouter(server.Dependencies{
		Bidding:  service,
		Sessions: sessions,
		Center:   center,
		Images:   images,
		Bids:     handler.Options{SuggestedRaise: decimal.NewFromInt(5), CountdownRefresh: 20 * time.Millisecond},
		Cookie:   authhandler.CookieOptions{TTL: time.Hour},
	})

	return &TestApp{Router: router, Repo: repo, Center: center, Service: service, inbox: inbox}
}

// NewListing builds an open listing with the given starting bid
func NewListing(id, seller string, startingBid int64) model.Listing {
	now := time.Now().UTC()
	return model.Listing{
		ListingID:   id,
		Title:       "title " + id,
		Description: "description " + id,
		Category:    "Electronics",
		StartingBid: decimal.NewFromInt(startingBid),
		CurrentBid:  decimal.NewFromInt(startingBid),
		EndTime:     now.Add(time.Hour),
		SellerID:    seller,
		CreatedAt:   now,
	}
}

// Register signs a user up through the HTTP API and returns their id and session cookie.
func (a *TestApp) Register(t *testing.T, name, email string) (string, *http.Cookie) {
	t.Helper()

	_, w := ExecuteRequestAndParse(t, a.Router, http.MethodPost, "/auth/sendOtp", helpers.SendOTPRequest{Email: email}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, w = ExecuteRequestAndParse(t, a.Router, http.MethodPost, "/auth/verify", helpers.VerifyOTPRequest{Email: email, OTP: a.inbox.code(email)}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp, w := ExecuteRequestAndParse(t, a.Router, http.MethodPost, "/auth/signup", helpers.SignupRequest{Name: name, Email: email, Password: "secret1"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	userID := resp["id"].(string)

	_, w = ExecuteRequestAndParse(t, a.Router, http.MethodPost, "/auth/login", helpers.LoginRequest{Email: email, Password: "secret1"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	for _, c := range w.Result().Cookies() {
		if c.Name == authhandler.CookieName {
			return userID, c
		}
	}
	t.Fatalf("login did not set a session cookie")
	return "", nil
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response.
// For 201 responses the data payload is returned directly.
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any, cookie *http.Cookie) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		if err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}

		if w.Code == http.StatusCreated {
			resp = resp["data"].(map[string]any)
		}
	}

	return resp, w
}

// PlaceBid posts a bid as the cookie's owner
func (a *TestApp) PlaceBid(t *testing.T, listingID string, amount float64, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	_, w := ExecuteRequestAndParse(t, a.Router, http.MethodPost, "/products/"+listingID+"/bids", map[string]any{"amount": amount}, cookie)
	return w
}

// Notifications returns the caller's notification list
func (a *TestApp) Notifications(t *testing.T, cookie *http.Cookie) []any {
	t.Helper()
	resp, w := ExecuteRequestAndParse(t, a.Router, http.MethodGet, "/notifications", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	return resp["data"].(map[string]any)["notifications"].([]any)
}
