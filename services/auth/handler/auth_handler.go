package handler

import (
	"fmt"
	"net/http"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/models"
	"auction-marketplace/services/bidding/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

// CookieName carries the session token
const CookieName = "token"

type SessionServiceInterface interface {
	SendOTP(email string) error
	VerifyOTP(email, code string) error
	Signup(name, email, password string) (models.User, error)
	Login(email, password string) (string, models.User, error)
	Logout(token string)
	Verify(token string) (models.User, error)
}

// OutbidRefresher re-runs outbid detection for a user who has just signed in
type OutbidRefresher interface {
	RefreshOutbid(userID string) []models.Listing
}

// CookieOptions control how the session cookie is issued
type CookieOptions struct {
	TTL    time.Duration
	Secure bool
}

type AuthHandler struct {
	sessions SessionServiceInterface
	cookie   CookieOptions
	outbid   OutbidRefresher
}

// NewAuthHandler creates the auth handler. outbid may be nil.
func NewAuthHandler(sessions SessionServiceInterface, cookie CookieOptions, outbid OutbidRefresher) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookie: cookie, outbid: outbid}
}

// SendOTPHandler handles POST /auth/sendOtp
func (h *AuthHandler) SendOTPHandler(c *gin.Context) {
	var req helpers.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SendOTPHandler", err)
		return
	}

	if err := h.sessions.SendOTP(req.Email); err != nil {
		helpers.RespondError(c, "SendOTPHandler", err, map[string]any{"email": req.Email})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "otp sent")
	helpers.LogSuccess("SendOTPHandler", "otp sent", map[string]any{"email": req.Email})
}

// VerifyOTPHandler handles POST /auth/verify
func (h *AuthHandler) VerifyOTPHandler(c *gin.Context) {
	var req helpers.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "VerifyOTPHandler", err)
		return
	}

	if err := h.sessions.VerifyOTP(req.Email, req.OTP); err != nil {
		helpers.RespondError(c, "VerifyOTPHandler", err, map[string]any{"email": req.Email})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "email verified")
}

// SignupHandler handles POST /auth/signup
func (h *AuthHandler) SignupHandler(c *gin.Context) {
	var req helpers.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SignupHandler", err)
		return
	}

	user, err := h.sessions.Signup(req.Name, req.Email, req.Password)
	if err != nil {
		helpers.RespondError(c, "SignupHandler", err, map[string]any{"email": req.Email})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToUserResponse(user), "account created")
	helpers.LogSuccess("SignupHandler", "account created", map[string]any{"user_id": user.UserID})
}

// LoginHandler handles POST /auth/login and sets the session cookie
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	token, user, err := h.sessions.Login(req.Email, req.Password)
	if err != nil {
		helpers.RespondError(c, "LoginHandler", err, map[string]any{"email": req.Email})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(h.cookie.TTL.Seconds()), "/", "", h.cookie.Secure, true)

	if h.outbid != nil {
		h.outbid.RefreshOutbid(user.UserID)
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToUserResponse(user), "logged in")
	helpers.LogSuccess("LoginHandler", "logged in", map[string]any{"user_id": user.UserID})
}

// LogoutHandler handles POST /auth/logout
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	if token, err := c.Cookie(CookieName); err == nil {
		h.sessions.Logout(token)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", h.cookie.Secure, true)
	utils.JSONResponse(c, http.StatusOK, nil, "logged out")
}

// TokenVerifyHandler handles GET /auth/tokenVerify
func (h *AuthHandler) TokenVerifyHandler(c *gin.Context) {
	user, ok := helpers.CurrentUser(c)
	if !ok {
		helpers.RespondError(c, "TokenVerifyHandler", fmt.Errorf("handler: %w - no valid session", biddingerrors.ErrUnauthenticated), nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToUserResponse(user), "session is valid")
}
