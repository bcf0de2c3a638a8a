package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/models"
	authhandler "auction-marketplace/services/auth/handler"
	"auction-marketplace/services/bidding/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakeVerifier map[string]models.User

func (f fakeVerifier) Verify(token string) (models.User, error) {
	user, ok := f[token]
	if !ok {
		return models.User{}, biddingerrors.ErrUnauthenticated
	}
	return user, nil
}

func TestSessionMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	verifier := fakeVerifier{"good": {UserID: "user1"}}

	tests := []struct {
		name         string
		cookie       string
		bearer       string
		protected    bool
		expectedCode int
		expectedUser string
	}{
		{name: "anonymous_open_route", expectedCode: http.StatusOK},
		{name: "cookie_session", cookie: "good", expectedCode: http.StatusOK, expectedUser: "user1"},
		{name: "bearer_session", bearer: "good", expectedCode: http.StatusOK, expectedUser: "user1"},
		{name: "bad_token_open_route", cookie: "bad", expectedCode: http.StatusOK},
		{name: "anonymous_protected_route", protected: true, expectedCode: http.StatusUnauthorized},
		{name: "bad_token_protected_route", cookie: "bad", protected: true, expectedCode: http.StatusUnauthorized},
		{name: "cookie_protected_route", cookie: "good", protected: true, expectedCode: http.StatusOK, expectedUser: "user1"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.Use(SessionMiddleware(verifier))

			handlers := []gin.HandlerFunc{}
			if tc.protected {
				handlers = append(handlers, RequireAuth)
			}
			var seen string
			handlers = append(handlers, func(c *gin.Context) {
				seen = helpers.CurrentUserID(c)
				c.Status(http.StatusOK)
			})
			router.GET("/protected", handlers...)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: authhandler.CookieName, Value: tc.cookie})
			}
			if tc.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tc.bearer)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedCode, w.Code)
			require.Equal(t, tc.expectedUser, seen)
		})
	}
}
