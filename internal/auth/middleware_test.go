package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gdg-garage/garage-events-api/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

func TestSlidingSession(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	handler := NewAuthHandler(cfg, nil, nil)

	signed := func(expiresIn time.Duration) string {
		claims := jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, _ := token.SignedString([]byte(cfg.JWTSecret))
		return tokenString
	}

	serve := func(cookie *http.Cookie) *httptest.ResponseRecorder {
		req, _ := http.NewRequest("GET", "/", nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rr := httptest.NewRecorder()

		nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		handler.SlidingSession(nextHandler).ServeHTTP(rr, req)
		return rr
	}

	renewed := func(rr *httptest.ResponseRecorder) *http.Cookie {
		for _, c := range rr.Result().Cookies() {
			if c.Name == CookieName {
				return c
			}
		}
		return nil
	}

	t.Run("TokenRenewed", func(t *testing.T) {
		// 11 hours left is less than TokenDuration/2.
		tokenString := signed(11 * time.Hour)
		rr := serve(&http.Cookie{Name: CookieName, Value: tokenString})

		if rr.Code != http.StatusOK {
			t.Errorf("expected status OK, got %v", rr.Code)
		}
		c := renewed(rr)
		if c == nil {
			t.Fatal("expected new auth_token cookie to be set")
		}
		if c.Value == tokenString {
			t.Errorf("expected new token value, but got the old one")
		}
		claims, err := handler.parseToken(c.Value)
		if err != nil || claims.Subject != "user-1" {
			t.Errorf("expected renewed token for user-1, got %v, %v", claims, err)
		}
	})

	t.Run("TokenNotRenewed", func(t *testing.T) {
		rr := serve(&http.Cookie{Name: CookieName, Value: signed(13 * time.Hour)})
		if rr.Code != http.StatusOK {
			t.Errorf("expected status OK, got %v", rr.Code)
		}
		if renewed(rr) != nil {
			t.Errorf("did not expect a new auth_token cookie to be set")
		}
	})

	t.Run("InvalidTokenPassesThrough", func(t *testing.T) {
		rr := serve(&http.Cookie{Name: CookieName, Value: "garbage"})
		if rr.Code != http.StatusOK {
			t.Errorf("expected status OK, got %v", rr.Code)
		}
		if renewed(rr) != nil {
			t.Errorf("did not expect a cookie for an invalid token")
		}
	})

	t.Run("NoCookie", func(t *testing.T) {
		if rr := serve(nil); rr.Code != http.StatusOK {
			t.Errorf("expected status OK, got %v", rr.Code)
		}
	})
}
