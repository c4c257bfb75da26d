package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quizgate/services"

	"github.com/gin-gonic/gin"
)

type stubParser struct {
	claims *services.Claims
	err    error
}

func (p stubParser) ParseAccessToken(_ context.Context, _ string) (*services.Claims, error) {
	return p.claims, p.err
}

func serveWith(parser TokenParser, header string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", AuthMiddleware(parser), func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddlewareStoresUser(t *testing.T) {
	rec := serveWith(stubParser{claims: &services.Claims{UserID: 42}}, "Bearer abc")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"user_id":42`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer   "} {
		rec := serveWith(stubParser{claims: &services.Claims{UserID: 1}}, header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestAuthMiddlewareHidesInternalErrors(t *testing.T) {
	rec := serveWith(stubParser{err: errors.New("dial tcp 10.0.0.5:6379: connection refused")}, "Bearer abc")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.5") || !strings.Contains(rec.Body.String(), "internal server error") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}

	rec = serveWith(stubParser{err: services.NewAuthenticationError("token is expired")}, "Bearer abc")
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "token is expired") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}
