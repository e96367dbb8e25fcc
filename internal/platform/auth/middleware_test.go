package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testKey = []byte("test-signing-key")

func signedRequest(t *testing.T, token string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	token, err := NewToken(testKey, "user-1", "doctor", "Dr. Gable")
	if err != nil {
		t.Fatalf("NewToken() error: %v", err)
	}

	_, c := signedRequest(t, token)

	var gotID, gotRole, gotName string
	handler := JWTMiddleware(testKey)(func(c echo.Context) error {
		ctx := c.Request().Context()
		gotID = UserIDFromContext(ctx)
		gotRole = RoleFromContext(ctx)
		gotName = NameFromContext(ctx)
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotID != "user-1" {
		t.Errorf("expected user_id user-1, got %q", gotID)
	}
	if gotRole != "doctor" {
		t.Errorf("expected role doctor, got %q", gotRole)
	}
	if gotName != "Dr. Gable" {
		t.Errorf("expected name Dr. Gable, got %q", gotName)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, c := signedRequest(t, "")

	handler := JWTMiddleware(testKey)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	err := handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", httpErr.Code)
	}
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	token, err := NewToken([]byte("some-other-key"), "user-1", "doctor", "Dr. Gable")
	if err != nil {
		t.Fatalf("NewToken() error: %v", err)
	}

	_, c := signedRequest(t, token)

	handler := JWTMiddleware(testKey)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	err = handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", httpErr.Code)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		Role: "patient",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	_, c := signedRequest(t, token)

	handler := JWTMiddleware(testKey)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	err = handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", httpErr.Code)
	}
}

func TestJWTMiddleware_RejectsNonBearer(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JWTMiddleware(testKey)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	err := handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", httpErr.Code)
	}
}

func TestDevAuthMiddleware_SetsDefaults(t *testing.T) {
	_, c := signedRequest(t, "")

	var gotID, gotRole string
	handler := DevAuthMiddleware()(func(c echo.Context) error {
		gotID = UserIDFromContext(c.Request().Context())
		gotRole = RoleFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotID != "dev-user" {
		t.Errorf("expected dev-user, got %q", gotID)
	}
	if gotRole != "admin" {
		t.Errorf("expected admin, got %q", gotRole)
	}
}
