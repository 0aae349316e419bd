package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestJWTMiddleware_AttachesClaims(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	userID := uuid.New()
	token, err := auth.GenerateAccessToken(userID, "Pro", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	var gotID uuid.UUID
	var gotRole string
	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetUserID(r.Context())
		gotRole = GetRole(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gotID != userID || gotRole != RoleAdmin {
		t.Fatalf("expected (%s, admin), got (%s, %s)", userID, gotID, gotRole)
	}
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	auth := NewJWTAuth("test-secret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	expiredStr, _ := expired.SignedString(auth.Secret)

	otherKey, _ := NewJWTAuth("other-secret").GenerateAccessToken(uuid.New(), "Free", RoleLearner)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Token abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong key", "Bearer " + otherKey},
		{"expired", "Bearer " + expiredStr},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			auth.Middleware(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
		})
	}
}

func TestParseAccessToken_DefaultsRole(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     time.Now().Add(time.Minute).Unix(),
	})
	tokenStr, _ := token.SignedString(auth.Secret)

	_, role, err := auth.ParseAccessToken(tokenStr)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if role != RoleLearner {
		t.Fatalf("expected learner role, got %q", role)
	}
}

func TestRequireAdmin(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	h := auth.Middleware(RequireAdmin(http.HandlerFunc(okHandler)))

	for role, want := range map[string]int{RoleAdmin: http.StatusOK, RoleLearner: http.StatusForbidden} {
		token, _ := auth.GenerateAccessToken(uuid.New(), "Free", role)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != want {
			t.Errorf("role %s: expected %d, got %d", role, want, rr.Code)
		}
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rl := newRateLimiter(3, time.Minute, func() time.Time { return now })
	h := rl.Middleware(http.HandlerFunc(okHandler))

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 3; i++ {
		if code := hit("10.0.0.1:5000"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, code)
		}
	}
	if code := hit("10.0.0.1:5001"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the burst is spent, got %d", code)
	}
	if code := hit("10.0.0.2:5000"); code != http.StatusOK {
		t.Fatalf("other clients must not be limited, got %d", code)
	}

	now = now.Add(20 * time.Second)
	if code := hit("10.0.0.1:5000"); code != http.StatusOK {
		t.Fatalf("expected a token to refill after a third of the window, got %d", code)
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	now := time.Now()
	rl := newRateLimiter(1, time.Minute, func() time.Time { return now })
	rl.allow("10.0.0.1")

	now = now.Add(2 * time.Minute)
	rl.sweep()

	if len(rl.visitors) != 0 {
		t.Fatalf("expected idle visitor to be swept")
	}
}

func TestRequestID(t *testing.T) {
	h := RequestID(http.HandlerFunc(okHandler))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected incoming id to be echoed, got %q", got)
	}
}

func TestCORS(t *testing.T) {
	h := CORS("http://localhost:5173, https://udanbangla.in/")(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/topics", nil)
	req.Header.Set("Origin", "https://udanbangla.in")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://udanbangla.in" {
		t.Fatalf("expected origin to be allowed")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/topics", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected CORS header for unknown origin")
	}
}
