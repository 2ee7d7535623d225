package middleware

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bloodLink/internal/domain"
	"bloodLink/pkg/e"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

type donorPayload struct {
	Name       string `json:"name" validate:"required"`
	BloodGroup string `json:"blood_group" validate:"required,blood_group"`
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		body       string
		wantErr    error
		wantFields bool
	}{
		{name: "ok", body: `{"name":"Rahim","blood_group":"O-"}`},
		{name: "empty", body: ``, wantErr: ErrEmptyBody},
		{name: "whitespace only", body: " \n\t", wantErr: ErrEmptyBody},
		{name: "empty is invalid input", body: ``, wantErr: e.ErrInvalidInput},
		{name: "broken", body: `{bad`, wantErr: e.ErrInvalidInput},
		{name: "unknown field", body: `{"name":"a","blood_group":"O-","x":1}`, wantErr: e.ErrInvalidInput},
		{name: "trailing data", body: `{"name":"a","blood_group":"O-"}{}`, wantErr: e.ErrInvalidInput},
		{name: "bad group", body: `{"name":"a","blood_group":"C+"}`, wantErr: e.ErrInvalidInput, wantFields: true},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(c.body))
			var dst donorPayload
			err := DecodeJSON(httptest.NewRecorder(), req, &dst)

			if c.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected err: %v", err)
				}
				if dst.BloodGroup != "O-" {
					t.Fatalf("payload not decoded: %+v", dst)
				}
				return
			}
			if !errors.Is(err, c.wantErr) {
				t.Fatalf("expected %v, got %v", c.wantErr, err)
			}
			var fe *FieldsError
			if errors.As(err, &fe) != c.wantFields {
				t.Fatalf("fields error mismatch: %v", err)
			}
		})
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	h := APIKeyMiddleware("secret")(okHandler)

	for _, tc := range []struct {
		key  string
		want int
	}{
		{"secret", http.StatusOK},
		{"wrong", http.StatusUnauthorized},
		{"", http.StatusUnauthorized},
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
		if tc.key != "" {
			req.Header.Set(APIKeyHeader, tc.key)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("key %q: expected %d got %d", tc.key, tc.want, rr.Code)
		}
	}
}

func TestAPIKeyMiddleware_EmptyConfiguredKeyRejects(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	APIKeyMiddleware("")(okHandler).ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestSession(t *testing.T) {
	t.Parallel()

	var got domain.Session
	var ok bool
	h := Session(RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = SessionFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/emergency", nil)
	req.Header.Set(UserIDHeader, " u-1 ")
	req.Header.Set(UserNameHeader, "Karim")
	req.Header.Set(UserPhoneHeader, "+8801700000000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || !ok {
		t.Fatalf("expected session, code=%d", rr.Code)
	}
	want := domain.Session{UserID: "u-1", Name: "Karim", Phone: "+8801700000000"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/emergency", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rr.Code)
	}
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	t.Parallel()

	l := newRateLimiter(0.0001, 2, time.Minute)
	h := l.LimitMiddleware(newTestLogger())(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes: %v", codes)
	}

	// another IP has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for second ip, got %d", rr.Code)
	}
}

func TestRateLimit_Evict(t *testing.T) {
	t.Parallel()

	l := newRateLimiter(1, 1, time.Minute)
	now := time.Now()
	l.getVisitor("a", now.Add(-2*time.Minute))
	l.getVisitor("b", now)

	if n := l.evict(now); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, ok := l.visitors["b"]; !ok {
		t.Fatalf("fresh visitor must survive")
	}
}

func TestRateLimit_BareIPRemoteAddr(t *testing.T) {
	t.Parallel()

	h := newRateLimiter(1, 1, time.Minute).LimitMiddleware(newTestLogger())(okHandler)
	for _, addr := range []string{"203.0.113.7", "2001:db8::1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", addr, rr.Code)
		}
	}

	// same client again: burst of 1 is spent
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rr.Code)
	}
}

func TestRateLimit_BadRemoteAddr(t *testing.T) {
	t.Parallel()

	h := newRateLimiter(1, 1, time.Minute).LimitMiddleware(newTestLogger())(okHandler)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "no-port"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rr.Code)
	}
}
