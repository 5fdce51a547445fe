package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmeshcher/sweetshop-system/internal/session"
)

func TestSessionMiddleware_CreatesSessionWithoutCookie(t *testing.T) {
	store := session.NewStore(time.Hour)
	m := NewSessionMiddleware("test-secret", store)

	var got *session.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := GetSessionFromContext(r.Context())
		if !ok {
			t.Fatalf("session not in context")
		}
		got = s
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)

	m.Middleware(next).ServeHTTP(w, r)

	if got == nil {
		t.Fatalf("next handler was not called with a session")
	}

	res := w.Result()
	if len(res.Cookies()) == 0 {
		t.Fatalf("session cookie was not set")
	}
}

func TestSessionMiddleware_ReusesExistingSession(t *testing.T) {
	store := session.NewStore(time.Hour)
	m := NewSessionMiddleware("test-secret", store)

	var first, second *session.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, _ := GetSessionFromContext(r.Context())
		if first == nil {
			first = s
		} else {
			second = s
		}
	})

	handler := m.Middleware(next)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("no cookie set on first request")
	}

	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.AddCookie(cookies[0])
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if second == nil {
		t.Fatalf("second request did not reach the handler")
	}
	if first != second {
		t.Fatalf("session was not reused across requests")
	}
}

func TestSessionMiddleware_TamperedCookieGetsNewSession(t *testing.T) {
	store := session.NewStore(time.Hour)
	m := NewSessionMiddleware("test-secret", store)

	var first, second *session.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, _ := GetSessionFromContext(r.Context())
		if first == nil {
			first = s
		} else {
			second = s
		}
	})

	handler := m.Middleware(next)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	cookie := w.Result().Cookies()[0]
	cookie.Value = first.ID + ".deadbeef"

	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.AddCookie(cookie)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if second == nil {
		t.Fatalf("second request did not reach the handler")
	}
	if first == second {
		t.Fatalf("tampered cookie must not resolve to the existing session")
	}
}
