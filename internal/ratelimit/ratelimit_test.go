package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPerKeyBucketsAreIndependent(t *testing.T) {
	l := NewPerKey(1, 2)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst denied")
	}
	if l.Allow("a") {
		t.Fatal("request over burst allowed")
	}
	if !l.Allow("b") {
		t.Fatal("fresh key denied by another key's bucket")
	}
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	l := NewPerKey(1, 1)
	var reached int
	h := Middleware(l, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached++
	}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: status = %d, want %d", i, rec.Code, want)
		}
	}
	if reached != 1 {
		t.Fatalf("handler reached %d times, want 1", reached)
	}
}

func TestMiddlewareKeysByHost(t *testing.T) {
	l := NewPerKey(1, 1)
	h := Middleware(l, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.RemoteAddr = "10.0.0.1:1111"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}

	// Same host, different source port: same bucket.
	samePort := httptest.NewRequest(http.MethodGet, "/", nil)
	samePort.RemoteAddr = "10.0.0.1:2222"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, samePort)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("same host not limited: %d", rec.Code)
	}

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:1111"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("different host limited: %d", rec.Code)
	}
}

func TestUnlimited(t *testing.T) {
	l := Unlimited{}
	for i := 0; i < 100; i++ {
		if !l.Allow("k") {
			t.Fatal("Unlimited denied a request")
		}
	}
}
