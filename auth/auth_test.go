package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2hunter2" {
		t.Fatal("password stored in the clear")
	}
	if !CheckPassword(hash, "hunter2hunter2") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}

func sessionRequest(t *testing.T, id Identity) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := CreateSession(rec, id); err != nil {
		t.Fatalf("create session: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	req := sessionRequest(t, Identity{UserID: 7})
	got, ok := ParseSession(req)
	if !ok {
		t.Fatal("valid session rejected")
	}
	if got.UserID != 7 || got.SessionScope != nil {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestSessionCarriesScope(t *testing.T) {
	scope := "demo-scope-1"
	req := sessionRequest(t, Identity{UserID: 3, SessionScope: &scope})
	got, ok := ParseSession(req)
	if !ok {
		t.Fatal("valid session rejected")
	}
	if got.SessionScope == nil || *got.SessionScope != scope {
		t.Fatalf("scope lost: %+v", got)
	}
}

func TestTamperedSessionRejected(t *testing.T) {
	req := sessionRequest(t, Identity{UserID: 7})
	c, err := req.Cookie("session")
	if err != nil {
		t.Fatalf("cookie: %v", err)
	}
	forged := httptest.NewRequest(http.MethodGet, "/", nil)
	forged.AddCookie(&http.Cookie{Name: "session", Value: c.Value + "x"})
	if _, ok := ParseSession(forged); ok {
		t.Fatal("tampered session accepted")
	}
}

func TestMissingSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := ParseSession(req); ok {
		t.Fatal("identity without cookie")
	}
}
