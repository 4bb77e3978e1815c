package quotes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ryancalacsan/quotecraft-sub000/internal/models"
)

// sentQuote creates a quote with one line item and sends it.
func sentQuote(t *testing.T, svc *Service, scope Scope) *models.Quote {
	t.Helper()
	ctx := context.Background()
	q, err := svc.Create(ctx, scope, draftInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddItem(ctx, scope, q.ID, itemInput("100", "2", 0)); err != nil {
		t.Fatalf("add item: %v", err)
	}
	q, err = svc.Send(ctx, scope, q.ID)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	return q
}

func TestGetByToken(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := seedUser(t, db, "owner@test")
	scope := Scope{UserID: user.ID}
	ctx := context.Background()

	draft, err := svc.Create(ctx, scope, draftInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.GetByToken(ctx, draft.ShareToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("draft reachable by token: %v", err)
	}

	sent := sentQuote(t, svc, scope)
	got, err := svc.GetByToken(ctx, sent.ShareToken)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got.ID != sent.ID || len(got.Items) != 1 {
		t.Fatalf("wrong quote or items: id=%d items=%d", got.ID, len(got.Items))
	}

	for _, bad := range []string{"", "short!", "has spaces in it", strings.Repeat("a", 31), "../../etc/passwd"} {
		if _, err := svc.GetByToken(ctx, bad); !errors.Is(err, ErrNotFound) {
			t.Fatalf("token %q: expected ErrNotFound, got %v", bad, err)
		}
	}
}

func TestAcceptAndDecline(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := seedUser(t, db, "owner@test")
	scope := Scope{UserID: user.ID}
	ctx := context.Background()

	q := sentQuote(t, svc, scope)
	accepted, err := svc.Accept(ctx, q.ShareToken)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != models.StatusAccepted {
		t.Fatalf("status = %s, want accepted", accepted.Status)
	}
	if accepted.Version != q.Version+1 {
		t.Fatalf("version = %d, want %d", accepted.Version, q.Version+1)
	}

	q2 := sentQuote(t, svc, scope)
	declined, err := svc.Decline(ctx, q2.ShareToken)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.Status != models.StatusDeclined {
		t.Fatalf("status = %s, want declined", declined.Status)
	}
}

// A second answer after the quote is already settled fails on the status
// pre-check.
func TestAcceptTwiceSequential(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := seedUser(t, db, "owner@test")
	q := sentQuote(t, svc, Scope{UserID: user.ID})
	ctx := context.Background()

	if _, err := svc.Accept(ctx, q.ShareToken); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	var terr *TransitionError
	if _, err := svc.Decline(ctx, q.ShareToken); !errors.As(err, &terr) {
		t.Fatalf("decline after accept: expected TransitionError, got %v", err)
	}
	if terr.From != models.StatusAccepted {
		t.Fatalf("transition error From = %s, want accepted", terr.From)
	}
}

// Interleaved answers: the write predicate matches zero rows when another
// caller settled the quote between this caller's read and write, and the loser
// gets ErrConflict while the winner's transition stands. The clock hook runs
// between the two, which lets the test inject the rival write deterministically.
func TestAcceptLosesRace(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := seedUser(t, db, "owner@test")
	q := sentQuote(t, svc, Scope{UserID: user.ID})
	ctx := context.Background()

	fired := false
	svc.now = func() time.Time {
		if !fired {
			fired = true
			db.Model(&models.Quote{}).
				Where("id = ? AND status = ?", q.ID, models.StatusSent).
				Updates(map[string]any{"status": models.StatusDeclined, "version": q.Version + 1})
		}
		return time.Now()
	}

	if _, err := svc.Accept(ctx, q.ShareToken); !errors.Is(err, ErrConflict) {
		t.Fatalf("losing accept: expected ErrConflict, got %v", err)
	}

	var after models.Quote
	if err := db.First(&after, q.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.Status != models.StatusDeclined {
		t.Fatalf("winner's transition overwritten: %s", after.Status)
	}
	if after.Version != q.Version+1 {
		t.Fatalf("version = %d, want exactly one bump to %d", after.Version, q.Version+1)
	}
}

func TestExpiredQuoteCannotBeAnswered(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := seedUser(t, db, "owner@test")
	scope := Scope{UserID: user.ID}
	ctx := context.Background()

	past := time.Now().Add(-24 * time.Hour)
	in := draftInput()
	in.ValidUntil = &past
	q, err := svc.Create(ctx, scope, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddItem(ctx, scope, q.ID, itemInput("100", "1", 0)); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := svc.Send(ctx, scope, q.ID); err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := svc.Accept(ctx, q.ShareToken); !errors.Is(err, ErrExpired) {
		t.Fatalf("accept expired: expected ErrExpired, got %v", err)
	}
	if _, err := svc.Decline(ctx, q.ShareToken); !errors.Is(err, ErrExpired) {
		t.Fatalf("decline expired: expected ErrExpired, got %v", err)
	}

	var after models.Quote
	db.First(&after, q.ID)
	if after.Status != models.StatusSent {
		t.Fatalf("expired quote status mutated: %s", after.Status)
	}

	// Still readable: expiration blocks answering, not viewing.
	if _, err := svc.GetByToken(ctx, q.ShareToken); err != nil {
		t.Fatalf("expired quote should stay viewable: %v", err)
	}
}

func TestMarkPaid(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := seedUser(t, db, "owner@test")
	q := sentQuote(t, svc, Scope{UserID: user.ID})
	ctx := context.Background()

	if _, err := svc.Accept(ctx, q.ShareToken); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := svc.MarkPaid(ctx, q.ID, "cs_test_123", "pi_test_123"); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	var paid models.Quote
	if err := db.First(&paid, q.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if paid.Status != models.StatusPaid {
		t.Fatalf("status = %s, want paid", paid.Status)
	}
	if paid.StripeSessionID != "cs_test_123" || paid.StripePaymentIntentID != "pi_test_123" {
		t.Fatalf("payment refs not stored: %q %q", paid.StripeSessionID, paid.StripePaymentIntentID)
	}
	if paid.PaidAt == nil {
		t.Fatal("paid_at not set")
	}

	// Redelivered event for the same checkout session is a no-op.
	if err := svc.MarkPaid(ctx, q.ID, "cs_test_123", "pi_test_123"); err != nil {
		t.Fatalf("duplicate event: expected nil, got %v", err)
	}
	var again models.Quote
	db.First(&again, q.ID)
	if again.Version != paid.Version {
		t.Fatalf("duplicate event bumped version: %d -> %d", paid.Version, again.Version)
	}

	// A different session hitting a settled quote is a real conflict.
	if err := svc.MarkPaid(ctx, q.ID, "cs_test_other", "pi_test_other"); !errors.Is(err, ErrConflict) {
		t.Fatalf("foreign session on paid quote: expected ErrConflict, got %v", err)
	}
}

func TestMarkPaidRequiresAccepted(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := seedUser(t, db, "owner@test")
	q := sentQuote(t, svc, Scope{UserID: user.ID})
	ctx := context.Background()

	if err := svc.MarkPaid(ctx, q.ID, "cs_x", "pi_x"); !errors.Is(err, ErrConflict) {
		t.Fatalf("paid on sent quote: expected ErrConflict, got %v", err)
	}
	if err := svc.MarkPaid(ctx, 999999, "cs_x", "pi_x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("paid on missing quote: expected ErrNotFound, got %v", err)
	}
}

func TestStoreCheckoutSession(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	user := seedUser(t, db, "owner@test")
	q := sentQuote(t, svc, Scope{UserID: user.ID})
	ctx := context.Background()

	if err := svc.StoreCheckoutSession(ctx, q.ID, "cs_early"); !errors.Is(err, ErrConflict) {
		t.Fatalf("store on sent quote: expected ErrConflict, got %v", err)
	}
	if _, err := svc.Accept(ctx, q.ShareToken); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := svc.StoreCheckoutSession(ctx, q.ID, "cs_ok"); err != nil {
		t.Fatalf("store on accepted quote: %v", err)
	}
	var after models.Quote
	db.First(&after, q.ID)
	if after.StripeSessionID != "cs_ok" {
		t.Fatalf("session id not stored: %q", after.StripeSessionID)
	}
}
