package templates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ryancalacsan/quotecraft-sub000/internal/models"
	"github.com/ryancalacsan/quotecraft-sub000/internal/quotes"
)

func setupTest(t *testing.T) (*gorm.DB, *Service) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Quote{}, &models.LineItem{}, &models.Template{}, &models.TemplateItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return db, NewService(db, log, quotes.NewService(db, log, "QC"))
}

var seededOwners int

func seedOwner(t *testing.T, db *gorm.DB) quotes.Scope {
	t.Helper()
	seededOwners++
	u := models.User{Email: fmt.Sprintf("%s-%d@test", strings.ReplaceAll(t.Name(), "/", "_"), seededOwners), Password: "x"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return quotes.Scope{UserID: u.ID}
}

func item(desc, rate, qty string) quotes.LineItemInput {
	r, _ := decimal.NewFromString(rate)
	q, _ := decimal.NewFromString(qty)
	return quotes.LineItemInput{Description: desc, PricingType: models.PricingFixed, Rate: r, Quantity: q}
}

func TestTemplateCRUD(t *testing.T) {
	db, svc := setupTest(t)
	scope := seedOwner(t, db)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, scope, TemplateInput{Name: "Website project", ValidDays: 30, DepositPercent: 25})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var verr *quotes.ValidationError
	if _, err := svc.Create(ctx, scope, TemplateInput{Name: "", DepositPercent: 120}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	got, err := svc.Get(ctx, scope, tpl.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Website project" || got.ValidDays != 30 {
		t.Fatalf("unexpected template: %+v", got)
	}

	if _, err := svc.Update(ctx, scope, tpl.ID, TemplateInput{Name: "Renamed", ValidDays: 14}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = svc.Get(ctx, scope, tpl.ID)
	if got.Name != "Renamed" || got.ValidDays != 14 {
		t.Fatalf("update not applied: %+v", got)
	}

	other := seedOwner(t, db)
	if _, err := svc.Get(ctx, other, tpl.ID); !errors.Is(err, quotes.ErrNotFound) {
		t.Fatalf("template visible to other owner: %v", err)
	}
	if _, err := svc.Update(ctx, other, tpl.ID, TemplateInput{Name: "Hijack"}); !errors.Is(err, quotes.ErrNotFound) {
		t.Fatalf("template updatable by other owner: %v", err)
	}

	if err := svc.Delete(ctx, scope, tpl.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, scope, tpl.ID); !errors.Is(err, quotes.ErrNotFound) {
		t.Fatalf("deleted template still loads: %v", err)
	}
}

func TestReplaceItems(t *testing.T) {
	db, svc := setupTest(t)
	scope := seedOwner(t, db)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, scope, TemplateInput{Name: "Shoot"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	tpl, err = svc.ReplaceItems(ctx, scope, tpl.ID, []quotes.LineItemInput{
		item("Session", "500", "1"),
		item("Edited photos", "15", "20"),
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(tpl.Items) != 2 || tpl.Items[0].Description != "Session" {
		t.Fatalf("unexpected items: %+v", tpl.Items)
	}
	if tpl.Items[0].SortOrder != 0 || tpl.Items[1].SortOrder != 1 {
		t.Fatalf("sort order not assigned: %d %d", tpl.Items[0].SortOrder, tpl.Items[1].SortOrder)
	}

	tpl, err = svc.ReplaceItems(ctx, scope, tpl.ID, []quotes.LineItemInput{item("Retainer", "1000", "1")})
	if err != nil {
		t.Fatalf("second replace: %v", err)
	}
	if len(tpl.Items) != 1 || tpl.Items[0].Description != "Retainer" {
		t.Fatalf("old items survived replace: %+v", tpl.Items)
	}
	var count int64
	db.Model(&models.TemplateItem{}).Where("template_id = ?", tpl.ID).Count(&count)
	if count != 1 {
		t.Fatalf("orphan template items: %d", count)
	}
}

func TestCreateQuoteFromTemplate(t *testing.T) {
	db, svc := setupTest(t)
	scope := seedOwner(t, db)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, scope, TemplateInput{
		Name:           "Website project",
		DefaultTitle:   "Website build",
		DefaultNotes:   "50% deposit to start",
		ValidDays:      30,
		DepositPercent: 50,
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	if _, err := svc.ReplaceItems(ctx, scope, tpl.ID, []quotes.LineItemInput{
		item("Design", "1200", "1"),
		item("Development", "3000", "1"),
	}); err != nil {
		t.Fatalf("replace items: %v", err)
	}

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	q, err := svc.CreateQuote(ctx, scope, tpl.ID, "Acme Inc", "buyer@acme.test")
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	if q.Status != models.StatusDraft {
		t.Fatalf("status = %s, want draft", q.Status)
	}
	if q.Title != "Website build" || q.Notes != "50% deposit to start" || q.DepositPercent != 50 {
		t.Fatalf("defaults not copied: %+v", q)
	}
	if q.ClientName != "Acme Inc" || q.ClientEmail != "buyer@acme.test" {
		t.Fatalf("client not set: %q %q", q.ClientName, q.ClientEmail)
	}
	if q.ValidUntil == nil || !q.ValidUntil.Equal(fixed.AddDate(0, 0, 30)) {
		t.Fatalf("valid_until = %v, want %v", q.ValidUntil, fixed.AddDate(0, 0, 30))
	}
	if len(q.Items) != 2 || q.Items[0].Description != "Design" || q.Items[1].Description != "Development" {
		t.Fatalf("items not copied in order: %+v", q.Items)
	}
}

func TestCreateQuoteTitleFallsBackToName(t *testing.T) {
	db, svc := setupTest(t)
	scope := seedOwner(t, db)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, scope, TemplateInput{Name: "Mini shoot"})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	q, err := svc.CreateQuote(ctx, scope, tpl.ID, "Acme Inc", "")
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	if q.Title != "Mini shoot" {
		t.Fatalf("title = %q, want template name", q.Title)
	}
	if q.ValidUntil != nil {
		t.Fatalf("valid_until set without valid_days: %v", q.ValidUntil)
	}
}
