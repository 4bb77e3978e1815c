package db

import (
	"log/slog"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ryancalacsan/quotecraft-sub000/auth"
	"github.com/ryancalacsan/quotecraft-sub000/internal/models"
)

// seed inserts a starter account and template for development setups. It is
// idempotent: existing rows are left alone.
func seed(db *gorm.DB) {
	var existing models.User
	if err := db.Where("email = ?", "demo@example.com").First(&existing).Error; err != gorm.ErrRecordNotFound {
		return
	}

	hash, err := auth.HashPassword("demo1234")
	if err != nil {
		slog.Warn("seed skipped", "err", err)
		return
	}
	user := models.User{Email: "demo@example.com", Password: hash, Name: "Demo User", BusinessName: "Demo Studio"}
	if err := db.Create(&user).Error; err != nil {
		slog.Warn("seed user failed", "err", err)
		return
	}

	tpl := models.Template{
		UserID:         user.ID,
		Name:           "Website project",
		DefaultTitle:   "Website design & build",
		DefaultNotes:   "50% deposit due on acceptance.",
		ValidDays:      30,
		DepositPercent: 50,
		Items: []models.TemplateItem{
			{Description: "Design", PricingType: models.PricingFixed, Rate: decimal.NewFromInt(1200), Quantity: decimal.NewFromInt(1), SortOrder: 0},
			{Description: "Development", PricingType: models.PricingHourly, Rate: decimal.NewFromInt(95), Quantity: decimal.NewFromInt(40), SortOrder: 1},
			{Description: "Stock photos", PricingType: models.PricingPerUnit, Unit: "photo", Rate: decimal.NewFromInt(15), Quantity: decimal.NewFromInt(10), SortOrder: 2},
		},
	}
	if err := db.Create(&tpl).Error; err != nil {
		slog.Warn("seed template failed", "err", err)
	}
}
