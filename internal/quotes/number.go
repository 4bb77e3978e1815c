package quotes

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ryancalacsan/quotecraft-sub000/internal/models"
)

// nextQuoteNumber computes the next PREFIX-YEAR-NNNN number for an owner in
// the current calendar year: highest existing suffix plus one, zero-padded to
// four digits. This is a best-effort sequence; two concurrent creations can
// compute the same number and the caller retries the whole create on the
// resulting uniqueness violation.
func nextQuoteNumber(tx *gorm.DB, userID uint, prefix string, now time.Time) (string, error) {
	year := now.Year()
	like := fmt.Sprintf("%s-%d-%%", prefix, year)

	var numbers []string
	err := tx.Model(&models.Quote{}).
		Where("user_id = ? AND quote_number LIKE ?", userID, like).
		Order("quote_number desc").
		Limit(1).
		Pluck("quote_number", &numbers).Error
	if err != nil {
		return "", fmt.Errorf("load last quote number: %w", err)
	}

	seq := 0
	if len(numbers) > 0 {
		if i := strings.LastIndex(numbers[0], "-"); i >= 0 {
			if n, perr := strconv.Atoi(numbers[0][i+1:]); perr == nil {
				seq = n
			}
		}
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq+1), nil
}
