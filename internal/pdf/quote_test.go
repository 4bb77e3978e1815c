package pdf

import (
	"bytes"
	"testing"
)

func TestQuotePDF(t *testing.T) {
	out, err := QuotePDF(QuoteData{
		Number:       "QC-2026-0001",
		Title:        "Website build",
		BusinessName: "Test Co",
		ClientName:   "Acme Inc",
		ClientEmail:  "buyer@acme.test",
		Date:         "2026-03-01",
		ValidUntil:   "2026-03-31",
		Currency:     "USD",
		Notes:        "50% deposit to start",
		Items: []ItemData{
			{Description: "Design", Quantity: "1", Rate: "1200.00", Total: "1200.00"},
			{Description: "Development", Quantity: "30", Rate: "100.00", Total: "2700.00"},
		},
		Subtotal:       "3900.00",
		DepositPercent: 50,
		DepositAmount:  "1950.00",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF: %q", out[:min(16, len(out))])
	}
}

func TestQuotePDFMinimal(t *testing.T) {
	out, err := QuotePDF(QuoteData{Number: "QC-2026-0002", ClientName: "Acme Inc", Currency: "USD", Subtotal: "0.00"})
	if err != nil {
		t.Fatalf("generate empty quote: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("empty output")
	}
}
