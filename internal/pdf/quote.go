// Package pdf renders a quote as a PDF byte stream. All amounts arrive
// pre-computed by the pricing engine; nothing is recalculated here.
package pdf

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type ItemData struct {
	Description string
	Quantity    string
	Rate        string
	Total       string
}

type QuoteData struct {
	Number         string
	Title          string
	BusinessName   string
	ClientName     string
	ClientEmail    string
	Date           string
	ValidUntil     string
	Currency       string
	Notes          string
	Items          []ItemData
	Subtotal       string
	DepositPercent int
	DepositAmount  string
}

// QuotePDF produces the printable quote document.
func QuotePDF(data QuoteData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithRightMargin(15).
		Build()
	m := maroto.New(cfg)

	m.AddRows(
		text.NewRow(12, "QUOTE "+data.Number, props.Text{Size: 16, Style: fontstyle.Bold}),
		text.NewRow(6, data.BusinessName, props.Text{Size: 10}),
		text.NewRow(8, data.Title, props.Text{Size: 12, Style: fontstyle.Bold}),
	)

	m.AddRow(6,
		text.NewCol(6, "To: "+data.ClientName, props.Text{Size: 9}),
		text.NewCol(6, "Date: "+data.Date, props.Text{Size: 9, Align: align.Right}),
	)
	if data.ClientEmail != "" || data.ValidUntil != "" {
		m.AddRow(6,
			text.NewCol(6, data.ClientEmail, props.Text{Size: 9}),
			text.NewCol(6, validUntilLabel(data.ValidUntil), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(4, line.NewCol(12))
	m.AddRow(7,
		text.NewCol(6, "Description", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, "Qty", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(2, "Rate", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(2, "Total", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)
	for _, it := range data.Items {
		m.AddRow(6,
			text.NewCol(6, it.Description, props.Text{Size: 9}),
			text.NewCol(2, it.Quantity, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, it.Rate, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, it.Total, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(4, line.NewCol(12))

	m.AddRow(7,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(2, data.Subtotal+" "+data.Currency, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
	)
	if data.DepositPercent > 0 {
		m.AddRow(6,
			col.New(8),
			text.NewCol(2, fmt.Sprintf("Deposit (%d%%)", data.DepositPercent), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, data.DepositAmount+" "+data.Currency, props.Text{Size: 9, Align: align.Right}),
		)
	}

	if data.Notes != "" {
		m.AddRows(
			text.NewRow(8, "Notes", props.Text{Size: 10, Style: fontstyle.Bold}),
			text.NewRow(6, data.Notes, props.Text{Size: 9}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate quote pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func validUntilLabel(v string) string {
	if v == "" {
		return ""
	}
	return "Valid until: " + v
}
