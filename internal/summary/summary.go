// Package summary computes the headline KPIs of a record set and formats
// them for display.
package summary

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"spendboard/internal/core"
)

// Metrics are the headline numbers of a record set. The distinct counts
// include the empty value when some record lacks the field, unlike the filter
// facets which drop it.
type Metrics struct {
	TotalAmount    float64 `json:"totalAmount"`
	Suppliers      int     `json:"suppliers"`
	PurchaseOrders int     `json:"purchaseOrders"`
	Invoices       int     `json:"invoices"`
	Records        int     `json:"records"`
}

// Compute derives Metrics in a single pass.
func Compute(records []core.SpendRecord) Metrics {
	var total core.Decimal
	suppliers := make(map[string]struct{})
	pos := make(map[string]struct{})
	invoices := make(map[string]struct{})

	for _, r := range records {
		total = total.AddFloat(r.Amount)
		suppliers[r.Supplier] = struct{}{}
		pos[r.PONumber] = struct{}{}
		invoices[r.Invoice] = struct{}{}
	}

	return Metrics{
		TotalAmount:    total.Float64(),
		Suppliers:      len(suppliers),
		PurchaseOrders: len(pos),
		Invoices:       len(invoices),
		Records:        len(records),
	}
}

// FormatThousands renders v in thousands with one decimal: 12345 is "$12.3K".
func FormatThousands(v float64) string {
	return fmt.Sprintf("$%.1fK", v/1000)
}

// Card is one labelled KPI tile.
type Card struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Cards lays m out as the dashboard's KPI tiles. Purchase requests are not
// tracked separately, so the PR count mirrors the transaction count.
func Cards(m Metrics) []Card {
	count := func(n int) string { return humanize.Comma(int64(n)) }
	return []Card{
		{Label: "Spend", Value: FormatThousands(m.TotalAmount)},
		{Label: "Suppliers", Value: count(m.Suppliers)},
		{Label: "Transactions", Value: count(m.Records)},
		{Label: "PO Count", Value: count(m.PurchaseOrders)},
		{Label: "PR Count", Value: count(m.Records)},
		{Label: "Invoice Count", Value: count(m.Invoices)},
	}
}
