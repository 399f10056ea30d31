// Package pdf renders offers and invoices into paginated A4 documents.
// A render either returns the complete byte buffer or fails outright;
// partial documents are never surfaced.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kontorhq/kontor/internal/assets"
	"github.com/kontorhq/kontor/internal/config"
	"github.com/kontorhq/kontor/internal/i18n"
	"github.com/kontorhq/kontor/internal/models"
)

// ErrRenderTimeout is returned when a render exceeds its time budget.
var ErrRenderTimeout = errors.New("pdf render timed out")

// Renderer lays out documents for one issuing company.
type Renderer struct {
	Company config.Company
	Assets  assets.Store
	// Timeout bounds one render; zero means no budget.
	Timeout time.Duration
	// Compress toggles stream compression. On in production; tests turn it
	// off to assert on extractable text.
	Compress bool
	Lang     string
}

func New(company config.Company, store assets.Store, timeout time.Duration) *Renderer {
	return &Renderer{Company: company, Assets: store, Timeout: timeout, Compress: true, Lang: "de"}
}

// row is one itemized table line.
type row struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
	PriceType   string
}

// document is the renderer-internal view of either aggregate.
type document struct {
	Kind          string // i18n key: doc.offer or doc.invoice
	Number        string
	Date          time.Time
	DueDate       *time.Time
	Customer      models.Customer
	Rows          []row
	Subtotal      decimal.Decimal
	DiscountPct   *decimal.Decimal
	Discount      decimal.Decimal
	TaxPct        decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	Notes         string
	ShowPriceType bool
	PreparedBy    string
}

// OfferFilename is the attachment name for a rendered offer.
func OfferFilename(number string) string { return "angebot_" + number + ".pdf" }

// InvoiceFilename is the attachment name for a rendered invoice.
func InvoiceFilename(number string) string { return "Rechnung_" + number + ".pdf" }

// RenderOffer renders a quote. The offer must carry its customer and items.
func (r *Renderer) RenderOffer(ctx context.Context, offer *models.Offer, preparedBy string) ([]byte, error) {
	doc := document{
		Kind:        "doc.offer",
		Number:      offer.Number,
		Date:        offer.Date,
		Customer:    offer.Customer,
		Subtotal:    offer.SubtotalAmount,
		DiscountPct: offer.DiscountPercentage,
		Discount:    offer.DiscountAmount,
		TaxPct:      offer.TaxPercentage,
		Tax:         offer.TaxAmount,
		Total:       offer.TotalAmount,
		PreparedBy:  r.preparer(preparedBy),
	}
	for _, it := range offer.Items {
		doc.Rows = append(doc.Rows, row{
			Description: it.Service.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.TotalPrice,
		})
	}
	return r.render(ctx, doc)
}

// RenderInvoice renders an invoice. The invoice must carry its offer with
// customer and items resolved; monetary figures come from the invoice's
// own snapshot, never from the live offer.
func (r *Renderer) RenderInvoice(ctx context.Context, inv *models.Invoice, preparedBy string) ([]byte, error) {
	due := inv.DueDate
	doc := document{
		Kind:          "doc.invoice",
		Number:        inv.Number,
		Date:          inv.IssueDate,
		DueDate:       &due,
		Customer:      inv.Offer.Customer,
		Subtotal:      inv.SubtotalAmount,
		DiscountPct:   inv.Offer.DiscountPercentage,
		Discount:      inv.DiscountAmount,
		TaxPct:        inv.TaxPercentage,
		Tax:           inv.TaxAmount,
		Total:         inv.TotalAmount,
		Notes:         inv.Notes,
		ShowPriceType: true,
		PreparedBy:    r.preparer(preparedBy),
	}
	for _, it := range inv.Offer.Items {
		doc.Rows = append(doc.Rows, row{
			Description: it.Service.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.TotalPrice,
			PriceType:   it.Service.PriceType.Label(),
		})
	}
	return r.render(ctx, doc)
}

// preparer resolves the signature name, falling back to the brand.
func (r *Renderer) preparer(name string) string {
	if name != "" {
		return name
	}
	return r.Company.Name
}

// render runs the layout under the configured time budget.
func (r *Renderer) render(ctx context.Context, doc document) ([]byte, error) {
	type result struct {
		bytes []byte
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		b, err := r.build(doc)
		ch <- result{b, err}
	}()

	var deadline <-chan time.Time
	if r.Timeout > 0 {
		timer := time.NewTimer(r.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("render %s %s: %w", i18n.T("en", doc.Kind), doc.Number, res.err)
		}
		return res.bytes, nil
	case <-deadline:
		return nil, fmt.Errorf("render %s: %w", doc.Number, ErrRenderTimeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("render %s: %w", doc.Number, ctx.Err())
	}
}
