package pdf

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/kontorhq/kontor/internal/i18n"
)

// ISO A4 in points; uniform content margin.
const (
	pageMargin    = 48.0
	logoWidth     = 110.0
	rowHeight     = 22.0
	headRowHeight = 24.0
	footerReserve = 80.0
)

// build composes the full document. Any missing configured asset aborts
// before a single page is emitted.
func (r *Renderer) build(doc document) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(r.Compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)

	family, tr, err := r.loadFonts(pdf)
	if err != nil {
		return nil, err
	}
	logoType, err := r.loadLogo(pdf)
	if err != nil {
		return nil, err
	}

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*pageMargin
	limit := pageH - pageMargin - footerReserve

	p := r.printer()
	t := func(code string) string { return i18n.T(r.Lang, code) }

	pdf.SetFooterFunc(func() {
		r.footer(pdf, family, tr, t, pageW, pageH, contentW)
	})
	pdf.AddPage()

	// Company header, logo anchored top-right.
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont(family, "B", 14)
	pdf.CellFormat(contentW-logoWidth, 18, tr(r.Company.Name), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 9)
	pdf.SetTextColor(90, 90, 90)
	for _, line := range []string{r.Company.AddressLine1, r.Company.AddressLine2, r.Company.Email, r.Company.Phone} {
		if line != "" {
			pdf.CellFormat(contentW-logoWidth, 12, tr(line), "", 1, "L", false, 0, "")
		}
	}
	if logoType != "" {
		pdf.ImageOptions("logo", pageW-pageMargin-logoWidth, pageMargin, logoWidth, 0, false,
			gofpdf.ImageOptions{ImageType: logoType}, 0, "")
	}

	// Title and dates.
	pdf.SetY(pageMargin + 96)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont(family, "B", 13)
	title := fmt.Sprintf("%s %s %s", t(doc.Kind), t("doc.number"), doc.Number)
	pdf.CellFormat(contentW, 20, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 10)
	pdf.CellFormat(contentW, 14, tr(fmt.Sprintf("%s: %s", t("doc.date"), i18n.LongDate(r.Lang, doc.Date))), "", 1, "L", false, 0, "")
	if doc.DueDate != nil {
		pdf.CellFormat(contentW, 14, tr(fmt.Sprintf("%s: %s", t("doc.due_date"), i18n.LongDate(r.Lang, *doc.DueDate))), "", 1, "L", false, 0, "")
	}

	// Customer block: each line only when present.
	pdf.Ln(10)
	pdf.SetFont(family, "B", 10)
	pdf.CellFormat(contentW, 14, tr(doc.Customer.Name), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 10)
	if doc.Customer.Address != "" {
		for _, line := range strings.Split(doc.Customer.Address, "\n") {
			pdf.CellFormat(contentW, 13, tr(line), "", 1, "L", false, 0, "")
		}
	}
	if doc.Customer.Email != "" {
		pdf.CellFormat(contentW, 13, tr(doc.Customer.Email), "", 1, "L", false, 0, "")
	}
	pdf.Ln(12)

	// Itemized table with page-break continuation.
	cols := r.columns(doc, contentW, t)
	drawHead := func() {
		pdf.SetFont(family, "B", 9)
		pdf.SetFillColor(228, 228, 228)
		for _, c := range cols {
			pdf.CellFormat(c.width, headRowHeight, tr(c.header), "1", 0, c.align, true, 0, "")
		}
		pdf.Ln(headRowHeight)
	}
	drawHead()
	pdf.SetFont(family, "", 9)
	for i, rw := range doc.Rows {
		if pdf.GetY()+rowHeight > limit {
			pdf.AddPage()
			drawHead()
			pdf.SetFont(family, "", 9)
		}
		values := r.rowValues(doc, i, rw, p)
		for ci, c := range cols {
			pdf.CellFormat(c.width, rowHeight, tr(values[ci]), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(rowHeight)
	}

	// Totals block beneath the table.
	totalsHeight := 4*16.0 + 40
	if pdf.GetY()+totalsHeight > limit {
		pdf.AddPage()
	}
	pdf.Ln(8)
	labelW := contentW * 0.62
	valueW := contentW - labelW
	totalLine := func(label string, amount decimal.Decimal, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont(family, style, 10)
		pdf.CellFormat(labelW, 16, tr(label), "", 0, "R", false, 0, "")
		pdf.CellFormat(valueW, 16, tr(r.formatAmount(p, amount)), "", 1, "R", false, 0, "")
	}
	totalLine(t("totals.subtotal"), doc.Subtotal, false)
	if doc.Discount.IsPositive() {
		label := t("totals.discount")
		if doc.DiscountPct != nil {
			label = fmt.Sprintf("%s (%s %%)", label, r.formatPercent(p, *doc.DiscountPct))
		}
		totalLine(label, doc.Discount.Neg(), false)
	}
	totalLine(fmt.Sprintf("%s (%s %%)", t("totals.tax"), r.formatPercent(p, doc.TaxPct)), doc.Tax, false)
	totalLine(t("totals.total"), doc.Total, true)

	if doc.Notes != "" {
		pdf.Ln(10)
		pdf.SetFont(family, "", 9)
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(contentW, 12, tr(doc.Notes), "", "L", false)
		pdf.SetTextColor(20, 20, 20)
	}

	// Closing signature line.
	pdf.Ln(18)
	pdf.SetFont(family, "", 10)
	pdf.CellFormat(contentW, 14, tr(fmt.Sprintf("%s: %s", t("doc.prepared_by"), doc.PreparedBy)), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type column struct {
	header string
	width  float64
	align  string
}

// columns returns the fixed-proportion table layout; invoices carry the
// extra price-type column.
func (r *Renderer) columns(doc document, contentW float64, t func(string) string) []column {
	if doc.ShowPriceType {
		return []column{
			{t("table.position"), contentW * 0.07, "C"},
			{t("table.description"), contentW * 0.37, "L"},
			{t("table.quantity"), contentW * 0.09, "C"},
			{t("table.unit_price"), contentW * 0.17, "R"},
			{t("table.total"), contentW * 0.17, "R"},
			{t("table.price_type"), contentW * 0.13, "L"},
		}
	}
	return []column{
		{t("table.position"), contentW * 0.07, "C"},
		{t("table.description"), contentW * 0.50, "L"},
		{t("table.quantity"), contentW * 0.09, "C"},
		{t("table.unit_price"), contentW * 0.17, "R"},
		{t("table.total"), contentW * 0.17, "R"},
	}
}

func (r *Renderer) rowValues(doc document, i int, rw row, p *message.Printer) []string {
	values := []string{
		strconv.Itoa(i + 1),
		rw.Description,
		strconv.Itoa(rw.Quantity),
		r.formatAmount(p, rw.UnitPrice),
		r.formatAmount(p, rw.Total),
	}
	if doc.ShowPriceType {
		values = append(values, rw.PriceType)
	}
	return values
}

// footer draws the static three-column company/bank/registration block,
// anchored near the bottom margin of every page.
func (r *Renderer) footer(pdf *gofpdf.Fpdf, family string, tr func(string) string, t func(string) string, pageW, pageH, contentW float64) {
	colW := contentW / 3
	top := pageH - pageMargin - 42
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(pageMargin, top-6, pageW-pageMargin, top-6)
	pdf.SetFont(family, "", 7.5)
	pdf.SetTextColor(120, 120, 120)

	columns := [][]string{
		{r.Company.Name, r.Company.AddressLine1, r.Company.AddressLine2},
		{r.Company.BankName, r.Company.IBAN, r.Company.BIC},
		{r.Company.TaxNumber, r.Company.Registry, r.Company.Web},
	}
	for ci, lines := range columns {
		y := top
		for _, line := range lines {
			if line == "" {
				continue
			}
			pdf.SetXY(pageMargin+float64(ci)*colW, y)
			pdf.CellFormat(colW, 10, tr(line), "", 0, "L", false, 0, "")
			y += 10
		}
	}
	pdf.SetXY(pageMargin, pageH-pageMargin-8)
	pdf.CellFormat(contentW, 10, tr(fmt.Sprintf("%s %d", t("doc.page"), pdf.PageNo())), "", 0, "C", false, 0, "")
	pdf.SetTextColor(20, 20, 20)
}

// loadFonts registers the brand font pair when configured, otherwise the
// built-in core font is used with a codepage translator for umlauts and €.
func (r *Renderer) loadFonts(pdf *gofpdf.Fpdf) (string, func(string) string, error) {
	if r.Company.FontRegularAsset == "" && r.Company.FontBoldAsset == "" {
		return "Helvetica", pdf.UnicodeTranslatorFromDescriptor(""), nil
	}
	regular, err := r.Assets.Read(r.Company.FontRegularAsset)
	if err != nil {
		return "", nil, fmt.Errorf("regular font: %w", err)
	}
	bold, err := r.Assets.Read(r.Company.FontBoldAsset)
	if err != nil {
		return "", nil, fmt.Errorf("bold font: %w", err)
	}
	pdf.AddUTF8FontFromBytes("brand", "", regular)
	pdf.AddUTF8FontFromBytes("brand", "B", bold)
	identity := func(s string) string { return s }
	return "brand", identity, nil
}

// loadLogo registers the configured logo image; returns its gofpdf image
// type, or "" when no logo is configured.
func (r *Renderer) loadLogo(pdf *gofpdf.Fpdf) (string, error) {
	if r.Company.LogoAsset == "" {
		return "", nil
	}
	b, err := r.Assets.Read(r.Company.LogoAsset)
	if err != nil {
		return "", fmt.Errorf("logo: %w", err)
	}
	imgType := "PNG"
	switch strings.ToLower(filepath.Ext(r.Company.LogoAsset)) {
	case ".jpg", ".jpeg":
		imgType = "JPG"
	case ".gif":
		imgType = "GIF"
	}
	pdf.RegisterImageOptionsReader("logo", gofpdf.ImageOptions{ImageType: imgType}, bytes.NewReader(b))
	return imgType, nil
}

func (r *Renderer) printer() *message.Printer {
	tag := language.German
	if r.Lang == "en" {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

// formatAmount renders "1.234,56 €" style currency strings (German default).
func (r *Renderer) formatAmount(p *message.Printer, d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return p.Sprintf("%v €", number.Decimal(f, number.Scale(2)))
}

func (r *Renderer) formatPercent(p *message.Printer, d decimal.Decimal) string {
	f, _ := d.Float64()
	return p.Sprintf("%v", number.Decimal(f, number.MaxFractionDigits(2)))
}
