// Package i18n holds the small label catalog used on generated documents
// and API messages. German is the default; English is the fallback set.
package i18n

import (
	"fmt"
	"strings"
	"time"
)

const defaultLang = "de"

var catalog = map[string]map[string]string{
	"de": {
		"doc.offer":         "Angebot",
		"doc.invoice":       "Rechnung",
		"doc.number":        "Nr.",
		"doc.date":          "Datum",
		"doc.due_date":      "Fällig am",
		"table.position":    "Pos.",
		"table.description": "Beschreibung",
		"table.quantity":    "Menge",
		"table.unit_price":  "Einzelpreis",
		"table.total":       "Gesamt",
		"table.price_type":  "Abrechnung",
		"totals.subtotal":   "Zwischensumme",
		"totals.discount":   "Rabatt",
		"totals.tax":        "USt.",
		"totals.total":      "Gesamtbetrag",
		"doc.prepared_by":   "Erstellt von",
		"doc.page":          "Seite",
	},
	"en": {
		"doc.offer":         "Offer",
		"doc.invoice":       "Invoice",
		"doc.number":        "No.",
		"doc.date":          "Date",
		"doc.due_date":      "Due date",
		"table.position":    "Pos.",
		"table.description": "Description",
		"table.quantity":    "Qty",
		"table.unit_price":  "Unit price",
		"table.total":       "Total",
		"table.price_type":  "Billing",
		"totals.subtotal":   "Subtotal",
		"totals.discount":   "Discount",
		"totals.tax":        "VAT",
		"totals.total":      "Grand total",
		"doc.prepared_by":   "Prepared by",
		"doc.page":          "Page",
	},
}

// T translates code for lang, falling back to German, then to the code
// itself so missing labels stay visible instead of vanishing.
func T(lang, code string) string {
	if m, ok := catalog[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := catalog[defaultLang][code]; ok {
		return s
	}
	return code
}

// DetectLanguage picks a supported language from an Accept-Language header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		if len(tag) >= 2 {
			if _, ok := catalog[tag[:2]]; ok {
				return tag[:2]
			}
		}
	}
	return defaultLang
}

var germanMonths = [...]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// LongDate renders t in the locale's long style ("2. Januar 2006").
func LongDate(lang string, t time.Time) string {
	if lang == "en" {
		return t.Format("2 January 2006")
	}
	return fmt.Sprintf("%d. %s %d", t.Day(), germanMonths[t.Month()-1], t.Year())
}
