package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceType classifies how a catalog service is billed.
type PriceType string

const (
	PriceFixed  PriceType = "FIXED"
	PriceHourly PriceType = "HOURLY"
)

func (p PriceType) Valid() bool {
	return p == PriceFixed || p == PriceHourly
}

// Label returns the human-readable label printed on invoices.
func (p PriceType) Label() string {
	if p == PriceHourly {
		return "pro Stunde"
	}
	return "Pauschal"
}

// Service is a catalog entry. Offer lines snapshot DefaultPrice at add-time,
// so editing a service never changes historical documents.
type Service struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"not null;index" json:"name"`
	Description  string          `json:"description,omitempty"`
	DefaultPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"defaultPrice"`
	PriceType    PriceType       `gorm:"size:16;not null;default:'FIXED'" json:"priceType"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
