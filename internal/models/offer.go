package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferStatus is the closed set of quote states.
type OfferStatus string

const (
	OfferDraft    OfferStatus = "DRAFT"
	OfferSent     OfferStatus = "SENT"
	OfferAccepted OfferStatus = "ACCEPTED"
	OfferRejected OfferStatus = "REJECTED"
)

func (s OfferStatus) Valid() bool {
	switch s {
	case OfferDraft, OfferSent, OfferAccepted, OfferRejected:
		return true
	}
	return false
}

// Offer is a price quote. The money fields are derived together from the
// items and are never patched individually.
type Offer struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	Number     string      `gorm:"size:16;not null;uniqueIndex" json:"number"`
	CustomerID uint        `gorm:"not null;index" json:"customerId"`
	Customer   Customer    `gorm:"foreignKey:CustomerID" json:"customer"`
	Date       time.Time   `gorm:"not null" json:"date"`
	Status     OfferStatus `gorm:"size:16;not null;default:'DRAFT'" json:"status"`
	Items      []OfferItem `gorm:"foreignKey:OfferID" json:"items"`

	TaxPercentage      decimal.Decimal  `gorm:"type:decimal(5,2);not null" json:"taxPercentage"`
	DiscountPercentage *decimal.Decimal `gorm:"type:decimal(5,2)" json:"discountPercentage,omitempty"`
	SubtotalAmount     decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"subtotalAmount"`
	DiscountAmount     decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"discountAmount"`
	TaxAmount          decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"taxAmount"`
	TotalAmount        decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"totalAmount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OfferItem is owned by exactly one offer. UnitPrice is a snapshot of the
// catalog price at add-time (or an explicit override).
type OfferItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OfferID   uint            `gorm:"not null;index" json:"offerId"`
	ServiceID uint            `gorm:"not null" json:"serviceId"`
	Service   Service         `gorm:"foreignKey:ServiceID" json:"service"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unitPrice"`
	// TotalPrice = Quantity * UnitPrice, stored for audit and display.
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalPrice"`
}
