package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the closed set of invoice states.
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "PENDING"
	InvoicePaid    InvoiceStatus = "PAID"
	InvoiceOverdue InvoiceStatus = "OVERDUE"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoicePending, InvoicePaid, InvoiceOverdue:
		return true
	}
	return false
}

// Invoice is an immutable financial record derived from exactly one offer.
// The monetary fields are copied verbatim at derivation time and are never
// recomputed, even if the offer changes afterwards.
type Invoice struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Number      string        `gorm:"size:16;not null;uniqueIndex" json:"number"`
	OfferID     uint          `gorm:"not null;uniqueIndex" json:"offerId"`
	Offer       Offer         `gorm:"foreignKey:OfferID" json:"offer"`
	Status      InvoiceStatus `gorm:"size:16;not null;default:'PENDING'" json:"status"`
	IssueDate   time.Time     `gorm:"not null" json:"issueDate"`
	DueDate     time.Time     `gorm:"not null" json:"dueDate"`
	PaymentDate *time.Time    `json:"paymentDate,omitempty"`
	Notes       string        `json:"notes,omitempty"`

	SubtotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotalAmount"`
	TaxPercentage  decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"taxPercentage"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"taxAmount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discountAmount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
