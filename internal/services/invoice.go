package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kontorhq/kontor/internal/models"
	"github.com/kontorhq/kontor/internal/sequence"
)

// InvoiceService derives immutable invoices from offers and drives their
// status lifecycle (PENDING → PAID / OVERDUE).
type InvoiceService struct {
	db *gorm.DB
	// now is swappable for tests.
	now func() time.Time
}

func NewInvoiceService(db *gorm.DB) *InvoiceService {
	return &InvoiceService{db: db, now: time.Now}
}

// Derive creates the invoice for an offer: next INV number, verbatim
// snapshot of the offer's money fields, status PENDING. At most one invoice
// may exist per offer; the unique index on offer_id backstops the check
// under concurrent requests.
func (s *InvoiceService) Derive(ctx context.Context, offerID uint, dueDate time.Time, notes string) (*models.Invoice, error) {
	var offer models.Offer
	if err := s.db.WithContext(ctx).First(&offer, offerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("load offer %d: %w", offerID, err)
	}
	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Invoice{}).Where("offer_id = ?", offerID).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check existing invoice: %w", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateInvoice
	}

	inv := models.Invoice{
		OfferID:        offer.ID,
		Status:         models.InvoicePending,
		IssueDate:      s.now(),
		DueDate:        dueDate,
		Notes:          notes,
		SubtotalAmount: offer.SubtotalAmount,
		TaxPercentage:  offer.TaxPercentage,
		TaxAmount:      offer.TaxAmount,
		DiscountAmount: offer.DiscountAmount,
		TotalAmount:    offer.TotalAmount,
	}

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			n, err := sequence.Next(tx, sequence.Invoices)
			if err != nil {
				return err
			}
			inv.ID = 0
			inv.Number = "INV-" + sequence.Format(n)
			return tx.Create(&inv).Error
		})
		if err == nil {
			return s.Get(ctx, inv.ID)
		}
		if !sequence.IsConflict(err) {
			return nil, fmt.Errorf("create invoice: %w", err)
		}
		// A unique collision is either the per-offer constraint (a racing
		// duplicate derivation won) or the number index (retry).
		var count int64
		if cErr := s.db.WithContext(ctx).Model(&models.Invoice{}).Where("offer_id = ?", offerID).Count(&count).Error; cErr == nil && count > 0 {
			return nil, ErrDuplicateInvoice
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrConflict, err)
}

// ReconcileOverdue flips past-due pending invoices to OVERDUE. Idempotent;
// the list handler runs it before every read, making the side-effecting
// read explicit instead of hiding it inside the query.
func (s *InvoiceService) ReconcileOverdue(ctx context.Context) error {
	err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("status = ? AND due_date < ?", models.InvoicePending, s.now()).
		Update("status", models.InvoiceOverdue).Error
	if err != nil {
		return fmt.Errorf("reconcile overdue invoices: %w", err)
	}
	return nil
}

// StatusUpdate is the PATCH payload for an invoice.
type StatusUpdate struct {
	Status      models.InvoiceStatus `json:"status"`
	PaymentDate *time.Time           `json:"paymentDate,omitempty"`
	Notes       *string              `json:"notes,omitempty"`
}

// UpdateStatus applies a lifecycle transition. PAID is terminal: it can
// never be reverted to PENDING or OVERDUE, and reaching it requires a
// payment date.
func (s *InvoiceService) UpdateStatus(ctx context.Context, id uint, upd StatusUpdate) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.db.WithContext(ctx).First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("load invoice %d: %w", id, err)
	}
	if upd.Status != "" {
		if !upd.Status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, upd.Status)
		}
		if inv.Status == models.InvoicePaid && upd.Status != models.InvoicePaid {
			return nil, fmt.Errorf("%w: a paid invoice cannot go back to %s", ErrInvalidStatus, upd.Status)
		}
		if upd.Status == models.InvoicePaid && inv.Status != models.InvoicePaid {
			if upd.PaymentDate == nil {
				return nil, fmt.Errorf("%w: paymentDate is required to mark an invoice paid", ErrValidation)
			}
			inv.PaymentDate = upd.PaymentDate
		}
		inv.Status = upd.Status
	}
	if upd.Notes != nil {
		inv.Notes = *upd.Notes
	}
	if err := s.db.WithContext(ctx).Save(&inv).Error; err != nil {
		return nil, fmt.Errorf("update invoice %d: %w", id, err)
	}
	return s.Get(ctx, inv.ID)
}

// Delete removes the invoice row. No audit trail is kept.
func (s *InvoiceService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Invoice{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete invoice %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// List returns all invoices with the offer chain resolved.
func (s *InvoiceService) List(ctx context.Context) ([]models.Invoice, error) {
	var invs []models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Offer.Customer").Preload("Offer.Items.Service").
		Order("id desc").Find(&invs).Error
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invs, nil
}

// Get loads one invoice with offer → customer → items resolved.
func (s *InvoiceService) Get(ctx context.Context, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Offer.Customer").Preload("Offer.Items.Service").
		First(&inv, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("load invoice %d: %w", id, err)
	}
	return &inv, nil
}
