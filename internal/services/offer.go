package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kontorhq/kontor/internal/models"
	"github.com/kontorhq/kontor/internal/money"
	"github.com/kontorhq/kontor/internal/sequence"
)

// OfferService owns the quote aggregate: numbering, line items, and the
// derived money fields, which are always recomputed together.
type OfferService struct {
	db *gorm.DB
}

func NewOfferService(db *gorm.DB) *OfferService { return &OfferService{db: db} }

// OfferItemInput describes one requested line. UnitPrice overrides the
// catalog default when set; otherwise the current default is snapshotted.
type OfferItemInput struct {
	ServiceID uint             `json:"serviceId"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

// OfferInput is the full aggregate payload for create and replace.
type OfferInput struct {
	CustomerID         uint               `json:"customerId"`
	Date               *time.Time         `json:"date,omitempty"`
	Status             models.OfferStatus `json:"status,omitempty"`
	TaxPercentage      *decimal.Decimal   `json:"taxPercentage,omitempty"`
	DiscountPercentage *decimal.Decimal   `json:"discountPercentage,omitempty"`
	Items              []OfferItemInput   `json:"items"`
}

// Create assigns the next offer number, snapshots unit prices, computes all
// derived totals, and persists the offer with its items in one transaction.
func (s *OfferService) Create(ctx context.Context, in OfferInput, defaultTax decimal.Decimal) (*models.Offer, error) {
	if in.CustomerID == 0 || len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: customerId and items are required", ErrValidation)
	}
	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, in.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("load customer %d: %w", in.CustomerID, err)
	}

	tax := defaultTax
	if in.TaxPercentage != nil {
		tax = *in.TaxPercentage
	}
	items, totals, err := s.buildItems(ctx, in.Items, in.DiscountPercentage, tax)
	if err != nil {
		return nil, err
	}

	date := time.Now()
	if in.Date != nil {
		date = *in.Date
	}
	status := models.OfferDraft
	if in.Status != "" {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: offer status %q", ErrInvalidStatus, in.Status)
		}
		status = in.Status
	}

	offer := models.Offer{
		CustomerID:         in.CustomerID,
		Date:               date,
		Status:             status,
		TaxPercentage:      tax,
		DiscountPercentage: in.DiscountPercentage,
		SubtotalAmount:     totals.Subtotal,
		DiscountAmount:     totals.Discount,
		TaxAmount:          totals.Tax,
		TotalAmount:        totals.Total,
	}

	err = s.withNumberRetry(ctx, func(tx *gorm.DB) error {
		n, err := sequence.Next(tx, sequence.Offers)
		if err != nil {
			return err
		}
		offer.ID = 0
		offer.Number = sequence.Format(n)
		if err := tx.Create(&offer).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OfferID = offer.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, offer.ID)
}

// Replace applies full-object replace semantics: the item set and every
// money field are rewritten together, never patched individually.
func (s *OfferService) Replace(ctx context.Context, id uint, in OfferInput, defaultTax decimal.Decimal) (*models.Offer, error) {
	var offer models.Offer
	if err := s.db.WithContext(ctx).First(&offer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("load offer %d: %w", id, err)
	}
	if in.CustomerID == 0 || len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: customerId and items are required", ErrValidation)
	}
	if in.Status != "" && !in.Status.Valid() {
		return nil, fmt.Errorf("%w: offer status %q", ErrInvalidStatus, in.Status)
	}
	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, in.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("load customer %d: %w", in.CustomerID, err)
	}

	tax := defaultTax
	if in.TaxPercentage != nil {
		tax = *in.TaxPercentage
	}
	items, totals, err := s.buildItems(ctx, in.Items, in.DiscountPercentage, tax)
	if err != nil {
		return nil, err
	}

	offer.CustomerID = in.CustomerID
	if in.Date != nil {
		offer.Date = *in.Date
	}
	if in.Status != "" {
		offer.Status = in.Status
	}
	offer.TaxPercentage = tax
	offer.DiscountPercentage = in.DiscountPercentage
	offer.SubtotalAmount = totals.Subtotal
	offer.DiscountAmount = totals.Discount
	offer.TaxAmount = totals.Tax
	offer.TotalAmount = totals.Total

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("offer_id = ?", offer.ID).Delete(&models.OfferItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OfferID = offer.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		return tx.Save(&offer).Error
	})
	if err != nil {
		return nil, fmt.Errorf("replace offer %d: %w", id, err)
	}
	return s.Get(ctx, offer.ID)
}

// Delete removes the offer and its owned items.
func (s *OfferService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Offer{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOfferNotFound
		}
		return tx.Where("offer_id = ?", id).Delete(&models.OfferItem{}).Error
	})
}

// List returns all offers with customer and items resolved.
func (s *OfferService) List(ctx context.Context) ([]models.Offer, error) {
	var offers []models.Offer
	err := s.db.WithContext(ctx).
		Preload("Customer").Preload("Items.Service").
		Order("id desc").Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	return offers, nil
}

// Get loads one offer with customer and items resolved.
func (s *OfferService) Get(ctx context.Context, id uint) (*models.Offer, error) {
	var offer models.Offer
	err := s.db.WithContext(ctx).
		Preload("Customer").Preload("Items.Service").
		First(&offer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("load offer %d: %w", id, err)
	}
	return &offer, nil
}

// buildItems resolves catalog services, snapshots unit prices, and runs the
// money engine over the resulting lines.
func (s *OfferService) buildItems(ctx context.Context, inputs []OfferItemInput, discountPct *decimal.Decimal, taxPct decimal.Decimal) ([]models.OfferItem, money.Totals, error) {
	ids := make([]uint, 0, len(inputs))
	for _, it := range inputs {
		if it.ServiceID == 0 {
			return nil, money.Totals{}, fmt.Errorf("%w: serviceId is required", ErrValidation)
		}
		ids = append(ids, it.ServiceID)
	}
	var services []models.Service
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&services).Error; err != nil {
		return nil, money.Totals{}, fmt.Errorf("load services: %w", err)
	}
	byID := make(map[uint]models.Service, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}

	items := make([]models.OfferItem, 0, len(inputs))
	lines := make([]money.Line, 0, len(inputs))
	for _, it := range inputs {
		svc, ok := byID[it.ServiceID]
		if !ok {
			return nil, money.Totals{}, fmt.Errorf("%w: id %d", ErrServiceNotFound, it.ServiceID)
		}
		unit := svc.DefaultPrice
		if it.UnitPrice != nil {
			unit = *it.UnitPrice
		}
		lines = append(lines, money.Line{Quantity: it.Quantity, UnitPrice: unit})
		items = append(items, models.OfferItem{
			ServiceID: svc.ID,
			Quantity:  it.Quantity,
			UnitPrice: unit,
		})
	}

	totals, err := money.Compute(lines, discountPct, taxPct)
	if err != nil {
		return nil, money.Totals{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	for i := range items {
		items[i].TotalPrice = money.LineTotal(items[i].Quantity, items[i].UnitPrice)
	}
	return items, totals, nil
}

// withNumberRetry runs fn in a transaction and retries once when a unique
// index collision aborts it, which covers the window where two creations
// race for the first counter row.
func (s *OfferService) withNumberRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.db.WithContext(ctx).Transaction(fn)
		if err == nil || !sequence.IsConflict(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrConflict, err)
}
