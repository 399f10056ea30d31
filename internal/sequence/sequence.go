// Package sequence allocates sequential document numbers. Each named
// sequence lives in a single counters row that is incremented inside the
// caller's transaction, so two concurrent creations can never both observe
// the same "next" value: the row update serializes them.
package sequence

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kontorhq/kontor/internal/models"
)

const (
	Offers   = "offer"
	Invoices = "invoice"
)

// Next increments the named counter and returns the new value. Must be
// called inside a transaction together with the insert that consumes the
// number; if the transaction aborts the increment rolls back with it.
func Next(tx *gorm.DB, name string) (int64, error) {
	res := tx.Model(&models.Counter{}).
		Where("name = ?", name).
		Update("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return 0, fmt.Errorf("increment %s counter: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		// First allocation for this sequence. A concurrent first allocation
		// hits the primary key and aborts the enclosing transaction; the
		// caller retries.
		if err := tx.Create(&models.Counter{Name: name, Value: 1}).Error; err != nil {
			return 0, fmt.Errorf("create %s counter: %w", name, err)
		}
		return 1, nil
	}
	var c models.Counter
	if err := tx.Where("name = ?", name).First(&c).Error; err != nil {
		return 0, fmt.Errorf("read %s counter: %w", name, err)
	}
	return c.Value, nil
}

// Format zero-pads a sequence value to the five-digit document form.
func Format(n int64) string {
	return fmt.Sprintf("%05d", n)
}

// IsConflict reports whether err is a unique-constraint violation, the
// signal to retry an allocation.
func IsConflict(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
