package sequence

import (
	"fmt"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kontorhq/kontor/internal/models"
)

func setupSequenceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// sqlite allows one writer; funnel everything through one connection so
	// concurrent transactions queue instead of failing with a busy error.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Counter{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestNextIsMonotonic(t *testing.T) {
	db := setupSequenceTestDB(t)
	for want := int64(1); want <= 5; want++ {
		var got int64
		err := db.Transaction(func(tx *gorm.DB) error {
			n, err := Next(tx, Offers)
			got = n
			return err
		})
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if got != want {
			t.Fatalf("allocation %d returned %d", want, got)
		}
	}
}

func TestNextSequencesAreIndependent(t *testing.T) {
	db := setupSequenceTestDB(t)
	err := db.Transaction(func(tx *gorm.DB) error {
		if n, err := Next(tx, Offers); err != nil || n != 1 {
			return fmt.Errorf("offer seq: n=%d err=%v", n, err)
		}
		if n, err := Next(tx, Invoices); err != nil || n != 1 {
			return fmt.Errorf("invoice seq: n=%d err=%v", n, err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestNextUniqueUnderConcurrentCallers(t *testing.T) {
	db := setupSequenceTestDB(t)
	const n = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		got  = make(map[int64]bool, n)
		errs []error
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				v, err := Next(tx, Invoices)
				if err != nil {
					return err
				}
				mu.Lock()
				got[v] = true
				mu.Unlock()
				return nil
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(errs) > 0 {
		t.Fatalf("allocation errors: %v", errs)
	}
	if len(got) != n {
		t.Fatalf("expected %d distinct numbers, got %d: %v", n, len(got), got)
	}
}

func TestFormat(t *testing.T) {
	if got := Format(1); got != "00001" {
		t.Errorf("Format(1) = %q", got)
	}
	if got := Format(12345); got != "12345" {
		t.Errorf("Format(12345) = %q", got)
	}
	if got := Format(123456); got != "123456" {
		t.Errorf("Format(123456) = %q", got)
	}
}
