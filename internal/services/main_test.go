package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kontorhq/kontor/internal/db"
	"github.com/kontorhq/kontor/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// single writer: serialize concurrent test transactions on sqlite
	sqlDB.SetMaxOpenConns(1)
	for _, m := range db.Models() {
		if err := conn.AutoMigrate(m); err != nil {
			t.Fatalf("migrate %T: %v", m, err)
		}
	}
	return conn
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedCatalog(t *testing.T, conn *gorm.DB) (models.Customer, models.Service, models.Service) {
	t.Helper()
	customer := models.Customer{Name: "Musterfirma AG", Email: "buchhaltung@musterfirma.example", Address: "Hauptstraße 1\n10115 Berlin"}
	if err := conn.Create(&customer).Error; err != nil {
		t.Fatalf("customer: %v", err)
	}
	consulting := models.Service{Name: "Beratung", DefaultPrice: dec("100"), PriceType: models.PriceHourly}
	if err := conn.Create(&consulting).Error; err != nil {
		t.Fatalf("service: %v", err)
	}
	flat := models.Service{Name: "Projektpauschale", DefaultPrice: dec("50"), PriceType: models.PriceFixed}
	if err := conn.Create(&flat).Error; err != nil {
		t.Fatalf("service: %v", err)
	}
	return customer, consulting, flat
}

// createReferenceOffer builds the 2×100 + 1×50, 10% discount, 19% tax offer
// used across the suite (totals 250 / 25 / 42.75 / 267.75).
func createReferenceOffer(t *testing.T, conn *gorm.DB) *models.Offer {
	t.Helper()
	customer, consulting, flat := seedCatalog(t, conn)
	svc := NewOfferService(conn)
	discount := dec("10")
	tax := dec("19")
	offer, err := svc.Create(t.Context(), OfferInput{
		CustomerID:         customer.ID,
		TaxPercentage:      &tax,
		DiscountPercentage: &discount,
		Items: []OfferItemInput{
			{ServiceID: consulting.ID, Quantity: 2},
			{ServiceID: flat.ID, Quantity: 1},
		},
	}, dec("19"))
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	return offer
}

func daysFromNow(n int) time.Time { return time.Now().AddDate(0, 0, n) }
