package handlers_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kontorhq/kontor/internal/assets"
	"github.com/kontorhq/kontor/internal/auth"
	"github.com/kontorhq/kontor/internal/config"
	"github.com/kontorhq/kontor/internal/db"
	"github.com/kontorhq/kontor/internal/models"
	"github.com/kontorhq/kontor/internal/pdf"
	"github.com/kontorhq/kontor/internal/server"
)

// testEnv drives the full router the way a client would, cookie included.
type testEnv struct {
	db      *gorm.DB
	handler http.Handler
	cookie  *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
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
	sqlDB.SetMaxOpenConns(1)
	for _, m := range db.Models() {
		if err := conn.AutoMigrate(m); err != nil {
			t.Fatalf("migrate %T: %v", m, err)
		}
	}

	cfg := config.Config{DefaultTaxPercent: decimal.NewFromInt(19)}
	cfg.Company.Name = "Kontor GmbH"
	renderer := pdf.New(cfg.Company, assets.Dir(t.TempDir()), 5*time.Second)
	handler := server.New(conn, cfg, renderer, zerolog.Nop())

	env := &testEnv{db: conn, handler: handler}
	env.cookie = env.seedUser(t, "erika@example.com", "geheim")
	return env
}

// seedUser creates a login and returns a valid session cookie for it.
func (e *testEnv) seedUser(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := models.User{Email: email, Password: string(hash), FirstName: "Erika", LastName: "Beispiel"}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	rec := httptest.NewRecorder()
	auth.CreateSession(rec, user.ID)
	return rec.Result().Cookies()[0]
}

// do issues an authenticated JSON request against the router.
func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return e.doWith(t, method, path, body, e.cookie)
}

func (e *testEnv) doWith(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

// seedCatalog inserts a customer and two services, returning their ids.
func (e *testEnv) seedCatalog(t *testing.T) (customerID, hourlyID, fixedID uint) {
	t.Helper()
	customer := models.Customer{Name: "Musterfirma AG", Address: "Hauptstraße 1\n10115 Berlin"}
	if err := e.db.Create(&customer).Error; err != nil {
		t.Fatalf("customer: %v", err)
	}
	hourly := models.Service{Name: "Beratung", DefaultPrice: decimal.NewFromInt(100), PriceType: models.PriceHourly}
	if err := e.db.Create(&hourly).Error; err != nil {
		t.Fatalf("service: %v", err)
	}
	fixed := models.Service{Name: "Projektpauschale", DefaultPrice: decimal.NewFromInt(50), PriceType: models.PriceFixed}
	if err := e.db.Create(&fixed).Error; err != nil {
		t.Fatalf("service: %v", err)
	}
	return customer.ID, hourly.ID, fixed.ID
}

// createOffer posts the reference offer (2×100 + 1×50, 10% off, 19% tax).
func (e *testEnv) createOffer(t *testing.T) models.Offer {
	t.Helper()
	customerID, hourlyID, fixedID := e.seedCatalog(t)
	body := fmt.Sprintf(`{
		"customerId": %d,
		"discountPercentage": "10",
		"taxPercentage": "19",
		"items": [
			{"serviceId": %d, "quantity": 2},
			{"serviceId": %d, "quantity": 1}
		]
	}`, customerID, hourlyID, fixedID)
	rec := e.do(t, http.MethodPost, "/offers", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create offer: %d %s", rec.Code, rec.Body.String())
	}
	var offer models.Offer
	decode(t, rec, &offer)
	return offer
}
