package handlers_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/kontorhq/kontor/internal/models"
)

func TestOfferEndpointComputesTotals(t *testing.T) {
	env := newTestEnv(t)
	offer := env.createOffer(t)

	if offer.Number != "00001" {
		t.Errorf("number = %q", offer.Number)
	}
	if offer.TotalAmount.StringFixed(2) != "267.75" {
		t.Errorf("total = %s", offer.TotalAmount.StringFixed(2))
	}

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/offers/%d", offer.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d", rec.Code)
	}
	var fetched models.Offer
	decode(t, rec, &fetched)
	if fetched.Customer.Name != "Musterfirma AG" || len(fetched.Items) != 2 {
		t.Errorf("relations not resolved: %+v", fetched)
	}
}

func TestOfferEndpointValidation(t *testing.T) {
	env := newTestEnv(t)
	customerID, hourlyID, _ := env.seedCatalog(t)

	rec := env.do(t, http.MethodPost, "/offers", `{"customerId": 0, "items": []}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty payload: %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodPost, "/offers", fmt.Sprintf(
		`{"customerId": %d, "discountPercentage": "120", "items": [{"serviceId": %d, "quantity": 1}]}`,
		customerID, hourlyID))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("discount out of range: %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/offers", fmt.Sprintf(
		`{"customerId": 9999, "items": [{"serviceId": %d, "quantity": 1}]}`, hourlyID))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown customer: %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/offers", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: %d", rec.Code)
	}
}

func TestOfferEndpointReplaceAndDelete(t *testing.T) {
	env := newTestEnv(t)
	offer := env.createOffer(t)

	body := fmt.Sprintf(`{
		"customerId": %d,
		"status": "ACCEPTED",
		"items": [{"serviceId": %d, "quantity": 1}]
	}`, offer.CustomerID, offer.Items[0].ServiceID)
	rec := env.do(t, http.MethodPut, fmt.Sprintf("/offers/%d", offer.ID), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("replace: %d %s", rec.Code, rec.Body.String())
	}
	var replaced models.Offer
	decode(t, rec, &replaced)
	if replaced.Number != offer.Number {
		t.Errorf("number changed: %q -> %q", offer.Number, replaced.Number)
	}
	if replaced.Status != models.OfferAccepted || replaced.TotalAmount.StringFixed(2) != "119.00" {
		t.Errorf("replaced = %+v", replaced)
	}

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/offers/%d", offer.ID), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/offers/%d", offer.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: %d", rec.Code)
	}
}

func TestOfferPDFEndpoint(t *testing.T) {
	env := newTestEnv(t)
	offer := env.createOffer(t)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/offers/%d/pdf", offer.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("pdf: %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, `attachment; filename="angebot_00001.pdf"`) {
		t.Errorf("disposition = %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF-") {
		t.Error("body is not a PDF")
	}

	rec = env.do(t, http.MethodGet, "/offers/9999/pdf", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("pdf for unknown offer: %d", rec.Code)
	}
}
