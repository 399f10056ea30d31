package handlers

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/kontorhq/kontor/internal/httpx"
	"github.com/kontorhq/kontor/internal/models"
	"github.com/kontorhq/kontor/internal/validation"
)

// CustomerHandler is plain table CRUD; no service layer in between.
type CustomerHandler struct {
	db *gorm.DB
}

func NewCustomerHandler(db *gorm.DB) *CustomerHandler {
	return &CustomerHandler{db: db}
}

type customerRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

func (req customerRequest) validate() validation.Violations {
	v := make(validation.Violations)
	validation.Required("name", req.Name, v)
	return v
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	db := h.db.WithContext(r.Context())
	if q != "" {
		db = db.Where("name LIKE ?", "%"+q+"%")
	}
	var customers []models.Customer
	if err := db.Order("name").Find(&customers).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	customer := models.Customer{Name: req.Name, Address: req.Address, Email: req.Email, Phone: req.Phone}
	if err := h.db.WithContext(r.Context()).Create(&customer).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var customer models.Customer
	if err := h.db.WithContext(r.Context()).First(&customer, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var req customerRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	customer.Name = req.Name
	customer.Address = req.Address
	customer.Email = req.Email
	customer.Phone = req.Phone
	if err := h.db.WithContext(r.Context()).Save(&customer).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

// Delete refuses to remove a customer that still has offers; documents
// reference the row and must be removed first.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var referenced int64
	h.db.WithContext(r.Context()).Model(&models.Offer{}).Where("customer_id = ?", id).Count(&referenced)
	if referenced > 0 {
		httpx.JSONError(w, http.StatusConflict, "conflict", "customer has offers")
		return
	}
	res := h.db.WithContext(r.Context()).Delete(&models.Customer{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
