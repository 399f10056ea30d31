package handlers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kontorhq/kontor/internal/httpx"
	"github.com/kontorhq/kontor/internal/models"
	"github.com/kontorhq/kontor/internal/validation"
)

// ServiceHandler manages the billable catalog. Offer lines snapshot prices
// at add-time, so edits here never rewrite existing documents.
type ServiceHandler struct {
	db *gorm.DB
}

func NewServiceHandler(db *gorm.DB) *ServiceHandler {
	return &ServiceHandler{db: db}
}

type serviceRequest struct {
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	DefaultPrice *decimal.Decimal `json:"defaultPrice"`
	PriceType    models.PriceType `json:"priceType"`
}

func (req serviceRequest) validate() validation.Violations {
	v := make(validation.Violations)
	validation.Required("name", req.Name, v)
	if req.DefaultPrice == nil {
		v["defaultPrice"] = "required"
	} else {
		validation.NonNegativeDecimal("defaultPrice", *req.DefaultPrice, v)
	}
	if req.PriceType != "" && !req.PriceType.Valid() {
		v["priceType"] = "unknown_value"
	}
	return v
}

func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	db := h.db.WithContext(r.Context())
	if q != "" {
		db = db.Where("name LIKE ?", "%"+q+"%")
	}
	var catalog []models.Service
	if err := db.Order("name").Find(&catalog).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, catalog)
}

func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	priceType := req.PriceType
	if priceType == "" {
		priceType = models.PriceFixed
	}
	svc := models.Service{
		Name:         req.Name,
		Description:  req.Description,
		DefaultPrice: *req.DefaultPrice,
		PriceType:    priceType,
	}
	if err := h.db.WithContext(r.Context()).Create(&svc).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, svc)
}

func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var svc models.Service
	if err := h.db.WithContext(r.Context()).First(&svc, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var req serviceRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	svc.Name = req.Name
	svc.Description = req.Description
	svc.DefaultPrice = *req.DefaultPrice
	if req.PriceType != "" {
		svc.PriceType = req.PriceType
	}
	if err := h.db.WithContext(r.Context()).Save(&svc).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, svc)
}

// Delete refuses when the service is referenced by any offer line.
func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var referenced int64
	h.db.WithContext(r.Context()).Model(&models.OfferItem{}).Where("service_id = ?", id).Count(&referenced)
	if referenced > 0 {
		httpx.JSONError(w, http.StatusConflict, "conflict", "service is used by offers")
		return
	}
	res := h.db.WithContext(r.Context()).Delete(&models.Service{}, id)
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
