// Package handlers exposes the JSON API. Each handler owns one resource;
// service-level sentinel errors are translated into the uniform error
// envelope here and nowhere else.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/kontorhq/kontor/internal/auth"
	"github.com/kontorhq/kontor/internal/httpx"
	"github.com/kontorhq/kontor/internal/models"
	"github.com/kontorhq/kontor/internal/services"
)

// pathID parses the {id} segment. A malformed id is indistinguishable from
// a missing resource for the client.
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id64, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id64 == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return 0, false
	}
	return uint(id64), true
}

// writeServiceError maps service sentinels onto the HTTP error taxonomy.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidStatus):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrServiceNotFound),
		errors.Is(err, services.ErrOfferNotFound),
		errors.Is(err, services.ErrInvoiceNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, services.ErrDuplicateInvoice), errors.Is(err, services.ErrConflict):
		httpx.JSONError(w, http.StatusConflict, "conflict", err.Error())
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// currentUser resolves the session user for the "prepared by" line on
// generated documents. Returns the zero user when the record is gone.
func currentUser(r *http.Request, db *gorm.DB) models.User {
	var user models.User
	if uid, ok := auth.UserIDFromContext(r.Context()); ok {
		db.WithContext(r.Context()).First(&user, uid)
	}
	return user
}
