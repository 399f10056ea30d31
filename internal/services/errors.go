package services

import "errors"

// Sentinel errors the handlers translate into HTTP status codes.
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrServiceNotFound  = errors.New("service not found")
	ErrOfferNotFound    = errors.New("offer not found")
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrDuplicateInvoice = errors.New("offer already invoiced")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflicting concurrent write")
)
