package handlers

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/kontorhq/kontor/internal/httpx"
	"github.com/kontorhq/kontor/internal/pdf"
	"github.com/kontorhq/kontor/internal/services"
)

type InvoiceHandler struct {
	db       *gorm.DB
	svc      *services.InvoiceService
	renderer *pdf.Renderer
}

func NewInvoiceHandler(db *gorm.DB, svc *services.InvoiceService, renderer *pdf.Renderer) *InvoiceHandler {
	return &InvoiceHandler{db: db, svc: svc, renderer: renderer}
}

// List reconciles overdue invoices first, then returns the collection. The
// flip happens here, explicitly, instead of inside a query.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ReconcileOverdue(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	invoices, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OfferID uint       `json:"offerId"`
		DueDate *time.Time `json:"dueDate"`
		Notes   string     `json:"notes"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.OfferID == 0 || req.DueDate == nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed",
			map[string]string{"offerId": "required", "dueDate": "required"})
		return
	}
	inv, err := h.svc.Derive(r.Context(), req.OfferID, *req.DueDate, req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Patch applies a status transition or a notes change.
func (h *InvoiceHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var upd services.StatusUpdate
	if err := httpx.Decode(r, &upd); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	inv, err := h.svc.UpdateStatus(r.Context(), id, upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PDF streams the rendered invoice as an attachment.
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := localized(h.renderer, r).RenderInvoice(r.Context(), inv, currentUser(r, h.db).DisplayName())
	if err != nil {
		writePDFError(w, err)
		return
	}
	servePDF(w, pdf.InvoiceFilename(inv.Number), out)
}
