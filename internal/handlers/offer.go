package handlers

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kontorhq/kontor/internal/httpx"
	"github.com/kontorhq/kontor/internal/i18n"
	"github.com/kontorhq/kontor/internal/pdf"
	"github.com/kontorhq/kontor/internal/services"
)

type OfferHandler struct {
	db         *gorm.DB
	svc        *services.OfferService
	renderer   *pdf.Renderer
	defaultTax decimal.Decimal
}

func NewOfferHandler(db *gorm.DB, svc *services.OfferService, renderer *pdf.Renderer, defaultTax decimal.Decimal) *OfferHandler {
	return &OfferHandler{db: db, svc: svc, renderer: renderer, defaultTax: defaultTax}
}

func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	offers, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, offers)
}

func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.OfferInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	offer, err := h.svc.Create(r.Context(), in, h.defaultTax)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, offer)
}

func (h *OfferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	offer, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, offer)
}

func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in services.OfferInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	offer, err := h.svc.Replace(r.Context(), id, in, h.defaultTax)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, offer)
}

func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// PDF streams the rendered quote as an attachment.
func (h *OfferHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	offer, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := localized(h.renderer, r).RenderOffer(r.Context(), offer, currentUser(r, h.db).DisplayName())
	if err != nil {
		writePDFError(w, err)
		return
	}
	servePDF(w, pdf.OfferFilename(offer.Number), out)
}

// localized copies the renderer with the document language negotiated from
// the request. German is the default.
func localized(r *pdf.Renderer, req *http.Request) *pdf.Renderer {
	c := *r
	c.Lang = i18n.DetectLanguage(req.Header.Get("Accept-Language"))
	return &c
}

func servePDF(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writePDFError(w http.ResponseWriter, err error) {
	if errors.Is(err, pdf.ErrRenderTimeout) {
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", "render timed out")
		return
	}
	httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
}
