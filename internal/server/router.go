// Package server assembles the HTTP surface: routes, auth gating, and the
// request middleware chain.
package server

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kontorhq/kontor/internal/auth"
	"github.com/kontorhq/kontor/internal/config"
	"github.com/kontorhq/kontor/internal/handlers"
	"github.com/kontorhq/kontor/internal/httpx"
	"github.com/kontorhq/kontor/internal/models"
	"github.com/kontorhq/kontor/internal/pdf"
	"github.com/kontorhq/kontor/internal/services"
)

// New constructs the root handler. Every route except health and login sits
// behind the session gate.
func New(db *gorm.DB, cfg config.Config, renderer *pdf.Renderer, log zerolog.Logger) http.Handler {
	// RequireAuth double-checks that the session's user still exists.
	auth.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		var count int64
		if err := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	gate := func(h http.HandlerFunc) http.Handler { return auth.RequireAuth(h) }

	ah := handlers.NewAuthHandler(db)
	mux.HandleFunc("POST /auth/login", ah.Login)
	mux.HandleFunc("POST /auth/logout", ah.Logout)
	mux.Handle("GET /auth/me", gate(ah.Me))

	ch := handlers.NewCustomerHandler(db)
	mux.Handle("GET /customers", gate(ch.List))
	mux.Handle("POST /customers", gate(ch.Create))
	mux.Handle("PUT /customers/{id}", gate(ch.Update))
	mux.Handle("DELETE /customers/{id}", gate(ch.Delete))

	sh := handlers.NewServiceHandler(db)
	mux.Handle("GET /services", gate(sh.List))
	mux.Handle("POST /services", gate(sh.Create))
	mux.Handle("PUT /services/{id}", gate(sh.Update))
	mux.Handle("DELETE /services/{id}", gate(sh.Delete))

	oh := handlers.NewOfferHandler(db, services.NewOfferService(db), renderer, cfg.DefaultTaxPercent)
	mux.Handle("GET /offers", gate(oh.List))
	mux.Handle("POST /offers", gate(oh.Create))
	mux.Handle("GET /offers/{id}", gate(oh.Get))
	mux.Handle("PUT /offers/{id}", gate(oh.Update))
	mux.Handle("DELETE /offers/{id}", gate(oh.Delete))
	mux.Handle("GET /offers/{id}/pdf", gate(oh.PDF))

	ih := handlers.NewInvoiceHandler(db, services.NewInvoiceService(db), renderer)
	mux.Handle("GET /invoices", gate(ih.List))
	mux.Handle("POST /invoices", gate(ih.Create))
	mux.Handle("GET /invoices/{id}", gate(ih.Get))
	mux.Handle("PATCH /invoices/{id}", gate(ih.Patch))
	mux.Handle("DELETE /invoices/{id}", gate(ih.Delete))
	mux.Handle("GET /invoices/{id}/pdf", gate(ih.PDF))

	return withRequestID(withLogging(log, withRecover(log, auth.Middleware(mux))))
}
