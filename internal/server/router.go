package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/ryancalacsan/quotecraft-sub000/auth"
	"github.com/ryancalacsan/quotecraft-sub000/httpx"
	"github.com/ryancalacsan/quotecraft-sub000/internal/config"
	"github.com/ryancalacsan/quotecraft-sub000/internal/handlers"
	"github.com/ryancalacsan/quotecraft-sub000/internal/models"
	"github.com/ryancalacsan/quotecraft-sub000/internal/payments"
	"github.com/ryancalacsan/quotecraft-sub000/internal/quotes"
	"github.com/ryancalacsan/quotecraft-sub000/internal/ratelimit"
	"github.com/ryancalacsan/quotecraft-sub000/internal/templates"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, cfg config.Config, log *slog.Logger, limiter ratelimit.Limiter) http.Handler {
	mux := http.NewServeMux()

	// RequireAuth verifies the session's user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", promhttp.Handler())

	quoteSvc := quotes.NewService(db, log, cfg.QuotePrefix)
	templateSvc := templates.NewService(db, log, quoteSvc)

	var provider payments.CheckoutProvider
	if cfg.StripeSecretKey != "" {
		provider = payments.NewStripeProvider(cfg.StripeSecretKey)
	}

	// Auth endpoints (rate limited: login and demo are abuse targets).
	ah := handlers.NewAuthHandler(db, log)
	mux.Handle("/auth/register", rateLimited(limiter, post(ah.Register)))
	mux.Handle("/auth/login", rateLimited(limiter, post(ah.Login)))
	mux.Handle("/auth/demo", rateLimited(limiter, post(ah.Demo)))
	mux.Handle("/auth/logout", post(ah.Logout))

	// Quote endpoints (owner side).
	qh := handlers.NewQuoteHandler(db, quoteSvc, log)
	mux.Handle("/quotes", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			qh.List(w, r)
		case http.MethodPost:
			qh.Create(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	})))
	mux.Handle("/quotes/get", authed(get(qh.Get)))
	mux.Handle("/quotes/update", authed(post(qh.Update)))
	mux.Handle("/quotes/delete", authed(post(qh.Delete)))
	mux.Handle("/quotes/send", authed(post(qh.Send)))
	mux.Handle("/quotes/pdf", authed(get(qh.PDF)))
	mux.Handle("/quotes/items", authed(post(qh.AddItem)))
	mux.Handle("/quotes/items/update", authed(post(qh.UpdateItem)))
	mux.Handle("/quotes/items/delete", authed(post(qh.DeleteItem)))

	// Template endpoints.
	th := handlers.NewTemplateHandler(templateSvc, log)
	mux.Handle("/templates", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			th.List(w, r)
		case http.MethodPost:
			th.Create(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	})))
	mux.Handle("/templates/update", authed(post(th.Update)))
	mux.Handle("/templates/delete", authed(post(th.Delete)))
	mux.Handle("/templates/items", authed(post(th.ReplaceItems)))
	mux.Handle("/templates/use", authed(post(th.Use)))

	// Public recipient endpoints, token gated and rate limited.
	ph := handlers.NewPublicHandler(quoteSvc, provider, cfg.PublicBaseURL, log)
	mux.Handle("/public/quote", rateLimited(limiter, get(ph.Get)))
	mux.Handle("/public/quote/accept", rateLimited(limiter, post(ph.Accept)))
	mux.Handle("/public/quote/decline", rateLimited(limiter, post(ph.Decline)))
	mux.Handle("/public/quote/checkout", rateLimited(limiter, post(ph.Checkout)))

	// Payment processor webhook; signature-verified, never rate limited.
	wh := payments.NewWebhookHandler(cfg.StripeWebhookSecret, quoteSvc, log)
	mux.Handle("/webhooks/stripe", post(wh.ServeHTTP))

	return withRecover(withLogging(log, withMetrics(auth.Middleware(mux))))
}

func authed(next http.Handler) http.Handler {
	return auth.RequireAuth(next)
}

func rateLimited(l ratelimit.Limiter, next http.Handler) http.Handler {
	return ratelimit.Middleware(l, next)
}

func get(h http.HandlerFunc) http.Handler  { return methodOnly(http.MethodGet, h) }
func post(h http.HandlerFunc) http.Handler { return methodOnly(http.MethodPost, h) }

func methodOnly(method string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		h(w, r)
	})
}

func withLogging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
