/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind a proxy (rate limit key)
  3. Logger:     zerolog request logging; the request logger is put in the
                 context so handlers and engines log with the request id
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the billing front end
  6. Rate limit: Per-IP request budget on /api (httprate)

ROUTE GROUPS:
  /healthz              Liveness and database check
  /api/pricing/*        Stateless price cascade
  /api/catalog, /api/stock, /api/warehouses   Master data upload
  /api/drafts/*         Draft documents and line operations
  /api/receipts/*       Receipt splitting and batch submission
  /api/scenarios/*      Demo data loaders (non-production only)

SECURITY NOTE:
  No authentication middleware. Deploy behind the gateway that owns
  sessions; the warehouse list uploaded per user is the only access rule
  enforced here.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
)

// RouterOptions configures cross-cutting middleware.
type RouterOptions struct {
	CORSOrigins        []string
	RateLimitPerMinute int  // 0 disables rate limiting
	DemoScenarios      bool // mounts /api/scenarios, which resets the database
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !containsWildcard(origins),
	}))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(opts.RateLimitPerMinute, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusTooManyRequests, "Rate limit exceeded", nil)
				}),
			))
		}

		r.Post("/pricing/cascade", h.PriceCascade)

		// Master data
		r.Put("/catalog", h.ReplaceCatalog)
		r.Get("/catalog/{code}", h.GetCatalogItem)
		r.Get("/stock", h.GetStock)
		r.Put("/stock", h.ReplaceStock)
		r.Put("/warehouses", h.ReplaceWarehouses)

		// Draft routes
		r.Route("/drafts", func(r chi.Router) {
			r.Post("/", h.CreateDraft)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetDraft)
				r.Delete("/", h.DeleteDraft)
				r.Put("/header", h.UpdateHeader)
				r.Post("/refresh", h.RefreshDraft)
				r.Post("/validate", h.ValidateDraft)
				r.Post("/submit", h.SubmitDraft)

				r.Post("/lines", h.AddLine)
				r.Route("/lines/{index}", func(r chi.Router) {
					r.Delete("/", h.RemoveLine)
					r.Post("/item", h.SelectItem)
					r.Post("/warehouse", h.SelectWarehouse)
					r.Post("/swap-unit", h.SwapUnit)
					r.Post("/field", h.EditField)
					r.Post("/history", h.ApplyHistory)
				})
			})
		})

		// Receipt routes
		r.Route("/receipts", func(r chi.Router) {
			r.Post("/split", h.SplitReceipt)
			r.Post("/plan", h.PlanReceipts)
			r.Post("/batches", h.CreateBatch)
			r.Get("/batches/{id}", h.GetBatch)
			r.Post("/batches/{id}/submit", h.SubmitBatch)
			r.Post("/batches/{id}/splits/{docno}/status", h.MarkReceiptStatus)
		})

		// Scenario routes
		if opts.DemoScenarios {
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
			})
		}
	})

	return r
}

// RequestLogger logs one line per request and attaches a request-scoped
// zerolog logger to the context.
func RequestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := base.With().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(reqLog.WithContext(r.Context())))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			ev := reqLog.Info()
			if status >= 500 {
				ev = reqLog.Error()
			}
			ev.Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Msg("request")
		})
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
