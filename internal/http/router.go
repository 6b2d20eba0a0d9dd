package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/moneyflow/internal/http/category"
	"github.com/MrJamesThe3rd/moneyflow/internal/http/loan"
	authmw "github.com/MrJamesThe3rd/moneyflow/internal/http/middleware"
	"github.com/MrJamesThe3rd/moneyflow/internal/http/render"
	"github.com/MrJamesThe3rd/moneyflow/internal/http/transaction"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	AppName        string
	AllowedOrigins []string
	Verifier       authmw.TokenVerifier
	DB             Pinger
	// Idempotency, when set, wraps the POST routes of loans and transactions.
	Idempotency func(http.Handler) http.Handler
}

func New(
	opts Options,
	loansV1 *loan.Handler,
	categoriesV1 *category.Handler,
	transactionsV1 *transaction.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", authmw.IdempotencyHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/", index(opts.AppName))
		r.Get("/health", health(opts.DB))

		r.Group(func(r chi.Router) {
			r.Use(authmw.Authenticate(opts.Verifier))
			r.Use(middleware.AllowContentType("application/json"))

			r.Route("/loans", func(r chi.Router) {
				if opts.Idempotency != nil {
					r.Use(opts.Idempotency)
				}

				loansV1.Routes(r)
			})

			r.Route("/categories", categoriesV1.Routes)

			r.Route("/transactions", func(r chi.Router) {
				if opts.Idempotency != nil {
					r.Use(opts.Idempotency)
				}

				transactionsV1.Routes(r)
			})
		})
	})

	return router
}

type indexResponse struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func index(appName string) http.HandlerFunc {
	resp := indexResponse{
		Name:    appName,
		Version: "v1",
		Endpoints: map[string]string{
			"health":       "/api/v1/health",
			"loans":        "/api/v1/loans",
			"categories":   "/api/v1/categories",
			"transactions": "/api/v1/transactions",
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, http.StatusOK, resp)
	}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			render.JSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Timestamp: time.Now().UTC()})
			return
		}

		render.JSON(w, http.StatusOK, healthResponse{Status: "ok", Timestamp: time.Now().UTC()})
	}
}
