package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	kittyauth "github.com/kittyapp/kitty/internal/auth"
	"github.com/kittyapp/kitty/internal/http/account"
	authhttp "github.com/kittyapp/kitty/internal/http/auth"
	"github.com/kittyapp/kitty/internal/http/category"
	"github.com/kittyapp/kitty/internal/http/event"
	"github.com/kittyapp/kitty/internal/http/expense"
	"github.com/kittyapp/kitty/internal/http/importcsv"
	"github.com/kittyapp/kitty/internal/http/middleware"
)

func New(
	jwt *kittyauth.JWTManager,
	authV1 *authhttp.Handler,
	accountV1 *account.Handler,
	eventsV1 *event.Handler,
	expensesV1 *expense.Handler,
	categoriesV1 *category.Handler,
	importV1 *importcsv.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json"))
			authV1.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(jwt))

			r.Route("/events", func(r chi.Router) {
				eventsV1.Routes(r)

				r.Route("/{slug}/expenses", func(r chi.Router) {
					r.Use(chimw.AllowContentType("application/json"))
					expensesV1.Routes(r)
				})

				r.Route("/{slug}/import", importV1.Routes)
			})

			r.Route("/account", func(r chi.Router) {
				r.Use(chimw.AllowContentType("application/json"))
				accountV1.Routes(r)
			})

			r.Route("/categories", func(r chi.Router) {
				categoriesV1.Routes(r)
			})
		})
	})

	return router
}
