package server

import (
	"net/http"

	"inwista-wallet-go/internal/auth"
	"inwista-wallet-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires every wallet route. Routes that read or move an account's
// money require a bearer token for that account.
func NewRouter(h *Handler, tokens *auth.TokenIssuer, cfg models.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)
		r.Post("/auth/verify-2fa", h.verifyTwoFactor)
		r.Get("/auth/user-by-cpf/{cpf}", h.userByNationalId)
		r.Get("/stablecoin/rate", h.rate)
		r.Get("/stablecoin/quote", h.quote)
		r.Get("/investments/products", h.listProducts)

		r.Group(func(r chi.Router) {
			r.Use(bearerAuth(tokens))

			r.Get("/user/{userId}", h.getUser)

			r.Get("/pix/keys/{userId}", h.listPaymentKeys)
			r.Get("/pix/transactions/{userId}", h.listTransfers)
			r.Post("/pix/send", h.sendPix)

			r.Get("/stablecoin/transactions/{userId}", h.listConversions)
			r.Post("/stablecoin/convert", h.convert)

			r.Get("/investments/portfolio/{userId}", h.portfolio)
			r.Post("/investments/invest", h.invest)
		})
	})

	return r
}
