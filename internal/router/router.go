package router

import (
	"context"
	"net/http"

	"github.com/creperia-pos/api/internal/config"
	"github.com/creperia-pos/api/internal/enum"
	"github.com/creperia-pos/api/internal/handler"
	mw "github.com/creperia-pos/api/internal/middleware"
	"github.com/creperia-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps are the services the HTTP API is built on.
type Deps struct {
	Catalog    handler.CatalogSource
	Orders     handler.OrderServicer
	OrderStore handler.OrderStore
	Stock      handler.StockAdjuster
	Hub        *ws.Hub
}

// New creates a Chi router with all application routes wired up. ctx bounds
// the lifetime of websocket subscriptions.
func New(ctx context.Context, cfg *config.Config, deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Displays authenticate with a token query parameter.
	r.Get("/ws/{topic}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(ctx, deps.Hub, cfg.JWTSecret, w, r)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		catalogHandler := handler.NewCatalogHandler(deps.Catalog)
		r.Route("/catalog", func(r chi.Router) {
			catalogHandler.RegisterRoutes(r)
			r.With(mw.RequireRole(enum.UserRoleAdmin)).Post("/refresh", catalogHandler.Refresh)
		})

		r.Route("/pricing", handler.NewQuoteHandler(deps.Catalog).RegisterRoutes)

		orderHandler := handler.NewOrderHandler(deps.Orders, deps.OrderStore, deps.Catalog)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleCashier))
			r.Route("/orders", orderHandler.RegisterRoutes)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))
			r.Route("/modifiers", handler.NewStockHandler(deps.Stock).RegisterRoutes)
		})
	})

	return r
}
