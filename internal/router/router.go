package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mejapos/api/internal/config"
	"github.com/mejapos/api/internal/database"
	"github.com/mejapos/api/internal/enum"
	"github.com/mejapos/api/internal/handler"
	mw "github.com/mejapos/api/internal/middleware"
	"github.com/mejapos/api/internal/payment"
	"github.com/mejapos/api/internal/service"
	"github.com/mejapos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up. Guests order
// and watch their table without accounts; staff endpoints sit behind JWT auth
// with per-role gates.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // dev frontend
			"https://order.mejapos.id",
			"https://staff.mejapos.id",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Callback-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Order service shared by order and payment handlers.
	newStore := func(db database.DBTX) service.Store {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, newStore, ws.NewPublisher(hub))

	orderHandler := handler.NewOrderHandler(orderService, queries)
	paymentHandler := handler.NewPaymentHandler(orderService, payment.NewVerifier(cfg.WebhookSecret))
	menuHandler := handler.NewMenuHandler(queries)

	// Guest routes: the table QR code is the only credential.
	menuHandler.RegisterPublicRoutes(r)
	r.Post("/orders", orderHandler.Create)
	r.Get("/orders/{id}", orderHandler.Get)
	r.Post("/orders/{id}/request-payment", orderHandler.RequestPayment)

	// Payment gateway callbacks (authenticated by signature / token).
	r.Post("/payments/callback", paymentHandler.SnapCallback)
	r.Post("/payments/invoice-callback", paymentHandler.InvoiceCallback)

	// WebSocket routes. The staff socket checks its JWT internally via query
	// param; the table socket is open to the table's guests.
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeStaffWS(hub, cfg.JWTSecret, w, r)
	})
	r.Get("/ws/tables/{tid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeTableWS(hub, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// All staff see the order list.
		r.Get("/orders", orderHandler.List)

		// Front of house: waiters and cashiers run the floor.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(
				string(enum.UserRoleAdmin),
				string(enum.UserRoleWaiter),
				string(enum.UserRoleCashier),
			))
			r.Post("/orders/{id}/confirm", orderHandler.Confirm)
			r.Post("/orders/{id}/serve", orderHandler.Serve)
			r.Delete("/orders/{id}/items/{itemID}", orderHandler.CancelItem)
			r.Delete("/orders/{id}", orderHandler.Cancel)
		})

		// Kitchen display.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(
				string(enum.UserRoleAdmin),
				string(enum.UserRoleKitchen),
			))
			r.Post("/orders/{id}/prepare", orderHandler.Prepare)
			r.Post("/orders/{id}/ready", orderHandler.Ready)
		})

		// Cashier desk: bill confirmation and manual settlement.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(
				string(enum.UserRoleAdmin),
				string(enum.UserRoleCashier),
			))
			r.Post("/orders/{id}/bill", orderHandler.ConfirmBill)
			r.Post("/orders/{id}/pay", paymentHandler.Pay)

			customerHandler := handler.NewCustomerHandler(queries)
			r.Route("/customers", customerHandler.RegisterRoutes)
		})

		// Admin-only management.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(string(enum.UserRoleAdmin)))

			userHandler := handler.NewUserHandler(queries)
			r.Route("/users", userHandler.RegisterRoutes)

			tableHandler := handler.NewTableHandler(queries)
			r.Route("/tables", tableHandler.RegisterRoutes)

			menuHandler.RegisterAdminRoutes(r)

			reportsHandler := handler.NewReportsHandler(queries)
			r.Route("/reports", reportsHandler.RegisterRoutes)
		})
	})

	return r
}
