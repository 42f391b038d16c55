package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greenbasket/greenbasket-backend/api/controllers"
	ordercontrollers "github.com/greenbasket/greenbasket-backend/api/controllers/orders"
	"github.com/greenbasket/greenbasket-backend/api/middleware"
	"github.com/greenbasket/greenbasket-backend/internal/inventory"
	"github.com/greenbasket/greenbasket-backend/internal/notifications"
	"github.com/greenbasket/greenbasket-backend/internal/orders"
	"github.com/greenbasket/greenbasket-backend/internal/payments"
	"github.com/greenbasket/greenbasket-backend/pkg/config"
	"github.com/greenbasket/greenbasket-backend/pkg/db"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
	"github.com/greenbasket/greenbasket-backend/pkg/metrics"
	"github.com/greenbasket/greenbasket-backend/pkg/redis"
)

// Deps gathers everything the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *redis.Client
	HTTPMetrics   *metrics.HTTPMetrics
	Inventory     inventory.Service
	Orders        orders.Service
	Payments      payments.Service
	Notifications notifications.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.Frontend),
	)

	verifyPolicy := middleware.NewRateLimitPolicy(
		"payment-verify",
		cfg.RateLimit.VerifyWindow,
		cfg.RateLimit.VerifyIPLimit,
	)
	deliveryPolicy := middleware.NewRateLimitPolicy(
		"confirm-delivery",
		cfg.RateLimit.DeliveryWindow,
		cfg.RateLimit.DeliveryIPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(deps.DB, deps.Redis, logg))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Gateway-initiated browser callback; unauthenticated on purpose.
	r.With(middleware.RateLimit(verifyPolicy, deps.Redis, logg)).
		Get("/payment/{gateway}/verify", controllers.VerifyPayment(deps.Payments, cfg.Frontend, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/sku/{sku}", controllers.InventoryBySKU(deps.Inventory, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
				r.Post("/reserve", controllers.ReserveStock(deps.Inventory, logg))
				r.Post("/commit", controllers.CommitStock(deps.Inventory, logg))
				r.Post("/release", controllers.ReleaseStock(deps.Inventory, logg))
				r.Post("/adjust", controllers.AdjustStock(deps.Inventory, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(deps.Orders, deps.Payments, logg))
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Get("/{orderId}/history", ordercontrollers.History(deps.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
			r.With(middleware.RateLimit(deliveryPolicy, deps.Redis, logg)).
				Post("/{orderId}/confirm-delivery", ordercontrollers.ConfirmDelivery(deps.Orders, logg))
			r.With(middleware.RequireRole(string(enums.RoleAdmin), logg)).
				Put("/{orderId}/status", ordercontrollers.SetStatus(deps.Orders, logg))
		})

		r.Route("/payment", func(r chi.Router) {
			r.Post("/{orderId}/{gateway}/initiate", controllers.InitiatePayment(deps.Payments, logg))
			r.Get("/{orderId}/status", controllers.PaymentStatus(deps.Payments, logg))
			r.With(middleware.RequireRole(string(enums.RoleAdmin), logg)).
				Put("/{paymentId}/status", controllers.SetPaymentStatus(deps.Payments, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})
	})

	return r
}
