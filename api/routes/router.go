package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authcontrollers "github.com/yonaslemma/gursha-backend/api/controllers/auth"
	cartcontrollers "github.com/yonaslemma/gursha-backend/api/controllers/cart"
	categorycontrollers "github.com/yonaslemma/gursha-backend/api/controllers/categories"
	checkoutcontrollers "github.com/yonaslemma/gursha-backend/api/controllers/checkout"
	healthcontrollers "github.com/yonaslemma/gursha-backend/api/controllers/health"
	ordercontrollers "github.com/yonaslemma/gursha-backend/api/controllers/orders"
	productcontrollers "github.com/yonaslemma/gursha-backend/api/controllers/products"
	storecontrollers "github.com/yonaslemma/gursha-backend/api/controllers/stores"
	webhookcontrollers "github.com/yonaslemma/gursha-backend/api/controllers/webhooks"
	"github.com/yonaslemma/gursha-backend/api/middleware"
	authsvc "github.com/yonaslemma/gursha-backend/internal/auth"
	cartsvc "github.com/yonaslemma/gursha-backend/internal/cart"
	categorysvc "github.com/yonaslemma/gursha-backend/internal/categories"
	checkoutsvc "github.com/yonaslemma/gursha-backend/internal/checkout"
	ordersvc "github.com/yonaslemma/gursha-backend/internal/orders"
	productsvc "github.com/yonaslemma/gursha-backend/internal/products"
	storesvc "github.com/yonaslemma/gursha-backend/internal/stores"
	chapawebhook "github.com/yonaslemma/gursha-backend/internal/webhooks/chapa"
	stripewebhook "github.com/yonaslemma/gursha-backend/internal/webhooks/stripe"
	"github.com/yonaslemma/gursha-backend/pkg/auth/session"
	"github.com/yonaslemma/gursha-backend/pkg/config"
	"github.com/yonaslemma/gursha-backend/pkg/db"
	"github.com/yonaslemma/gursha-backend/pkg/enums"
	"github.com/yonaslemma/gursha-backend/pkg/logger"
	"github.com/yonaslemma/gursha-backend/pkg/metrics"
	pkgredis "github.com/yonaslemma/gursha-backend/pkg/redis"
)

// Params bundles everything the router wires together.
type Params struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *pkgredis.Client
	Sessions       session.AccessSessionChecker
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler

	Auth       authsvc.Service
	Stores     storesvc.Service
	Categories categorysvc.Service
	Products   productsvc.Service
	Cart       cartsvc.Service
	Checkout   checkoutsvc.Service
	Orders     ordersvc.Service

	StripeWebhooks      *stripewebhook.Service
	StripeSigningSecret string
	ChapaWebhooks       *chapawebhook.Service
}

// NewRouter assembles the full HTTP surface.
func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(p.HTTPMetrics),
	)

	r.Get("/healthz", healthcontrollers.Live())
	r.Get("/readyz", healthcontrollers.Ready(p.DB, p.Redis, logg))
	if p.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", p.MetricsHandler)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.Stripe(p.StripeWebhooks, p.StripeSigningSecret, logg))
		r.Post("/chapa", webhookcontrollers.Chapa(p.ChapaWebhooks, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.Idempotency(p.Redis, logg)).Post("/register", authcontrollers.Register(p.Auth, logg))
		r.Post("/login", authcontrollers.Login(p.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
			r.Post("/logout", authcontrollers.Logout(p.Auth, logg))
			r.Get("/me", authcontrollers.Me(p.Auth, logg))
		})
	})

	// public catalog browse
	r.Route("/api/v1/stores", func(r chi.Router) {
		r.Get("/", storecontrollers.List(p.Stores, logg))
		r.Get("/slug/{slug}", storecontrollers.GetBySlug(p.Stores, logg))
		r.Get("/{storeID}", storecontrollers.Get(p.Stores, logg))
	})
	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", categorycontrollers.List(p.Categories, logg))
		r.Get("/{categoryID}", categorycontrollers.Get(p.Categories, logg))
	})
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", productcontrollers.List(p.Products, logg))
		r.Get("/{productID}", productcontrollers.Get(p.Products, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.Fetch(p.Cart, logg))
			r.Put("/", cartcontrollers.Replace(p.Cart, logg))
			r.Post("/items", cartcontrollers.AddItem(p.Cart, logg))
			r.Patch("/{cartID}/items/{itemID}", cartcontrollers.UpdateItem(p.Cart, logg))
			r.Delete("/{cartID}/items/{itemID}", cartcontrollers.RemoveItem(p.Cart, logg))
			r.Put("/{cartID}/tip", cartcontrollers.SetTip(p.Cart, logg))
			r.Put("/{cartID}/fees", cartcontrollers.ApplyFees(p.Cart, logg))
		})

		r.Post("/api/v1/checkout", checkoutcontrollers.Create(p.Checkout, logg))

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.ListOwn(p.Orders, logg))
			r.Get("/{orderID}", ordercontrollers.GetOwn(p.Orders, logg))
			r.Post("/{orderID}/cancel", ordercontrollers.Cancel(p.Orders, logg))
		})
	})

	// staff surface: shoppers work orders, admins also manage the catalog
	r.Route("/api/staff/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.MemberRoleAdmin.String(), enums.MemberRoleShopper.String()))
			r.Get("/", ordercontrollers.List(p.Orders, logg))
			r.Get("/{orderID}", ordercontrollers.Get(p.Orders, logg))
			r.Patch("/{orderID}/status", ordercontrollers.UpdateStatus(p.Orders, logg))
			r.Patch("/{orderID}/delivery-time", ordercontrollers.SetDeliveryTime(p.Orders, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.MemberRoleAdmin.String()))
			r.Post("/orders/{orderID}/assign", ordercontrollers.AssignShopper(p.Orders, logg))
			r.Patch("/orders/{orderID}/payment-status", ordercontrollers.UpdatePaymentStatus(p.Orders, logg))
			r.Post("/stores", storecontrollers.Create(p.Stores, logg))
			r.Post("/categories", categorycontrollers.Create(p.Categories, logg))
			r.Post("/products", productcontrollers.Create(p.Products, logg))
			r.Patch("/products/{productID}", productcontrollers.Update(p.Products, logg))
		})
	})

	return r
}
