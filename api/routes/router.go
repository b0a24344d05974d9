package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/giftcard-checkout-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/giftcard-checkout-backend/api/controllers/webhooks"
	"github.com/angelmondragon/giftcard-checkout-backend/api/middleware"
	cartsvc "github.com/angelmondragon/giftcard-checkout-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/giftcard-checkout-backend/internal/checkout"
	"github.com/angelmondragon/giftcard-checkout-backend/internal/giftcards"
	risewebhook "github.com/angelmondragon/giftcard-checkout-backend/internal/webhooks/rise"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/config"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/giftcard-checkout-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *pkgredis.Client,
	registry prometheus.Gatherer,
	cartService cartsvc.Service,
	giftCardService giftcards.Service,
	checkoutService checkoutsvc.Service,
	webhookService *risewebhook.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Idempotency(redisClient, logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/rise", webhookcontrollers.RiseWebhook(webhookService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Post("/", controllers.CartCreate(cartService, logg))
			r.Get("/{cartId}", controllers.CartFetch(cartService, logg))
		})
		r.Post("/gift-cards/apply", controllers.GiftCardApply(giftCardService, logg))
		r.Post("/checkout/complete", controllers.CheckoutComplete(checkoutService, logg))
	})

	return r
}
