package controllers

import (
	"net/http"

	"github.com/angelmondragon/giftcard-checkout-backend/api/responses"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/giftcard-checkout-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-App-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, redisClient pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-App-Env", cfg.App.Env)

		if redisClient != nil {
			if err := redisClient.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
