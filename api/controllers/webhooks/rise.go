package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/angelmondragon/giftcard-checkout-backend/api/responses"
	risewebhook "github.com/angelmondragon/giftcard-checkout-backend/internal/webhooks/rise"
	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/logger"
)

type RiseWebhookService interface {
	HandleDelivery(ctx context.Context, payload []byte) (*risewebhook.Result, error)
}

// RiseWebhook handles gift-card lifecycle events from the external
// service. The payload is a signed JWT, not plain JSON.
func RiseWebhook(svc RiseWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		result, err := svc.HandleDelivery(ctx, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
