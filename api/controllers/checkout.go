package controllers

import (
	"net/http"

	"github.com/angelmondragon/partfinderz-backend/api/responses"
	"github.com/angelmondragon/partfinderz-backend/api/validators"
	cartsvc "github.com/angelmondragon/partfinderz-backend/internal/cart"
	"github.com/angelmondragon/partfinderz-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
	"github.com/angelmondragon/partfinderz-backend/pkg/logger"
)

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
	PostalCode    string `json:"postal_code" validate:"required,max=9"`
	Number        string `json:"number" validate:"required,max=20"`
	Complement    string `json:"complement" validate:"max=80"`
}

// Checkout places the cart as a pending order. Replays are absorbed by the
// idempotency middleware mounted on this route.
func Checkout(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := userFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), userID, cartsvc.CheckoutInput{
			PaymentMethod: payload.PaymentMethod,
			PostalCode:    payload.PostalCode,
			Number:        validators.SanitizeString(payload.Number, 20),
			Complement:    validators.SanitizeString(payload.Complement, 80),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, orders.NewOrderDetail(*order))
	}
}
