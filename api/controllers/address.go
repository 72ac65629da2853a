package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/partfinderz-backend/api/responses"
	"github.com/angelmondragon/partfinderz-backend/internal/address"
	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
	"github.com/angelmondragon/partfinderz-backend/pkg/logger"
)

// AddressLookup resolves a CEP into a partial delivery address.
func AddressLookup(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		addr, err := svc.Lookup(r.Context(), chi.URLParam(r, "postalCode"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, addr)
	}
}
