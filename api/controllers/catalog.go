package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/partfinderz-backend/api/middleware"
	"github.com/angelmondragon/partfinderz-backend/api/responses"
	"github.com/angelmondragon/partfinderz-backend/api/validators"
	"github.com/angelmondragon/partfinderz-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
	"github.com/angelmondragon/partfinderz-backend/pkg/logger"
)

type catalogSearchRequest struct {
	Name                 string           `json:"name" validate:"max=120"`
	PartCode             string           `json:"part_code" validate:"max=60"`
	Category             string           `json:"category" validate:"max=60"`
	Specifications       []string         `json:"specifications" validate:"max=20,dive,max=60"`
	Position             string           `json:"position" validate:"max=40"`
	PriceCeiling         *decimal.Decimal `json:"price_ceiling"`
	Sort                 string           `json:"sort"`
	RequireCompatibility bool             `json:"require_compatibility"`
}

// CatalogSearch runs a filtered product search. Anonymous callers get
// compatibility pass-through because no vehicle can be resolved.
func CatalogSearch(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload catalogSearchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Search(r.Context(), middleware.UserUUIDFromContext(r.Context()), catalog.SearchInput{
			Name:                 validators.SanitizeString(payload.Name, 120),
			PartCode:             validators.SanitizeString(payload.PartCode, 60),
			Category:             payload.Category,
			Specifications:       payload.Specifications,
			Position:             payload.Position,
			PriceCeiling:         payload.PriceCeiling,
			Sort:                 payload.Sort,
			RequireCompatibility: payload.RequireCompatibility,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CatalogProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Product(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
