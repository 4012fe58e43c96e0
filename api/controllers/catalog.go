package controllers

import (
	"net/http"
	"strings"

	"github.com/profitlens/profitlens-backend/api/responses"
	"github.com/profitlens/profitlens-backend/internal/pricing"
	"github.com/profitlens/profitlens-backend/internal/reports"
	pkgerrors "github.com/profitlens/profitlens-backend/pkg/errors"
	"github.com/profitlens/profitlens-backend/pkg/logger"
)

func ListSuppliers(repo pricing.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		suppliers, err := repo.ListSuppliers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list suppliers"))
			return
		}
		responses.WriteSuccess(w, suppliers)
	}
}

// ListPickupWarehouses lists the store filter values seen in order data; the
// dashboard uses them to populate its store selector.
func ListPickupWarehouses(repo reports.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := repo.StoreNames(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pickup warehouses"))
			return
		}
		if names == nil {
			names = []string{}
		}
		responses.WriteSuccess(w, names)
	}
}

func ProductsBySupplier(repo reports.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplier := strings.TrimSpace(r.URL.Query().Get("supplier"))
		if supplier == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "supplier query parameter is required"))
			return
		}

		products, err := repo.ProductsByStore(r.Context(), supplier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products by supplier"))
			return
		}
		if products == nil {
			products = []string{}
		}
		responses.WriteSuccess(w, products)
	}
}
