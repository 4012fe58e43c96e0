package controllers

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/profitlens/profitlens-backend/api/responses"
	"github.com/profitlens/profitlens-backend/api/validators"
	"github.com/profitlens/profitlens-backend/internal/pricing"
	pkgerrors "github.com/profitlens/profitlens-backend/pkg/errors"
	"github.com/profitlens/profitlens-backend/pkg/logger"
)

func ListPriceEntries(repo pricing.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplier := r.URL.Query().Get("supplier")
		views, err := repo.ListEntries(r.Context(), supplier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list price entries"))
			return
		}
		if views == nil {
			views = []pricing.EntryView{}
		}
		responses.WriteSuccess(w, views)
	}
}

// ResolvePrice answers which entry is effective for a supplier/product on a
// date. Defaults to today when no date is given.
func ResolvePrice(resolver *pricing.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplier := r.URL.Query().Get("supplier")
		product := r.URL.Query().Get("product")
		if supplier == "" || product == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "supplier and product query parameters are required"))
			return
		}

		on := time.Now().UTC()
		if raw := r.URL.Query().Get("date"); raw != "" {
			parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD").WithDetails(map[string]string{"date": raw}))
				return
			}
			on = parsed
		}

		entry, err := resolver.Resolve(r.Context(), supplier, product, on)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pricing.EntryView{
			ID:                entry.ID,
			SupplierID:        entry.SupplierID,
			SupplierName:      supplier,
			SupplierProductID: entry.SupplierProductID,
			ProductName:       entry.ProductName,
			Currency:          entry.Currency,
			PriceBeforeGST:    entry.PriceBeforeGST,
			GSTRate:           entry.GSTRate,
			PriceAfterGST:     entry.PriceAfterGST,
			HSNCode:           entry.HSNCode,
			EffectiveFrom:     entry.EffectiveFrom,
			EffectiveTo:       entry.EffectiveTo,
			CreatedAt:         entry.CreatedAt,
			UpdatedAt:         entry.UpdatedAt,
		})
	}
}

func CreatePriceEntry(reconciler *pricing.Reconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload pricing.EntryInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := reconciler.CreateOrUpdate(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

func UpdatePriceEntry(reconciler *pricing.Reconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := entryID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload pricing.EntryInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := reconciler.Update(r.Context(), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

func DeletePriceEntry(repo pricing.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := entryID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := repo.DeleteEntry(r.Context(), id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "price entry not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete price entry"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true})
	}
}

func DeleteAllPriceEntries(repo pricing.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := repo.DeleteAllEntries(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete price entries"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": deleted})
	}
}

func MissingPrices(detector *pricing.MissingDetector, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := detector.Detect(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

var priceListHeader = []string{
	"Supplier Name", "Product Name", "Currency",
	"Price Before GST", "GST Rate", "Price After GST",
	"HSN Code", "Effective From", "Effective To",
}

// ExportPriceEntries streams every entry as a CSV in the same column layout
// the bulk import accepts, so an export can be edited and re-uploaded.
func ExportPriceEntries(repo pricing.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := repo.ListEntries(r.Context(), r.URL.Query().Get("supplier"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "export price entries"))
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="price-entries.csv"`)

		writer := csv.NewWriter(w)
		_ = writer.Write(priceListHeader)
		for _, v := range views {
			to := ""
			if v.EffectiveTo != nil {
				to = v.EffectiveTo.Format("2006-01-02")
			}
			_ = writer.Write([]string{
				v.SupplierName,
				v.ProductName,
				v.Currency,
				v.PriceBeforeGST.StringFixed(2),
				v.GSTRate.String(),
				v.PriceAfterGST.StringFixed(2),
				v.HSNCode,
				v.EffectiveFrom.Format("2006-01-02"),
				to,
			})
		}
		writer.Flush()
	}
}

// PriceListTemplate serves an empty import sheet with one example row.
func PriceListTemplate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="price-list-template.csv"`)

		writer := csv.NewWriter(w)
		_ = writer.Write(priceListHeader)
		_ = writer.Write([]string{
			"Acme Textiles", "Cotton Tee", "INR",
			"1000", "18", "1180",
			"6109", time.Now().UTC().Format("2006-01-02"), "",
		})
		writer.Flush()
	}
}

func entryID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid price entry id")
	}
	return id, nil
}
