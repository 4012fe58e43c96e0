package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/profitlens/profitlens-backend/pkg/db"
	"github.com/profitlens/profitlens-backend/pkg/db/models"
	pkgerrors "github.com/profitlens/profitlens-backend/pkg/errors"
	"github.com/profitlens/profitlens-backend/pkg/fileparse"
	"github.com/profitlens/profitlens-backend/pkg/logger"
)

const (
	defaultGSTRate  = 18
	defaultCurrency = "INR"

	// maxReportedRowErrors bounds the error list echoed back to the
	// client; the full count is still reported.
	maxReportedRowErrors = 20

	dateLayout = "2006-01-02"
)

// Reconciler owns price-entry writes: bulk price-list imports and single
// entry create/update, both passing through the same GST derivation.
type Reconciler struct {
	client *db.Client
	repo   Repository
	logg   *logger.Logger
}

func NewReconciler(client *db.Client, repo Repository, logg *logger.Logger) *Reconciler {
	return &Reconciler{client: client, repo: repo, logg: logg}
}

// priceTriple is a derived (before, gst, after) set ready for persistence.
type priceTriple struct {
	Before decimal.Decimal
	GST    decimal.Decimal
	After  decimal.Decimal
}

// derivePrices fills whichever side of the GST equation is missing. A zero
// GST rate alongside a missing pre-GST price falls back to the default rate,
// matching how supplier price lists are typically quoted.
func derivePrices(before, gst, after decimal.Decimal) (priceTriple, error) {
	hundred := decimal.NewFromInt(100)

	switch {
	case after.IsPositive() && !before.IsPositive():
		if gst.IsZero() {
			gst = decimal.NewFromInt(defaultGSTRate)
		}
		factor := decimal.NewFromInt(1).Add(gst.Div(hundred))
		before = after.DivRound(factor, 2)
	case before.IsPositive() && !after.IsPositive():
		factor := decimal.NewFromInt(1).Add(gst.Div(hundred))
		after = before.Mul(factor).Round(2)
	}

	if !after.IsPositive() {
		return priceTriple{}, fmt.Errorf("price after GST must be positive")
	}
	return priceTriple{Before: before.Round(2), GST: gst, After: after.Round(2)}, nil
}

// parseDecimalField reads a spreadsheet money/rate cell. Unparseable values
// coerce to zero and fall through to the positive-price check.
func parseDecimalField(raw string) decimal.Decimal {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	raw = strings.TrimPrefix(raw, "₹")
	if raw == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return value
}

func parseDateField(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > 10 {
		raw = raw[:10]
	}
	return time.ParseInLocation(dateLayout, raw, time.UTC)
}

// entryFromInput validates an EntryInput beyond tag-level checks and derives
// the stored price triple.
func entryFromInput(in EntryInput) (*models.PriceEntry, error) {
	triple, err := derivePrices(in.PriceBeforeGST, in.GSTRate, in.PriceAfterGST)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	from, err := parseDateField(in.EffectiveFrom)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid effective_from, expected YYYY-MM-DD")
	}
	var toPtr *time.Time
	if strings.TrimSpace(in.EffectiveTo) != "" {
		to, err := parseDateField(in.EffectiveTo)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid effective_to, expected YYYY-MM-DD")
		}
		if to.Before(from) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "effective_to precedes effective_from")
		}
		toPtr = &to
	}

	currency := strings.TrimSpace(in.Currency)
	if currency == "" {
		currency = defaultCurrency
	}

	return &models.PriceEntry{
		ProductName:       strings.TrimSpace(in.ProductName),
		Currency:          currency,
		PriceBeforeGST:    triple.Before,
		GSTRate:           triple.GST,
		PriceAfterGST:     triple.After,
		HSNCode:           strings.TrimSpace(in.HSNCode),
		EffectiveFrom:     from,
		EffectiveTo:       toPtr,
		SupplierProductID: strings.TrimSpace(in.SupplierName) + strings.TrimSpace(in.ProductName),
	}, nil
}

// CreateOrUpdate upserts a single price entry keyed by (supplier, product).
func (r *Reconciler) CreateOrUpdate(ctx context.Context, in EntryInput) (*models.PriceEntry, error) {
	entry, err := entryFromInput(in)
	if err != nil {
		return nil, err
	}

	err = r.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := r.repo.WithTx(tx)
		supplier, err := repo.FindOrCreateSupplier(ctx, in.SupplierName)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve supplier")
		}
		entry.SupplierID = supplier.ID
		if err := repo.UpsertEntry(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert price entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Update rewrites an existing entry in place by id.
func (r *Reconciler) Update(ctx context.Context, id int, in EntryInput) (*models.PriceEntry, error) {
	entry, err := entryFromInput(in)
	if err != nil {
		return nil, err
	}

	err = r.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := r.repo.WithTx(tx)
		if _, err := repo.FindEntryByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "price entry not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load price entry")
		}
		supplier, err := repo.FindOrCreateSupplier(ctx, in.SupplierName)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve supplier")
		}
		entry.ID = id
		entry.SupplierID = supplier.ID
		if err := repo.ReplaceEntry(ctx, entry); err != nil {
			if db.IsUniqueViolation(err, "uniq_price_entries_supplier_product") {
				return pkgerrors.New(pkgerrors.CodeConflict, "another entry already covers this supplier and product")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update price entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ImportRows ingests a parsed price-list table. Rows that fail validation are
// skipped and reported; rows that pass are upserted within one transaction so
// a structural failure leaves the table untouched.
func (r *Reconciler) ImportRows(ctx context.Context, rows []fileparse.Row) (ImportSummary, error) {
	summary := ImportSummary{Errors: []string{}}

	type parsedRow struct {
		lineNo       int
		supplierName string
		entry        *models.PriceEntry
	}

	valid := make([]parsedRow, 0, len(rows))
	for i, row := range rows {
		// header occupies line 1, first data row is line 2
		lineNo := i + 2

		in := EntryInput{
			SupplierName:  row.Lookup("Supplier Name", "Supplier", "Vendor"),
			ProductName:   row.Lookup("Product Name", "Product", "Item Name"),
			Currency:      row.Lookup("Currency"),
			HSNCode:       row.Lookup("HSN Code", "HSN", "Hsn Code"),
			EffectiveFrom: row.Lookup("Effective From", "Effective Date", "From Date"),
			EffectiveTo:   row.Lookup("Effective To", "To Date"),
		}

		if msg := validateRequiredFields(in); msg != "" {
			summary.recordError(lineNo, msg)
			continue
		}

		in.PriceBeforeGST = parseDecimalField(row.Lookup("Price Before GST", "Price Before Gst", "Base Price"))
		in.GSTRate = parseDecimalField(row.Lookup("GST Rate", "Gst Rate", "GST %", "GST"))
		in.PriceAfterGST = parseDecimalField(row.Lookup("Price After GST", "Price After Gst", "Price", "Final Price"))

		entry, err := entryFromInput(in)
		if err != nil {
			summary.recordError(lineNo, rowErrorMessage(err))
			continue
		}
		valid = append(valid, parsedRow{lineNo: lineNo, supplierName: in.SupplierName, entry: entry})
	}

	if len(valid) > 0 {
		err := r.client.WithTx(ctx, func(tx *gorm.DB) error {
			repo := r.repo.WithTx(tx)
			suppliers := map[string]int{}
			for _, p := range valid {
				name := strings.TrimSpace(p.supplierName)
				id, ok := suppliers[name]
				if !ok {
					supplier, err := repo.FindOrCreateSupplier(ctx, name)
					if err != nil {
						return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve supplier")
					}
					id = supplier.ID
					suppliers[name] = id
				}
				p.entry.SupplierID = id
				if err := repo.UpsertEntry(ctx, p.entry); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("upsert row %d", p.lineNo))
				}
			}
			return nil
		})
		if err != nil {
			return ImportSummary{}, err
		}
		summary.SuccessCount = len(valid)
	}

	logCtx := r.logg.WithFields(ctx, map[string]any{
		"imported": summary.SuccessCount,
		"rejected": summary.ErrorCount,
	})
	r.logg.Info(logCtx, "price list import finished")
	return summary, nil
}

func validateRequiredFields(in EntryInput) string {
	switch {
	case strings.TrimSpace(in.SupplierName) == "":
		return "supplier name is required"
	case strings.TrimSpace(in.ProductName) == "":
		return "product name is required"
	case strings.TrimSpace(in.HSNCode) == "":
		return "HSN code is required"
	case strings.TrimSpace(in.EffectiveFrom) == "":
		return "effective from date is required"
	}
	return ""
}

func rowErrorMessage(err error) string {
	if appErr := pkgerrors.As(err); appErr != nil {
		return appErr.Message()
	}
	return err.Error()
}

func (s *ImportSummary) recordError(lineNo int, msg string) {
	s.ErrorCount++
	if len(s.Errors) < maxReportedRowErrors {
		s.Errors = append(s.Errors, fmt.Sprintf("Row %d: %s", lineNo, msg))
	}
}
