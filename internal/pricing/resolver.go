package pricing

import (
	"context"
	"time"

	"github.com/profitlens/profitlens-backend/pkg/db/models"
	pkgerrors "github.com/profitlens/profitlens-backend/pkg/errors"
	"github.com/profitlens/profitlens-backend/pkg/logger"
)

// Resolver answers the question "what did this product cost from this
// supplier on this date".
type Resolver struct {
	repo Repository
	logg *logger.Logger
}

func NewResolver(repo Repository, logg *logger.Logger) *Resolver {
	return &Resolver{repo: repo, logg: logg}
}

// Resolve returns the price entry effective for the given supplier, product
// and date, or a CodeNotFound error when no window covers it. When several
// windows overlap the date, the one starting latest wins and the ambiguity
// is logged for the data operator to clean up.
func (r *Resolver) Resolve(ctx context.Context, supplierName, productName string, on time.Time) (*models.PriceEntry, error) {
	entries, err := r.repo.MatchingEntries(ctx, supplierName, productName, on)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve price")
	}
	if len(entries) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no price entry effective on date").
			WithDetails(map[string]string{
				"supplier": supplierName,
				"product":  productName,
				"date":     on.Format("2006-01-02"),
			})
	}
	if len(entries) > 1 {
		warnCtx := r.logg.WithFields(ctx, map[string]any{
			"supplier": supplierName,
			"product":  productName,
			"date":     on.Format("2006-01-02"),
			"matches":  len(entries),
		})
		r.logg.Warn(warnCtx, "overlapping price windows, using latest effective_from")
	}
	return &entries[0], nil
}
