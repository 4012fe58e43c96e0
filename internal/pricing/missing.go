package pricing

import (
	"context"

	pkgerrors "github.com/profitlens/profitlens-backend/pkg/errors"
)

// MissingDetector surfaces (supplier, product) pairs observed in order data
// that no price entry covers, so operators know what to price next.
type MissingDetector struct {
	repo Repository
}

func NewMissingDetector(repo Repository) *MissingDetector {
	return &MissingDetector{repo: repo}
}

// Detect lists uncovered pairs ordered by order volume. The result is capped;
// pairs beyond the cap reappear on the next call once earlier ones are priced.
func (d *MissingDetector) Detect(ctx context.Context) ([]MissingPriceRecord, error) {
	records, err := d.repo.FindMissing(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "detect missing prices")
	}
	if records == nil {
		records = []MissingPriceRecord{}
	}
	return records, nil
}
