package marketing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/profitlens/profitlens-backend/pkg/db/models"
	pkgerrors "github.com/profitlens/profitlens-backend/pkg/errors"
)

const dateLayout = "2006-01-02"

// SpendInput carries one marketing spend row from the API.
type SpendInput struct {
	SpendDate string          `json:"spend_date" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Channel   string          `json:"channel"`
	Notes     string          `json:"notes"`
}

// Service owns the marketing_spend table. Spend rows are user-entered, not
// imported, so this is plain CRUD.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, in SpendInput) (*models.MarketingSpend, error) {
	spendDate, err := time.ParseInLocation(dateLayout, strings.TrimSpace(in.SpendDate), time.UTC)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid spend_date, expected YYYY-MM-DD")
	}
	if !in.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	spend := &models.MarketingSpend{
		SpendDate: spendDate,
		Amount:    in.Amount,
		Channel:   strings.TrimSpace(in.Channel),
		Notes:     strings.TrimSpace(in.Notes),
	}
	if err := s.db.WithContext(ctx).Create(spend).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create marketing spend")
	}
	return spend, nil
}

func (s *Service) List(ctx context.Context) ([]models.MarketingSpend, error) {
	if !s.db.WithContext(ctx).Migrator().HasTable(&models.MarketingSpend{}) {
		return []models.MarketingSpend{}, nil
	}

	var rows []models.MarketingSpend
	err := s.db.WithContext(ctx).
		Order("spend_date DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list marketing spend")
	}
	return rows, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MarketingSpend{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "delete marketing spend")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "marketing spend not found")
	}
	return nil
}

func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.MarketingSpend{})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "delete marketing spend")
	}
	return res.RowsAffected, nil
}

// IsNotFound reports whether err is the missing-row case.
func IsNotFound(err error) bool {
	appErr := pkgerrors.As(err)
	if appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
		return true
	}
	return errors.Is(err, gorm.ErrRecordNotFound)
}
