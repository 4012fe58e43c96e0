package marketing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/profitlens/profitlens-backend/pkg/errors"
)

func setupMarketingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS marketing_spend (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  spend_date DATE NOT NULL,
  amount NUMERIC NOT NULL DEFAULT 0,
  channel TEXT,
  notes TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec("DELETE FROM marketing_spend").Error)
	return db
}

func TestServiceCreateAndList(t *testing.T) {
	db := setupMarketingTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, SpendInput{SpendDate: "2024-03-05", Amount: decimal.NewFromInt(500), Channel: "Meta"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, SpendInput{SpendDate: "2024-03-10", Amount: decimal.NewFromInt(300), Channel: "Google"})
	require.NoError(t, err)

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// newest spend first
	assert.Equal(t, "Google", rows[0].Channel)
	assert.True(t, rows[0].Amount.Equal(decimal.NewFromInt(300)))
}

func TestServiceCreate_validation(t *testing.T) {
	db := setupMarketingTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, SpendInput{SpendDate: "March 5", Amount: decimal.NewFromInt(500)})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	_, err = svc.Create(ctx, SpendInput{SpendDate: "2024-03-05", Amount: decimal.Zero})
	require.Error(t, err)
}

func TestServiceDelete(t *testing.T) {
	db := setupMarketingTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	spend, err := svc.Create(ctx, SpendInput{SpendDate: "2024-03-05", Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, spend.ID))

	err = svc.Delete(ctx, spend.ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestServiceDeleteAll(t *testing.T) {
	db := setupMarketingTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, SpendInput{SpendDate: "2024-03-05", Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, SpendInput{SpendDate: "2024-03-06", Amount: decimal.NewFromInt(700)})
	require.NoError(t, err)

	deleted, err := svc.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
