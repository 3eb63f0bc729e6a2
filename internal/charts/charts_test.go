package charts

import (
	"bytes"
	"testing"

	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestTrendsPNG(t *testing.T) {
	png, err := TrendsPNG([]models.TrendPoint{
		{Period: "2024-01", Type: models.TransactionTypeIncome, Value: 3000},
		{Period: "2024-01", Type: models.TransactionTypeExpense, Value: 300},
		{Period: "2023-12", Type: models.TransactionTypeExpense, Value: 75},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestTrendsPNGSingleMonth(t *testing.T) {
	png, err := TrendsPNG([]models.TrendPoint{{Period: "2024-01", Type: models.TransactionTypeExpense, Value: 10}})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestTrendsPNGBadPeriod(t *testing.T) {
	_, err := TrendsPNG([]models.TrendPoint{{Period: "January", Type: models.TransactionTypeExpense, Value: 10}})
	assert.Error(t, err)
}

func TestCategoryPNG(t *testing.T) {
	png, err := CategoryPNG([]models.CategoryTotal{
		{Category: "Food", Amount: 250, Percentage: 71.43, Count: 2},
		{Category: "Transport", Amount: 100, Percentage: 28.57, Count: 1},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestNoData(t *testing.T) {
	_, err := TrendsPNG(nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = CategoryPNG([]models.CategoryTotal{})
	assert.ErrorIs(t, err, ErrNoData)
}
