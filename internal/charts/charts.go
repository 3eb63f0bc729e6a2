package charts

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/wcharczuk/go-chart/v2"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to chart")

const periodLayout = "2006-01"

var background = chart.Style{
	Padding: chart.Box{
		Top:    40,
		Left:   20,
		Right:  20,
		Bottom: 20,
	},
	FillColor: chart.ColorWhite,
}

// TrendsPNG draws monthly income and expense as two lines.
func TrendsPNG(points []models.TrendPoint) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoData
	}

	income := map[string]float64{}
	expense := map[string]float64{}
	var periods []string
	for _, p := range points {
		if !slices.Contains(periods, p.Period) {
			periods = append(periods, p.Period)
		}
		switch p.Type {
		case models.TransactionTypeIncome:
			income[p.Period] += p.Value
		case models.TransactionTypeExpense:
			expense[p.Period] += p.Value
		}
	}
	slices.Sort(periods)

	xValues := make([]time.Time, len(periods))
	incomeValues := make([]float64, len(periods))
	expenseValues := make([]float64, len(periods))
	top := 0.0
	for i, period := range periods {
		t, err := time.Parse(periodLayout, period)
		if err != nil {
			return nil, fmt.Errorf("parse period %q: %w", period, err)
		}
		xValues[i] = t
		incomeValues[i] = income[period]
		expenseValues[i] = expense[period]
		top = max(top, incomeValues[i], expenseValues[i])
	}
	if top == 0 {
		top = 1
	}

	// Pad the axes so a single month or an all-zero series still has a non-empty range.
	first, last := xValues[0].AddDate(0, -1, 0), xValues[len(xValues)-1].AddDate(0, 1, 0)

	graph := chart.Chart{
		Title:      "Income vs expense",
		Width:      1000,
		Height:     500,
		Background: background,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("Jan 2006"),
			Range:          &chart.ContinuousRange{Min: float64(first.UnixNano()), Max: float64(last.UnixNano())},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f", v.(float64))
			},
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Income",
				XValues: xValues,
				YValues: incomeValues,
				Style: chart.Style{
					StrokeColor: chart.ColorGreen,
					StrokeWidth: 2,
					DotWidth:    4,
					DotColor:    chart.ColorGreen,
				},
			},
			chart.TimeSeries{
				Name:    "Expense",
				XValues: xValues,
				YValues: expenseValues,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					StrokeWidth: 2,
					DotWidth:    4,
					DotColor:    chart.ColorRed,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render trends chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// CategoryPNG draws the expense breakdown as a pie chart.
func CategoryPNG(categories []models.CategoryTotal) ([]byte, error) {
	values := make([]chart.Value, 0, len(categories))
	for _, c := range categories {
		if c.Amount <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %.2f (%.1f%%)", c.Category, c.Amount, c.Percentage),
			Value: c.Amount,
		})
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	pie := chart.PieChart{
		Title:      "Expenses by category",
		Width:      800,
		Height:     800,
		Values:     values,
		Background: background,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render category chart: %w", err)
	}
	return buffer.Bytes(), nil
}
