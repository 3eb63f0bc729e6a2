package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/database"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"golang.org/x/sync/errgroup"
)

// AnalyticsServiceProvider defines the interface for analytics services.
type AnalyticsServiceProvider interface {
	Monthly(ctx context.Context, p models.Principal, year int) ([]models.MonthlyTotal, error)
	CategoryBreakdown(ctx context.Context, p models.Principal, startDate, endDate string) ([]models.CategoryTotal, error)
	Trends(ctx context.Context, p models.Principal) ([]models.TrendPoint, error)
	Summary(ctx context.Context, p models.Principal, year int, startDate, endDate string) (models.AnalyticsSummary, error)
}

// AnalyticsService aggregates transactions. Admins see every row, other roles only their own.
type AnalyticsService struct {
	db  *sql.DB
	now func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(db *sql.DB) *AnalyticsService {
	return &AnalyticsService{db: db, now: time.Now}
}

// WithClock replaces the time source used for the default year and the trends window.
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

// Monthly sums income and expense per month of year. A zero year means the current one.
func (s *AnalyticsService) Monthly(ctx context.Context, p models.Principal, year int) ([]models.MonthlyTotal, error) {
	if year == 0 {
		year = s.now().Year()
	}
	if year < 1 || year > 9999 {
		return nil, invalidField("year", "must be a valid year")
	}

	b := &database.Builder{}
	if err := scopeToOwner(b, p); err != nil {
		return nil, err
	}
	y := fmt.Sprintf("%04d", year)
	b.Where("date >= ?", y+"-01-01").Where("date <= ?", y+"-12-31")

	rows, err := s.db.QueryContext(ctx, `SELECT substr(date, 1, 7) AS month,
		COALESCE(SUM(CASE WHEN type = 'income' THEN amount END), 0),
		COALESCE(SUM(CASE WHEN type = 'expense' THEN amount END), 0)
		FROM transactions`+b.Clause()+` GROUP BY month ORDER BY month`, b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("monthly analytics: %w", err)
	}
	defer rows.Close()

	months := []models.MonthlyTotal{}
	for rows.Next() {
		var m models.MonthlyTotal
		if err := rows.Scan(&m.Month, &m.Income, &m.Expense); err != nil {
			return nil, err
		}
		m.Net = m.Income - m.Expense
		months = append(months, m)
	}
	return months, rows.Err()
}

// CategoryBreakdown sums expenses per category within the optional inclusive date range,
// largest first, with each category's share of the total.
func (s *AnalyticsService) CategoryBreakdown(ctx context.Context, p models.Principal, startDate, endDate string) ([]models.CategoryTotal, error) {
	start, err := optionalDate("startDate", startDate)
	if err != nil {
		return nil, err
	}
	end, err := optionalDate("endDate", endDate)
	if err != nil {
		return nil, err
	}

	b := &database.Builder{}
	if err := scopeToOwner(b, p); err != nil {
		return nil, err
	}
	b.Where("type = ?", models.TransactionTypeExpense).
		WhereIf(start != "", "date >= ?", start).
		WhereIf(end != "", "date <= ?", end)

	rows, err := s.db.QueryContext(ctx, `SELECT category, SUM(amount) AS amount, COUNT(*)
		FROM transactions`+b.Clause()+` GROUP BY category ORDER BY amount DESC, category`, b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	defer rows.Close()

	categories := []models.CategoryTotal{}
	var total float64
	for rows.Next() {
		var c models.CategoryTotal
		if err := rows.Scan(&c.Category, &c.Amount, &c.Count); err != nil {
			return nil, err
		}
		total += c.Amount
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range categories {
		categories[i].Percentage = percentage(categories[i].Amount, total)
	}
	return categories, nil
}

// percentage is part/total*100 rounded to two decimals, or 0 when total is 0.
func percentage(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(part/total*10000) / 100
}

// Trends sums each transaction type per month over the trailing twelve months.
func (s *AnalyticsService) Trends(ctx context.Context, p models.Principal) ([]models.TrendPoint, error) {
	b := &database.Builder{}
	if err := scopeToOwner(b, p); err != nil {
		return nil, err
	}
	b.Where("date >= ?", s.now().AddDate(-1, 0, 0).Format(models.DateLayout))

	rows, err := s.db.QueryContext(ctx, `SELECT substr(date, 1, 7) AS period, type, SUM(amount)
		FROM transactions`+b.Clause()+` GROUP BY period, type ORDER BY period, type`, b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("trends: %w", err)
	}
	defer rows.Close()

	trends := []models.TrendPoint{}
	for rows.Next() {
		var t models.TrendPoint
		if err := rows.Scan(&t.Period, &t.Type, &t.Value); err != nil {
			return nil, err
		}
		trends = append(trends, t)
	}
	return trends, rows.Err()
}

// Summary runs the three dashboard queries concurrently.
func (s *AnalyticsService) Summary(ctx context.Context, p models.Principal, year int, startDate, endDate string) (models.AnalyticsSummary, error) {
	var summary models.AnalyticsSummary
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		summary.Months, err = s.Monthly(ctx, p, year)
		return err
	})
	g.Go(func() (err error) {
		summary.Categories, err = s.CategoryBreakdown(ctx, p, startDate, endDate)
		return err
	})
	g.Go(func() (err error) {
		summary.Trends, err = s.Trends(ctx, p)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.AnalyticsSummary{}, err
	}
	return summary, nil
}

// ParseYear reads an optional year query value. An empty string means the current year.
func ParseYear(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < 1 || year > 9999 {
		return 0, invalidField("year", "must be a valid year")
	}
	return year, nil
}
