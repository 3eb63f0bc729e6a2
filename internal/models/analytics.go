package models

// MonthlyTotal is the income/expense aggregate of one calendar month.
type MonthlyTotal struct {
	Month   string  `json:"month"` // YYYY-MM
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

// CategoryTotal is one row of the expense breakdown by category.
type CategoryTotal struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
	Count      int     `json:"count"`
}

// TrendPoint is the summed value of one transaction type in one month.
type TrendPoint struct {
	Period string          `json:"period"` // YYYY-MM
	Type   TransactionType `json:"type"`
	Value  float64         `json:"value"`
}

// AnalyticsSummary bundles the dashboard datasets.
type AnalyticsSummary struct {
	Months     []MonthlyTotal  `json:"months"`
	Categories []CategoryTotal `json:"categories"`
	Trends     []TrendPoint    `json:"trends"`
}
