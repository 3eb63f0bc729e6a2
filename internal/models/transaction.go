package models

import "time"

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// DateLayout is the storage and wire format of a transaction date.
const DateLayout = "2006-01-02"

// Transaction represents a single income or expense entry owned by one user.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Amount      float64         `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Description *string         `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// TransactionFilter holds the optional list filters. Empty strings mean "not set".
type TransactionFilter struct {
	Category    string
	Description string
	StartDate   string
	EndDate     string
	Page        int
	Limit       int
}

// TransactionPage is one page of a filtered transaction listing.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
	Page         int           `json:"page"`
	Pages        int           `json:"pages"`
}
