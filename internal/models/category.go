package models

// Category is seeded reference data used to suggest transaction categories.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // income, expense or both
}
