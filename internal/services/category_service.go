package services

import (
	"context"
	"database/sql"

	"github.com/isdelr/finance-tracker-be/internal/models"
)

// CategoryServiceProvider defines the interface for category services.
type CategoryServiceProvider interface {
	List(ctx context.Context) ([]models.Category, error)
}

// CategoryService reads the seeded reference categories.
type CategoryService struct {
	db *sql.DB
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(db *sql.DB) *CategoryService {
	return &CategoryService{db: db}
}

// List returns every category ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, type FROM categories ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
