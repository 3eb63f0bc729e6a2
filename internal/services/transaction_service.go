package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/finance-tracker-be/internal/database"
	"github.com/isdelr/finance-tracker-be/internal/models"
)

const defaultPageSize = 20

// TransactionInput is the payload for creating a transaction.
type TransactionInput struct {
	Amount      float64                `json:"amount" validate:"required,gte=0.01"`
	Type        models.TransactionType `json:"type" validate:"required,oneof=income expense"`
	Category    string                 `json:"category" validate:"required,max=50"`
	Date        string                 `json:"date" validate:"required,isodate"`
	Description *string                `json:"description" validate:"omitempty,max=500"`
}

// TransactionPatch is the payload for updating a transaction. Nil fields are left as stored.
type TransactionPatch struct {
	Amount      *float64                `json:"amount" validate:"omitempty,gte=0.01"`
	Type        *models.TransactionType `json:"type" validate:"omitempty,oneof=income expense"`
	Category    *string                 `json:"category" validate:"omitempty,min=1,max=50"`
	Date        *string                 `json:"date" validate:"omitempty,isodate"`
	Description *string                 `json:"description" validate:"omitempty,max=500"`
}

// TransactionServiceProvider defines the interface for transaction services.
type TransactionServiceProvider interface {
	Create(ctx context.Context, p models.Principal, in TransactionInput) (models.Transaction, error)
	Update(ctx context.Context, p models.Principal, id string, patch TransactionPatch) (models.Transaction, error)
	Delete(ctx context.Context, p models.Principal, id string) error
	List(ctx context.Context, p models.Principal, f models.TransactionFilter) (models.TransactionPage, error)
}

// TransactionService provides business logic for transactions.
type TransactionService struct {
	db     *sql.DB
	events EventRecorder
}

// NewTransactionService creates a new TransactionService. events may be nil.
func NewTransactionService(db *sql.DB, events EventRecorder) *TransactionService {
	return &TransactionService{db: db, events: events}
}

const transactionColumns = "id, user_id, amount, type, category, date, description, created_at, updated_at"

func scanTransaction(row interface{ Scan(...any) error }) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Category, &t.Date, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// emptyToNil stores a blank description as NULL.
func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// Create stores a new transaction owned by the caller.
func (s *TransactionService) Create(ctx context.Context, p models.Principal, in TransactionInput) (models.Transaction, error) {
	if !canModify(p, p.UserID) {
		return models.Transaction{}, ErrForbidden
	}

	in.Category = strings.TrimSpace(in.Category)
	in.Description = trimPtr(in.Description)
	if err := validateStruct(in); err != nil {
		return models.Transaction{}, err
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return models.Transaction{}, invalidField("date", "must be a valid ISO 8601 date")
	}

	now := time.Now().UTC()
	t := models.Transaction{
		ID:          uuid.New().String(),
		UserID:      p.UserID,
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    in.Category,
		Date:        date,
		Description: emptyToNil(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO transactions ("+transactionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.UserID, t.Amount, t.Type, t.Category, t.Date, t.Description, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	recordEvent(ctx, s.events, models.Event{
		Type:      models.EventTransactionCreated,
		ActorID:   p.UserID,
		OwnerID:   &t.UserID,
		SubjectID: t.ID,
		Message:   fmt.Sprintf("Created %s of %.2f in %s", t.Type, t.Amount, t.Category),
	})
	return t, nil
}

func (s *TransactionService) get(ctx context.Context, id string) (models.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Transaction{}, ErrNotFound
		}
		return models.Transaction{}, err
	}
	return t, nil
}

// Update merges patch onto the stored transaction. Only the owner or an admin may update it.
func (s *TransactionService) Update(ctx context.Context, p models.Principal, id string, patch TransactionPatch) (models.Transaction, error) {
	patch.Category = trimPtr(patch.Category)
	patch.Description = trimPtr(patch.Description)
	if err := validateStruct(patch); err != nil {
		return models.Transaction{}, err
	}

	// Read-then-write without a row version: a concurrent update or delete can race this one.
	t, err := s.get(ctx, id)
	if err != nil {
		return models.Transaction{}, err
	}
	if !canModify(p, t.UserID) {
		return models.Transaction{}, ErrForbidden
	}

	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.Type != nil {
		t.Type = *patch.Type
	}
	if patch.Category != nil {
		t.Category = *patch.Category
	}
	if patch.Date != nil {
		if t.Date, err = ParseDate(*patch.Date); err != nil {
			return models.Transaction{}, invalidField("date", "must be a valid ISO 8601 date")
		}
	}
	if patch.Description != nil {
		t.Description = emptyToNil(patch.Description)
	}
	t.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		"UPDATE transactions SET amount = ?, type = ?, category = ?, date = ?, description = ?, updated_at = ? WHERE id = ?",
		t.Amount, t.Type, t.Category, t.Date, t.Description, t.UpdatedAt, t.ID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	recordEvent(ctx, s.events, models.Event{
		Type:      models.EventTransactionUpdated,
		ActorID:   p.UserID,
		OwnerID:   &t.UserID,
		SubjectID: t.ID,
		Message:   fmt.Sprintf("Updated %s of %.2f in %s", t.Type, t.Amount, t.Category),
	})
	return t, nil
}

// Delete removes a transaction. Only the owner or an admin may delete it.
func (s *TransactionService) Delete(ctx context.Context, p models.Principal, id string) error {
	t, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(p, t.UserID) {
		return ErrForbidden
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	recordEvent(ctx, s.events, models.Event{
		Type:      models.EventTransactionDeleted,
		ActorID:   p.UserID,
		OwnerID:   &t.UserID,
		SubjectID: t.ID,
		Message:   fmt.Sprintf("Deleted %s of %.2f in %s", t.Type, t.Amount, t.Category),
	})
	return nil
}

// normalizePage applies the page defaults: page 1, limit 20.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	return page, limit
}

// pageCount returns ceil(total / limit) without overflowing for very large limits.
func pageCount(total, limit int) int {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pages
}

// List returns one page of the transactions visible to the caller, newest first.
func (s *TransactionService) List(ctx context.Context, p models.Principal, f models.TransactionFilter) (models.TransactionPage, error) {
	start, err := optionalDate("startDate", f.StartDate)
	if err != nil {
		return models.TransactionPage{}, err
	}
	end, err := optionalDate("endDate", f.EndDate)
	if err != nil {
		return models.TransactionPage{}, err
	}
	page, limit := normalizePage(f.Page, f.Limit)

	b := &database.Builder{}
	if err := scopeToOwner(b, p); err != nil {
		return models.TransactionPage{}, err
	}
	b.WhereIf(f.Category != "", "category = ?", f.Category).
		WhereIf(f.Description != "", database.FoldFunc+`(description) LIKE `+database.FoldFunc+`(?) ESCAPE '\'`, database.Contains(f.Description)).
		WhereIf(start != "", "date >= ?", start).
		WhereIf(end != "", "date <= ?", end)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions"+b.Clause(), b.Args()...).Scan(&total); err != nil {
		return models.TransactionPage{}, fmt.Errorf("count transactions: %w", err)
	}

	pages := pageCount(total, limit)
	transactions := []models.Transaction{}
	// Past the last page there is nothing to read, and (page-1)*limit could overflow.
	if page <= pages {
		transactions, err = s.page(ctx, b, limit, (page-1)*limit)
		if err != nil {
			return models.TransactionPage{}, err
		}
	}

	return models.TransactionPage{
		Transactions: transactions,
		Total:        total,
		Page:         page,
		Pages:        pages,
	}, nil
}

func (s *TransactionService) page(ctx context.Context, b *database.Builder, limit, offset int) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions"+b.Clause()+" ORDER BY date DESC, created_at DESC LIMIT ? OFFSET ?",
		b.Args(limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
