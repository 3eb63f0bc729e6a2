package services

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/stretchr/testify/suite"
)

type TransactionServiceSuite struct {
	ServiceSuite
	svc   *TransactionService
	admin models.Principal
	alice models.Principal
	bob   models.Principal
}

func (s *TransactionServiceSuite) SetupTest() {
	s.ServiceSuite.SetupTest()
	s.svc = NewTransactionService(s.db, s.events)
	s.admin = s.principal("admin@x.com", models.RoleAdmin)
	s.alice = s.principal("alice@x.com", models.RoleUser)
	s.bob = s.principal("bob@x.com", models.RoleUser)
}

func TestTransactionServiceSuite(t *testing.T) {
	suite.Run(t, new(TransactionServiceSuite))
}

func (s *TransactionServiceSuite) create(p models.Principal, amount float64, typ models.TransactionType, category, date string) models.Transaction {
	t, err := s.svc.Create(s.ctx, p, TransactionInput{Amount: amount, Type: typ, Category: category, Date: date})
	s.Require().NoError(err)
	return t
}

func (s *TransactionServiceSuite) TestCreateNormalizesInput() {
	t, err := s.svc.Create(s.ctx, s.alice, TransactionInput{
		Amount:      12.5,
		Type:        models.TransactionTypeExpense,
		Category:    "  Food ",
		Date:        "2024-03-05T18:45:00Z",
		Description: ptr("  lunch  "),
	})
	s.Require().NoError(err)

	s.Equal(s.alice.UserID, t.UserID)
	s.Equal(12.5, t.Amount)
	s.Equal("Food", t.Category)
	s.Equal("2024-03-05", t.Date)
	s.Require().NotNil(t.Description)
	s.Equal("lunch", *t.Description)
	s.Equal([]string{models.EventUserRegistered, models.EventUserRegistered, models.EventUserRegistered, models.EventTransactionCreated}, s.events.types())
}

func (s *TransactionServiceSuite) TestCreateBlankDescriptionIsNull() {
	t, err := s.svc.Create(s.ctx, s.alice, TransactionInput{
		Amount: 3, Type: models.TransactionTypeIncome, Category: "Salary", Date: "2024-01-01", Description: ptr("   "),
	})
	s.Require().NoError(err)
	s.Nil(t.Description)
	s.Equal(1, s.count("SELECT COUNT(*) FROM transactions WHERE description IS NULL"))
}

func (s *TransactionServiceSuite) TestCreateRejectsInvalidInputBeforePersisting() {
	tests := []struct {
		name  string
		in    TransactionInput
		field string
	}{
		{"zero amount", TransactionInput{Amount: 0, Type: "expense", Category: "Food", Date: "2024-01-01"}, "amount"},
		{"negative amount", TransactionInput{Amount: -5, Type: "expense", Category: "Food", Date: "2024-01-01"}, "amount"},
		{"below one cent", TransactionInput{Amount: 0.001, Type: "expense", Category: "Food", Date: "2024-01-01"}, "amount"},
		{"unknown type", TransactionInput{Amount: 5, Type: "transfer", Category: "Food", Date: "2024-01-01"}, "type"},
		{"blank category", TransactionInput{Amount: 5, Type: "expense", Category: "   ", Date: "2024-01-01"}, "category"},
		{"long category", TransactionInput{Amount: 5, Type: "expense", Category: strings.Repeat("c", 51), Date: "2024-01-01"}, "category"},
		{"bad date", TransactionInput{Amount: 5, Type: "expense", Category: "Food", Date: "yesterday"}, "date"},
		{"long description", TransactionInput{Amount: 5, Type: "expense", Category: "Food", Date: "2024-01-01", Description: ptr(strings.Repeat("d", 501))}, "description"},
	}
	for _, tt := range tests {
		_, err := s.svc.Create(s.ctx, s.alice, tt.in)
		s.Equal([]string{tt.field}, fields(s.T(), err), tt.name)
	}
	s.Zero(s.count("SELECT COUNT(*) FROM transactions"))
}

func (s *TransactionServiceSuite) TestReadOnlyCannotCreate() {
	ro := s.principal("ro@x.com", models.RoleReadOnly)
	_, err := s.svc.Create(s.ctx, ro, TransactionInput{Amount: 5, Type: "expense", Category: "Food", Date: "2024-01-01"})
	s.ErrorIs(err, ErrForbidden)
}

func (s *TransactionServiceSuite) TestUpdateByOwnerMergesFields() {
	t := s.create(s.alice, 10, models.TransactionTypeExpense, "Food", "2024-01-01")

	updated, err := s.svc.Update(s.ctx, s.alice, t.ID, TransactionPatch{Amount: ptr(25.75), Description: ptr("groceries")})
	s.Require().NoError(err)
	s.Equal(25.75, updated.Amount)
	s.Equal("Food", updated.Category)
	s.Equal("2024-01-01", updated.Date)
	s.Require().NotNil(updated.Description)
	s.Equal("groceries", *updated.Description)

	cleared, err := s.svc.Update(s.ctx, s.alice, t.ID, TransactionPatch{Description: ptr("")})
	s.Require().NoError(err)
	s.Nil(cleared.Description)
}

func (s *TransactionServiceSuite) TestUpdateForeignRowIsForbidden() {
	t := s.create(s.bob, 10, models.TransactionTypeExpense, "Food", "2024-01-01")

	_, err := s.svc.Update(s.ctx, s.alice, t.ID, TransactionPatch{Amount: ptr(99.0)})
	s.ErrorIs(err, ErrForbidden)

	stored, err := s.svc.get(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(10.0, stored.Amount)
}

func (s *TransactionServiceSuite) TestAdminUpdatesAnyRow() {
	t := s.create(s.bob, 10, models.TransactionTypeExpense, "Food", "2024-01-01")

	updated, err := s.svc.Update(s.ctx, s.admin, t.ID, TransactionPatch{Type: ptr(models.TransactionTypeIncome)})
	s.Require().NoError(err)
	s.Equal(models.TransactionTypeIncome, updated.Type)
	s.Equal(s.bob.UserID, updated.UserID)
}

func (s *TransactionServiceSuite) TestUpdateNotFound() {
	_, err := s.svc.Update(s.ctx, s.admin, "missing", TransactionPatch{Amount: ptr(5.0)})
	s.ErrorIs(err, ErrNotFound)
}

func (s *TransactionServiceSuite) TestUpdateValidatesBeforeLookup() {
	_, err := s.svc.Update(s.ctx, s.alice, "missing", TransactionPatch{Amount: ptr(0.0), Category: ptr(" ")})
	s.ElementsMatch([]string{"amount", "category"}, fields(s.T(), err))
}

func (s *TransactionServiceSuite) TestDelete() {
	t := s.create(s.bob, 10, models.TransactionTypeExpense, "Food", "2024-01-01")

	s.ErrorIs(s.svc.Delete(s.ctx, s.alice, t.ID), ErrForbidden)
	s.Equal(1, s.count("SELECT COUNT(*) FROM transactions"))

	s.Require().NoError(s.svc.Delete(s.ctx, s.bob, t.ID))
	s.Zero(s.count("SELECT COUNT(*) FROM transactions"))

	s.ErrorIs(s.svc.Delete(s.ctx, s.bob, t.ID), ErrNotFound)
	s.Contains(s.events.types(), models.EventTransactionDeleted)
}

func (s *TransactionServiceSuite) TestAdminDeletesAnyRow() {
	t := s.create(s.bob, 10, models.TransactionTypeExpense, "Food", "2024-01-01")
	s.Require().NoError(s.svc.Delete(s.ctx, s.admin, t.ID))
	s.Zero(s.count("SELECT COUNT(*) FROM transactions"))
}

func (s *TransactionServiceSuite) TestListScoping() {
	s.create(s.alice, 10, models.TransactionTypeExpense, "Food", "2024-01-01")
	s.create(s.alice, 20, models.TransactionTypeIncome, "Salary", "2024-01-02")
	s.create(s.bob, 30, models.TransactionTypeExpense, "Bills", "2024-01-03")

	all, err := s.svc.List(s.ctx, s.admin, models.TransactionFilter{})
	s.Require().NoError(err)
	s.Equal(3, all.Total)

	own, err := s.svc.List(s.ctx, s.alice, models.TransactionFilter{})
	s.Require().NoError(err)
	s.Equal(2, own.Total)
	for _, t := range own.Transactions {
		s.Equal(s.alice.UserID, t.UserID)
	}
	s.Equal("2024-01-02", own.Transactions[0].Date, "newest first")

	ro := s.principal("ro@x.com", models.RoleReadOnly)
	none, err := s.svc.List(s.ctx, ro, models.TransactionFilter{})
	s.Require().NoError(err)
	s.Zero(none.Total)
	s.NotNil(none.Transactions)
	s.Zero(none.Pages)
}

func (s *TransactionServiceSuite) TestListFilters() {
	s.create(s.alice, 10, models.TransactionTypeExpense, "Food", "2024-01-10")
	s.create(s.alice, 20, models.TransactionTypeExpense, "Food", "2024-02-10")
	s.create(s.alice, 30, models.TransactionTypeExpense, "Bills", "2024-03-10")
	_, err := s.svc.Create(s.ctx, s.alice, TransactionInput{
		Amount: 5, Type: "expense", Category: "Other", Date: "2024-02-15", Description: ptr("Coffee at 50% off"),
	})
	s.Require().NoError(err)

	tests := []struct {
		name   string
		filter models.TransactionFilter
		want   int
	}{
		{"category exact", models.TransactionFilter{Category: "Food"}, 2},
		{"category is not a prefix match", models.TransactionFilter{Category: "Foo"}, 0},
		{"description case-insensitive", models.TransactionFilter{Description: "COFFEE"}, 1},
		{"description wildcard is literal", models.TransactionFilter{Description: "50%"}, 1},
		{"description underscore is literal", models.TransactionFilter{Description: "_"}, 0},
		{"start date inclusive", models.TransactionFilter{StartDate: "2024-02-10"}, 3},
		{"end date inclusive", models.TransactionFilter{EndDate: "2024-02-10"}, 2},
		{"date range", models.TransactionFilter{StartDate: "2024-02-01", EndDate: "2024-02-28"}, 2},
		{"combined", models.TransactionFilter{Category: "Food", StartDate: "2024-02-01"}, 1},
	}
	for _, tt := range tests {
		page, err := s.svc.List(s.ctx, s.alice, tt.filter)
		s.Require().NoError(err, tt.name)
		s.Equal(tt.want, page.Total, tt.name)
		s.Len(page.Transactions, tt.want, tt.name)
	}
}

func (s *TransactionServiceSuite) TestListDescriptionFoldsUnicode() {
	_, err := s.svc.Create(s.ctx, s.alice, TransactionInput{
		Amount: 4, Type: "expense", Category: "Food", Date: "2024-01-01", Description: ptr("Café au lait"),
	})
	s.Require().NoError(err)

	for _, q := range []string{"CAFÉ", "café", "AU LAIT"} {
		page, err := s.svc.List(s.ctx, s.alice, models.TransactionFilter{Description: q})
		s.Require().NoError(err, q)
		s.Equal(1, page.Total, q)
	}
}

func (s *TransactionServiceSuite) TestListRejectsBadDateFilter() {
	_, err := s.svc.List(s.ctx, s.alice, models.TransactionFilter{StartDate: "last week"})
	s.Equal([]string{"startDate"}, fields(s.T(), err))
}

func (s *TransactionServiceSuite) TestListPagination() {
	for i := 1; i <= 7; i++ {
		s.create(s.alice, float64(i), models.TransactionTypeExpense, "Food", fmt.Sprintf("2024-01-%02d", i))
	}

	first, err := s.svc.List(s.ctx, s.alice, models.TransactionFilter{Page: 1, Limit: 3})
	s.Require().NoError(err)
	s.Equal(7, first.Total)
	s.Equal(3, first.Pages)
	s.Len(first.Transactions, 3)
	s.Equal("2024-01-07", first.Transactions[0].Date)

	last, err := s.svc.List(s.ctx, s.alice, models.TransactionFilter{Page: 3, Limit: 3})
	s.Require().NoError(err)
	s.Len(last.Transactions, 1)
	s.Equal("2024-01-01", last.Transactions[0].Date)

	beyond, err := s.svc.List(s.ctx, s.alice, models.TransactionFilter{Page: 4, Limit: 3})
	s.Require().NoError(err)
	s.Empty(beyond.Transactions)
	s.Equal(7, beyond.Total)
	s.Equal(3, beyond.Pages)

	defaults, err := s.svc.List(s.ctx, s.alice, models.TransactionFilter{})
	s.Require().NoError(err)
	s.Equal(1, defaults.Page)
	s.Equal(1, defaults.Pages)
	s.Len(defaults.Transactions, 7)
}

func (s *TransactionServiceSuite) TestListHonorsLimitAboveHundred() {
	for i := 0; i < 150; i++ {
		s.create(s.alice, 1, models.TransactionTypeExpense, "Food", "2024-01-01")
	}

	whole, err := s.svc.List(s.ctx, s.alice, models.TransactionFilter{Page: 1, Limit: 200})
	s.Require().NoError(err)
	s.Equal(150, whole.Total)
	s.Equal(1, whole.Pages)
	s.Len(whole.Transactions, 150)

	second, err := s.svc.List(s.ctx, s.alice, models.TransactionFilter{Page: 2, Limit: 120})
	s.Require().NoError(err)
	s.Equal(2, second.Pages)
	s.Len(second.Transactions, 30)
}

func (s *TransactionServiceSuite) TestListHugePageOrLimit() {
	for i := 1; i <= 3; i++ {
		s.create(s.alice, float64(i), models.TransactionTypeExpense, "Food", fmt.Sprintf("2024-01-%02d", i))
	}

	far, err := s.svc.List(s.ctx, s.alice, models.TransactionFilter{Page: math.MaxInt64 / 10, Limit: 20})
	s.Require().NoError(err)
	s.Empty(far.Transactions)
	s.Equal(3, far.Total)
	s.Equal(1, far.Pages)

	last, err := s.svc.List(s.ctx, s.alice, models.TransactionFilter{Page: math.MaxInt, Limit: math.MaxInt})
	s.Require().NoError(err)
	s.Empty(last.Transactions)
	s.Equal(1, last.Pages)

	all, err := s.svc.List(s.ctx, s.alice, models.TransactionFilter{Page: 1, Limit: math.MaxInt})
	s.Require().NoError(err)
	s.Len(all.Transactions, 3)
}
