package services

import (
	"testing"

	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/stretchr/testify/suite"
)

type UserServiceSuite struct {
	ServiceSuite
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) TestListUsers() {
	s.principal("admin@x.com", models.RoleAdmin)
	s.principal("user@x.com", models.RoleUser)

	users, err := s.users.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 2)
	for _, u := range users {
		s.Empty(u.PasswordHash)
		s.True(u.Role.Valid())
	}
}

func (s *UserServiceSuite) TestUpdateRole() {
	admin := s.principal("admin@x.com", models.RoleAdmin)
	target := s.principal("user@x.com", models.RoleUser)

	user, err := s.users.UpdateRole(s.ctx, admin, target.UserID, "read-only")
	s.Require().NoError(err)
	s.Equal(models.RoleReadOnly, user.Role)

	stored, err := s.users.GetUserByID(s.ctx, target.UserID)
	s.Require().NoError(err)
	s.Equal(models.RoleReadOnly, stored.Role)

	s.Contains(s.events.types(), models.EventUserRoleUpdated)
}

func (s *UserServiceSuite) TestUpdateRoleRejectsUnknownRole() {
	admin := s.principal("admin@x.com", models.RoleAdmin)
	target := s.principal("user@x.com", models.RoleUser)

	_, err := s.users.UpdateRole(s.ctx, admin, target.UserID, "superuser")
	s.ErrorIs(err, ErrInvalidRole)

	stored, err := s.users.GetUserByID(s.ctx, target.UserID)
	s.Require().NoError(err)
	s.Equal(models.RoleUser, stored.Role)
}

func (s *UserServiceSuite) TestUpdateRoleUnknownUser() {
	admin := s.principal("admin@x.com", models.RoleAdmin)

	_, err := s.users.UpdateRole(s.ctx, admin, "missing", "admin")
	s.ErrorIs(err, ErrNotFound)
}

func (s *UserServiceSuite) TestGetUserByEmailIncludesHash() {
	s.principal("user@x.com", models.RoleUser)

	user, err := s.users.GetUserByEmail(s.ctx, "USER@x.com")
	s.Require().NoError(err)
	s.NotEmpty(user.PasswordHash)

	_, err = s.users.GetUserByEmail(s.ctx, "nobody@x.com")
	s.ErrorIs(err, ErrNotFound)
}
