package services

import (
	"github.com/isdelr/finance-tracker-be/internal/database"
	"github.com/isdelr/finance-tracker-be/internal/models"
)

// scopeToOwner limits b to the rows p may read. Admins read everything,
// every other role only the rows it owns.
func scopeToOwner(b *database.Builder, p models.Principal) error {
	switch p.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleUser, models.RoleReadOnly:
		if p.UserID == "" {
			return ErrForbidden
		}
		b.Where("user_id = ?", p.UserID)
		return nil
	default:
		return ErrForbidden
	}
}

// canModify reports whether p may change or delete a row owned by ownerID.
func canModify(p models.Principal, ownerID string) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleUser:
		return p.UserID == ownerID
	case models.RoleReadOnly:
		return false
	default:
		return false
	}
}
