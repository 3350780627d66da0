package auth

import "github.com/emilythestrangee/ystore/backend/internal/models"

// Identity is the resolved caller of a request.
type Identity struct {
	UserID      string
	DisplayName string
	Role        models.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

func IdentityOf(u *models.User) Identity {
	return Identity{UserID: u.ID, DisplayName: u.FullName, Role: u.Role}
}
