package core

import "github.com/gdg-garage/garage-events-api/internal/models"

// Caller is the verified identity an operation runs on behalf of. The zero
// value is an anonymous caller.
type Caller struct {
	UserID string
	Role   models.Role
}

func (c Caller) Authenticated() bool {
	return c.UserID != ""
}

// IsAdmin is true for admins and super-admins.
func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin || c.Role == models.RoleSuperAdmin
}

func (c Caller) IsSuperAdmin() bool {
	return c.Role == models.RoleSuperAdmin
}

// canManage reports whether the caller may mutate a record owned by ownerID.
func (c Caller) canManage(ownerID string) bool {
	return c.Authenticated() && (c.UserID == ownerID || c.IsSuperAdmin())
}
