// Package auth holds the authenticated caller identity that handlers pass
// explicitly into service calls.
package auth

import "tokocommerce/internal/models"

// Identity is the authenticated caller of an operation.
type Identity struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

// CanAccess reports whether the identity may act on a resource owned by ownerID.
func (i Identity) CanAccess(ownerID string) bool {
	return i.IsAdmin() || (i.UserID != "" && i.UserID == ownerID)
}
