package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/models"
)

// Identity is the authenticated caller as seen by the authorization and tenancy rules.
type Identity struct {
	ID        uint64
	Role      models.Role
	CompanyID *uint64
}

// IdentityFromUser builds the identity for a loaded user.
func IdentityFromUser(user *models.User) Identity {
	return Identity{
		ID:        user.ID,
		Role:      user.Role,
		CompanyID: user.CompanyID,
	}
}

func (i Identity) IsSuperAdmin() bool {
	return i.Role == models.RoleSuperAdmin
}

// InCompany reports whether the identity belongs to companyID.
func (i Identity) InCompany(companyID uint64) bool {
	return i.CompanyID != nil && *i.CompanyID == companyID
}

// SetIdentity stores the identity in the gin context.
func SetIdentity(c *gin.Context, identity Identity) {
	c.Set(constants.ContextKeyIdentity, identity)
}

// GetIdentity returns the identity stored by the authentication middleware.
func GetIdentity(c *gin.Context) (Identity, bool) {
	value, exists := c.Get(constants.ContextKeyIdentity)
	if !exists {
		return Identity{}, false
	}
	identity, ok := value.(Identity)
	return identity, ok
}
