// Package tenancy resolves the company a request is scoped to.
package tenancy

import (
	"errors"

	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/policy"
)

// ErrNoCompany is returned when the operation needs a company and the caller has none.
var ErrNoCompany = errors.New("caller is not associated with a company")

// Resolve returns the effective company id for identity.
//
// An explicit id that differs from the caller's own company is honored only for a
// SUPERADMIN; anyone else gets a CrossTenantDenied denial. Without an explicit id
// the caller's own company is used. A nil result means "no company scope" and is
// only returned when requireCompany is false.
func Resolve(identity auth.Identity, explicit *uint64, requireCompany bool) (*uint64, error) {
	if explicit != nil {
		if identity.InCompany(*explicit) || identity.IsSuperAdmin() {
			id := *explicit
			return &id, nil
		}
		return nil, policy.Deny(policy.ReasonCrossTenantDenied, "access to another company is not allowed")
	}

	if identity.CompanyID != nil {
		id := *identity.CompanyID
		return &id, nil
	}

	if requireCompany {
		return nil, ErrNoCompany
	}
	return nil, nil
}
