package services

import "github.com/autotraits-be/models"

// ResolveBreederID returns the tenant a write operates on. Admins must name
// a target; users act on their own breeder and may only name it.
func ResolveBreederID(role models.Role, claimed, target *uint) (uint, error) {
	if role == models.RoleAdmin {
		if target == nil {
			return 0, newError(ErrBadRequest, "breeder_id is required for admin")
		}
		return *target, nil
	}
	if claimed == nil {
		return 0, newError(ErrForbidden, "user is not assigned to a breeder")
	}
	if target != nil && *target != *claimed {
		return 0, newError(ErrForbidden, "not allowed to access another breeder")
	}
	return *claimed, nil
}

// ResolveBreederScope is the read variant of ResolveBreederID: an admin
// without a target sees every tenant, signalled by a nil scope.
func ResolveBreederScope(role models.Role, claimed, target *uint) (*uint, error) {
	if role == models.RoleAdmin && target == nil {
		return nil, nil
	}
	id, err := ResolveBreederID(role, claimed, target)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
