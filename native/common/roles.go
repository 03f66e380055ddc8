package common

import "errors"

// ErrRoleMissing is returned when a caller does not hold the capability
// required for a privileged operation.
var ErrRoleMissing = errors.New("role missing")

// RoleView answers whether an address currently holds a named capability. The
// authoritative registry lives outside the native modules; engines only consume
// this view at their entry points.
type RoleView interface {
	HasRole(role string, addr [20]byte) bool
}

// RequireRole rejects callers that do not hold the capability. A nil view
// denies everything, so an engine without a wired registry cannot perform
// privileged operations.
func RequireRole(view RoleView, role string, addr [20]byte) error {
	if view == nil || role == "" {
		return ErrRoleMissing
	}
	if !view.HasRole(role, addr) {
		return ErrRoleMissing
	}
	return nil
}
