package service

import "github.com/iliyamo/laptop-inventory/internal/model"

// Requirement describes what an actor must be to run an operation. Only two
// predicates exist: "is admin" and "holds this laptop".
type Requirement struct {
	admin  bool
	holder *model.LaptopState
	reason string
}

var (
	// AnyUser admits every authenticated actor.
	AnyUser = Requirement{}
	// AdminOnly is the role gate.
	AdminOnly = Requirement{admin: true, reason: "Admin access required"}
)

// HolderOf is the ownership gate for l.
func HolderOf(l model.Laptop) Requirement {
	s := l.State
	return Requirement{holder: &s, reason: "You are not assigned to this laptop"}
}

// Authorize is the single authorization predicate used by every operation
// and by the route middleware.
func Authorize(actor model.User, req Requirement) error {
	if actor.ID == "" {
		return unauthenticated("Authentication required")
	}
	if req.admin && !actor.Role.IsAdmin() {
		return forbidden(req.reason)
	}
	if req.holder != nil && !req.holder.HeldBy(actor.ID) {
		return forbidden(req.reason)
	}
	return nil
}
