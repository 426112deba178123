package rbac

// Operation is an action a principal may attempt on a booking or session.
type Operation string

const (
	OpRead    Operation = "read"
	OpCreate  Operation = "create"
	OpUpdate  Operation = "update"
	OpDelete  Operation = "delete"
	OpApprove Operation = "approve"
	OpEnd     Operation = "end"
)

// Can is the access control policy: it decides whether the principal may
// perform op on a resource owned by ownerID. It is a pure function so the
// whole authorization matrix lives in one auditable place.
//
// Admin and Teacher are allowed every operation on every booking and session.
// Students are restricted to resources they own and may never approve or
// reject a booking.
func Can(p Principal, op Operation, ownerID string) bool {
	switch p.Role {
	case RoleAdmin, RoleTeacher:
		return true
	case RoleStudent:
		if op == OpApprove {
			return false
		}
		return ownerID != "" && ownerID == p.UserID
	}
	return false
}

// ScopeListOwner resolves the owner filter for a listing operation.
// requested is the owner filter the caller asked for ("" = unfiltered).
// For supervisory roles the request passes through. Students are implicitly
// scoped to themselves; asking for another user's resources is denied.
// The second return value is false when the request must be rejected.
func ScopeListOwner(p Principal, requested string) (string, bool) {
	if p.Role.Supervisory() {
		return requested, true
	}
	if requested == "" || requested == p.UserID {
		return p.UserID, true
	}
	return "", false
}
