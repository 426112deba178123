package session

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/lab-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "session not found")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "permission denied")

	// Business-rule failures from the lifecycle state machine: the request
	// was well formed and authorized but the transition is not allowed.
	ErrAlreadyActive      = apperror.Business("user already has an active session")
	ErrNotActive          = apperror.Business("session is not active")
	ErrBookingNotFound    = apperror.Business("referenced booking not found")
	ErrBookingNotApproved = apperror.Business("booking is not approved")
	ErrEquipmentMismatch  = apperror.Business("booking is for different equipment")
	ErrBookingNotOwned    = apperror.Business("booking belongs to another user")
)

// Status is the lifecycle state of a session.
// Active is the only non-terminal state.
type Status string

const (
	StatusActive    Status = "Active"
	StatusCompleted Status = "Completed"
	// StatusAborted is reserved for forced administrative termination so
	// that it never shares semantics with a normal completion.
	StatusAborted Status = "Aborted"
)

// Valid reports whether s is a known session status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusAborted:
		return true
	}
	return false
}

// Session is one live or finished equipment-usage period. At most one
// Active session exists per user at any time. BookingID, when set,
// references the approved booking the session was started against.
type Session struct {
	ID          string
	UserID      string
	BookingID   *string
	EquipmentID string
	Status      Status
	StartedAt   time.Time
	EndedAt     *time.Time
	Notes       *string
}

// Filter defines selection criteria for listing sessions.
type Filter struct {
	EquipmentID string
	UserID      string
	Status      string
	ActiveOnly  bool
	Page        int
	PageSize    int
}
