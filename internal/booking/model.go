package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/lab-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "booking not found")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "permission denied")
	ErrInvalidSlotRange = apperror.New(http.StatusBadRequest, "slot_start must be before slot_end")
	ErrInvalidDate      = apperror.New(http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")

	// Business-rule failures: reported as success=false rather than a
	// transport-level error so the caller can pick another slot.
	ErrTimeConflict = apperror.Business("time slot conflict with existing booking")
)

// Status is the approval state of a booking.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Valid reports whether s is a known booking status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether s is an end state of the approval workflow.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Booking reserves a half-open time slot [SlotStart, SlotEnd) on one piece
// of equipment for one calendar day. Slots are minutes-of-day. Only
// Pending and Approved bookings occupy their slot; Rejected ones never
// block other requests.
type Booking struct {
	ID            string
	EquipmentID   string
	Date          time.Time // calendar day, midnight UTC
	SlotStart     int
	SlotEnd       int
	Title         string
	GroupName     *string
	Attendees     *int
	RequesterID   string
	RequesterName string // denormalized at creation
	Status        Status
	ApprovedBy    *string
	CreatedAt     time.Time
}

// Filter defines selection criteria for listing bookings.
type Filter struct {
	EquipmentID string
	Date        *time.Time
	RequesterID string
	Status      string
	Page        int
	PageSize    int
}
