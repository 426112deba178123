package http

import (
	"time"

	"github.com/nekogravitycat/lab-booking-backend/internal/booking"
	"github.com/nekogravitycat/lab-booking-backend/internal/pkg/request"
)

// CreateBookingBody is the payload for POST /api/bookings.
// Slots are minutes-of-day; the interval is half-open [slot_start, slot_end).
type CreateBookingBody struct {
	EquipmentID string  `json:"equipment_id" binding:"required"`
	Date        string  `json:"date" binding:"required"`
	SlotStart   int     `json:"slot_start" binding:"min=0,max=1440"`
	SlotEnd     int     `json:"slot_end" binding:"min=0,max=1440"`
	Title       string  `json:"title" binding:"required"`
	GroupName   *string `json:"group_name"`
	Attendees   *int    `json:"attendees" binding:"omitempty,min=1"`
}

// UpdateBookingBody is the payload for PUT /api/bookings/:id. Date and
// slot fields reschedule the booking, subject to the same conflict check
// as creation. Status is not accepted here; approval has its own
// endpoints.
type UpdateBookingBody struct {
	Title     *string `json:"title"`
	GroupName *string `json:"group_name"`
	Attendees *int    `json:"attendees" binding:"omitempty,min=1"`
	Date      *string `json:"date"`
	SlotStart *int    `json:"slot_start" binding:"omitempty,min=0,max=1440"`
	SlotEnd   *int    `json:"slot_end" binding:"omitempty,min=0,max=1440"`
}

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	EquipmentID string `form:"equipment_id"`
	Date        string `form:"date"`
	Status      string `form:"status" binding:"omitempty,oneof=Pending Approved Rejected"`
	UserID      string `form:"user_id" binding:"omitempty,uuid"`
}

type BookingResponse struct {
	ID            string    `json:"id"`
	EquipmentID   string    `json:"equipment_id"`
	Date          string    `json:"date"`
	SlotStart     int       `json:"slot_start"`
	SlotEnd       int       `json:"slot_end"`
	Title         string    `json:"title"`
	GroupName     *string   `json:"group_name,omitempty"`
	Attendees     *int      `json:"attendees,omitempty"`
	RequesterID   string    `json:"requester_id"`
	RequesterName string    `json:"requester_name"`
	Status        string    `json:"status"`
	ApprovedBy    *string   `json:"approved_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		EquipmentID:   b.EquipmentID,
		Date:          b.Date.Format(time.DateOnly),
		SlotStart:     b.SlotStart,
		SlotEnd:       b.SlotEnd,
		Title:         b.Title,
		GroupName:     b.GroupName,
		Attendees:     b.Attendees,
		RequesterID:   b.RequesterID,
		RequesterName: b.RequesterName,
		Status:        string(b.Status),
		ApprovedBy:    b.ApprovedBy,
		CreatedAt:     b.CreatedAt,
	}
}
