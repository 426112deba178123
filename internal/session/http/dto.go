package http

import (
	"time"

	"github.com/nekogravitycat/lab-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/lab-booking-backend/internal/session"
)

// CreateSessionBody is the payload for POST /api/sessions.
type CreateSessionBody struct {
	EquipmentID string  `json:"equipment_id" binding:"required"`
	BookingID   *string `json:"booking_id" binding:"omitempty,uuid"`
	Notes       *string `json:"notes"`
}

// EndSessionBody is the payload for POST /api/sessions/:id/end.
// Notes replace the stored notes only when provided.
type EndSessionBody struct {
	Notes *string `json:"notes"`
}

// ListSessionsRequest defines query parameters for listing sessions.
type ListSessionsRequest struct {
	request.ListParams
	EquipmentID string `form:"equipment_id"`
	UserID      string `form:"user_id" binding:"omitempty,uuid"`
	Status      string `form:"status" binding:"omitempty,oneof=Active Completed Aborted"`
	ActiveOnly  bool   `form:"active_only"`
}

type SessionResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	BookingID   *string    `json:"booking_id,omitempty"`
	EquipmentID string     `json:"equipment_id"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

func NewSessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID:          s.ID,
		UserID:      s.UserID,
		BookingID:   s.BookingID,
		EquipmentID: s.EquipmentID,
		Status:      string(s.Status),
		StartedAt:   s.StartedAt,
		EndedAt:     s.EndedAt,
		Notes:       s.Notes,
	}
}
