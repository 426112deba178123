package session

import (
	"context"

	"github.com/nekogravitycat/lab-booking-backend/internal/booking"
	"github.com/nekogravitycat/lab-booking-backend/internal/rbac"
)

// StartRequest carries the validated input for starting a session.
type StartRequest struct {
	EquipmentID string
	BookingID   *string
	Notes       *string
}

// BookingLookup is the slice of the booking module the lifecycle manager
// needs to validate a booking-bound start.
type BookingLookup interface {
	GetByID(ctx context.Context, id string) (*booking.Booking, error)
}

type Service interface {
	// Start performs the NoSession -> Active transition for the principal.
	Start(ctx context.Context, p rbac.Principal, req StartRequest) (*Session, error)
	// End performs the Active -> Completed transition on the target session.
	End(ctx context.Context, p rbac.Principal, id string, notes *string) (*Session, error)
	GetByID(ctx context.Context, p rbac.Principal, id string) (*Session, error)
	// GetCurrent returns the principal's Active session, or nil if none.
	GetCurrent(ctx context.Context, p rbac.Principal) (*Session, error)
	List(ctx context.Context, p rbac.Principal, filter Filter) ([]*Session, int, error)
}

type service struct {
	repo     Repository
	bookings BookingLookup
}

func NewService(repo Repository, bookings BookingLookup) Service {
	return &service{
		repo:     repo,
		bookings: bookings,
	}
}

func (s *service) Start(ctx context.Context, p rbac.Principal, req StartRequest) (*Session, error) {
	// A booking-bound start must reference an approved booking for the same
	// equipment. Students may only start against their own bookings;
	// supervisory roles may start against any approved booking. All of
	// these are business-rule failures: nothing is created.
	if req.BookingID != nil {
		b, err := s.bookings.GetByID(ctx, *req.BookingID)
		if err != nil {
			if err == booking.ErrNotFound {
				return nil, ErrBookingNotFound
			}
			return nil, err
		}
		if b.Status != booking.StatusApproved {
			return nil, ErrBookingNotApproved
		}
		if b.EquipmentID != req.EquipmentID {
			return nil, ErrEquipmentMismatch
		}
		if !p.Role.Supervisory() && b.RequesterID != p.UserID {
			return nil, ErrBookingNotOwned
		}
	}

	sess := &Session{
		UserID:      p.UserID,
		BookingID:   req.BookingID,
		EquipmentID: req.EquipmentID,
		Notes:       req.Notes,
	}

	// The no-active-session check and the insert are one atomic unit in
	// the repository.
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}

	return sess, nil
}

func (s *service) End(ctx context.Context, p rbac.Principal, id string, notes *string) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !rbac.Can(p, rbac.OpEnd, sess.UserID) {
		return nil, ErrPermissionDenied
	}

	return s.repo.End(ctx, id, notes)
}

func (s *service) GetByID(ctx context.Context, p rbac.Principal, id string) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !rbac.Can(p, rbac.OpRead, sess.UserID) {
		return nil, ErrPermissionDenied
	}

	return sess, nil
}

func (s *service) GetCurrent(ctx context.Context, p rbac.Principal) (*Session, error) {
	return s.repo.GetActiveByUser(ctx, p.UserID)
}

func (s *service) List(ctx context.Context, p rbac.Principal, filter Filter) ([]*Session, int, error) {
	owner, ok := rbac.ScopeListOwner(p, filter.UserID)
	if !ok {
		return nil, 0, ErrPermissionDenied
	}
	filter.UserID = owner

	return s.repo.List(ctx, filter)
}
