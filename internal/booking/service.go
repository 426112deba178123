package booking

import (
	"context"
	"time"

	"github.com/nekogravitycat/lab-booking-backend/internal/rbac"
	"github.com/nekogravitycat/lab-booking-backend/internal/user"
)

// CreateRequest carries the validated input for a new booking.
type CreateRequest struct {
	EquipmentID string
	Date        time.Time
	SlotStart   int
	SlotEnd     int
	Title       string
	GroupName   *string
	Attendees   *int
}

// UpdateRequest carries partial updates for a booking. Supplying any of
// Date/SlotStart/SlotEnd reschedules the booking, re-running the conflict
// check against everything except the booking itself. Status is
// deliberately absent: it changes only through Approve/Reject.
type UpdateRequest struct {
	Title     *string
	GroupName *string
	Attendees *int
	Date      *time.Time
	SlotStart *int
	SlotEnd   *int
}

type Service interface {
	Create(ctx context.Context, p rbac.Principal, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, p rbac.Principal, id string) (*Booking, error)
	List(ctx context.Context, p rbac.Principal, filter Filter) ([]*Booking, int, error)
	Update(ctx context.Context, p rbac.Principal, id string, req UpdateRequest) (*Booking, error)
	Delete(ctx context.Context, p rbac.Principal, id string) error
	Approve(ctx context.Context, p rbac.Principal, id string) (*Booking, error)
	Reject(ctx context.Context, p rbac.Principal, id string) (*Booking, error)
}

type service struct {
	repo        Repository
	userService user.Service
}

func NewService(repo Repository, userService user.Service) Service {
	return &service{
		repo:        repo,
		userService: userService,
	}
}

func (s *service) Create(ctx context.Context, p rbac.Principal, req CreateRequest) (*Booking, error) {
	// Malformed interval is a validation failure, never a conflict.
	if req.SlotStart >= req.SlotEnd {
		return nil, ErrInvalidSlotRange
	}

	requester, err := s.userService.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		EquipmentID:   req.EquipmentID,
		Date:          req.Date,
		SlotStart:     req.SlotStart,
		SlotEnd:       req.SlotEnd,
		Title:         req.Title,
		GroupName:     req.GroupName,
		Attendees:     req.Attendees,
		RequesterID:   requester.ID,
		RequesterName: requester.Name,
		Status:        StatusPending,
	}

	// Overlap check and insert are a single atomic unit in the repository,
	// so two concurrent requests for overlapping slots cannot both succeed.
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

func (s *service) GetByID(ctx context.Context, p rbac.Principal, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !rbac.Can(p, rbac.OpRead, b.RequesterID) {
		return nil, ErrPermissionDenied
	}

	return b, nil
}

func (s *service) List(ctx context.Context, p rbac.Principal, filter Filter) ([]*Booking, int, error) {
	// Visibility by equipment+date is role independent: everyone needs it
	// to find a free slot. Any other listing is owner scoped for Students.
	if filter.EquipmentID == "" || filter.Date == nil {
		owner, ok := rbac.ScopeListOwner(p, filter.RequesterID)
		if !ok {
			return nil, 0, ErrPermissionDenied
		}
		filter.RequesterID = owner
	}

	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, p rbac.Principal, id string, req UpdateRequest) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !rbac.Can(p, rbac.OpUpdate, b.RequesterID) {
		return nil, ErrPermissionDenied
	}

	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.GroupName != nil {
		b.GroupName = req.GroupName
	}
	if req.Attendees != nil {
		b.Attendees = req.Attendees
	}

	if req.Date == nil && req.SlotStart == nil && req.SlotEnd == nil {
		if err := s.repo.UpdateDetails(ctx, b); err != nil {
			return nil, err
		}
		return b, nil
	}

	if req.Date != nil {
		b.Date = *req.Date
	}
	if req.SlotStart != nil {
		b.SlotStart = *req.SlotStart
	}
	if req.SlotEnd != nil {
		b.SlotEnd = *req.SlotEnd
	}
	if b.SlotStart >= b.SlotEnd {
		return nil, ErrInvalidSlotRange
	}

	if err := s.repo.Reschedule(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

func (s *service) Delete(ctx context.Context, p rbac.Principal, id string) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !rbac.Can(p, rbac.OpDelete, b.RequesterID) {
		return ErrPermissionDenied
	}

	return s.repo.Delete(ctx, id)
}

// Approve transitions a booking to Approved, recording the approver.
// Re-approving an already-terminal booking overwrites idempotently.
func (s *service) Approve(ctx context.Context, p rbac.Principal, id string) (*Booking, error) {
	return s.decide(ctx, p, id, StatusApproved)
}

// Reject transitions a booking to Rejected, recording the approver.
func (s *service) Reject(ctx context.Context, p rbac.Principal, id string) (*Booking, error) {
	return s.decide(ctx, p, id, StatusRejected)
}

func (s *service) decide(ctx context.Context, p rbac.Principal, id string, status Status) (*Booking, error) {
	if !rbac.Can(p, rbac.OpApprove, "") {
		return nil, ErrPermissionDenied
	}

	return s.repo.UpdateStatus(ctx, id, status, p.UserID)
}
