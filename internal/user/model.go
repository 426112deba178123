package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/lab-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/lab-booking-backend/internal/rbac"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "user not found")
	ErrEmailAlreadyUsed   = apperror.Business("email already used")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid email or password")
	ErrPasswordTooShort   = apperror.New(http.StatusBadRequest, "password must be at least 8 characters")
	ErrEmailRequired      = apperror.New(http.StatusBadRequest, "email is required")
)

// User represents a registered account. Role drives every authorization
// decision in the system.
type User struct {
	ID           string // UUID
	Name         string
	Email        string
	PasswordHash string
	Role         rbac.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
