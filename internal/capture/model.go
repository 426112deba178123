package capture

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/lab-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "capture not found")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "permission denied")
	ErrNotAnImage       = apperror.New(http.StatusBadRequest, "file must be an image")
	ErrFileTooLarge     = apperror.New(http.StatusBadRequest, "file exceeds maximum allowed size")
	ErrNoThumbnail      = apperror.New(http.StatusNotFound, "thumbnail not available")

	// Captures record what happened during a running session; once the
	// session has ended its record is frozen.
	ErrSessionNotActive = apperror.Business("session is not active")
)

// Capture is an image recorded during an equipment session, e.g. an
// instrument readout or a microscope frame.
type Capture struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	UploaderID    string    `json:"uploader_id"`
	Filename      string    `json:"filename"`
	StoragePath   string    `json:"-"`
	ThumbnailPath *string   `json:"-"`
	ContentType   string    `json:"content_type"`
	Size          int64     `json:"size"`
	Width         *int      `json:"width,omitempty"`
	Height        *int      `json:"height,omitempty"`
	CapturedAt    time.Time `json:"captured_at"`
}

// ImageURL returns the public URL for a capture's full image.
func ImageURL(id string) string {
	return "/api/captures/" + id
}

// ThumbnailURL returns the public URL for a capture's thumbnail.
func ThumbnailURL(id string) string {
	return "/api/captures/" + id + "/thumbnail"
}
