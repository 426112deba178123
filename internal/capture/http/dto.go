package http

import (
	"time"

	"github.com/nekogravitycat/lab-booking-backend/internal/capture"
)

type CaptureResponse struct {
	ID           string  `json:"id"`
	SessionID    string  `json:"session_id"`
	UploaderID   string  `json:"uploader_id"`
	Filename     string  `json:"filename"`
	ContentType  string  `json:"content_type"`
	Size         int64   `json:"size"`
	Width        *int    `json:"width,omitempty"`
	Height       *int    `json:"height,omitempty"`
	URL          string    `json:"url"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	CapturedAt   time.Time `json:"captured_at"`
}

func NewCaptureResponse(c *capture.Capture) CaptureResponse {
	var thumbURL *string
	if c.ThumbnailPath != nil {
		t := capture.ThumbnailURL(c.ID)
		thumbURL = &t
	}

	return CaptureResponse{
		ID:           c.ID,
		SessionID:    c.SessionID,
		UploaderID:   c.UploaderID,
		Filename:     c.Filename,
		ContentType:  c.ContentType,
		Size:         c.Size,
		Width:        c.Width,
		Height:       c.Height,
		URL:          capture.ImageURL(c.ID),
		ThumbnailURL: thumbURL,
		CapturedAt:   c.CapturedAt,
	}
}
