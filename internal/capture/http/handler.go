package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nekogravitycat/lab-booking-backend/internal/auth"
	"github.com/nekogravitycat/lab-booking-backend/internal/capture"
	"github.com/nekogravitycat/lab-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/lab-booking-backend/internal/rbac"
)

type Handler struct {
	service capture.Service
}

func NewHandler(service capture.Service) *Handler {
	return &Handler{service: service}
}

func principalOrAbort(c *gin.Context) (rbac.Principal, bool) {
	p, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Envelope{Success: false, Error: "unauthorized"})
	}
	return p, ok
}

func uuidParamOrAbort(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, response.Envelope{Success: false, Error: "invalid " + name})
		return "", false
	}
	return id, true
}

// Upload stores an image against a session.
func (h *Handler) Upload(c *gin.Context) {
	sessionID, ok := uuidParamOrAbort(c, "id")
	if !ok {
		return
	}

	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Envelope{Success: false, Error: "file is required"})
		return
	}

	cpt, err := h.service.Upload(c.Request.Context(), p, sessionID, fileHeader)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, NewCaptureResponse(cpt))
}

// ListBySession lists all captures recorded during a session.
func (h *Handler) ListBySession(c *gin.Context) {
	sessionID, ok := uuidParamOrAbort(c, "id")
	if !ok {
		return
	}

	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	captures, err := h.service.ListBySession(c.Request.Context(), p, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]CaptureResponse, len(captures))
	for i, cpt := range captures {
		items[i] = NewCaptureResponse(cpt)
	}

	response.OK(c, items)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := uuidParamOrAbort(c, "id")
	if !ok {
		return
	}

	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	cpt, err := h.service.Get(c.Request.Context(), p, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, NewCaptureResponse(cpt))
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := uuidParamOrAbort(c, "id")
	if !ok {
		return
	}

	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), p, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "capture deleted")
}

// ServeImage streams the full capture image.
func (h *Handler) ServeImage(c *gin.Context) {
	id, ok := uuidParamOrAbort(c, "id")
	if !ok {
		return
	}

	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	stream, cpt, err := h.service.Download(c.Request.Context(), p, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	c.Header("Content-Type", cpt.ContentType)
	c.Header("Content-Disposition", "inline; filename=\""+cpt.Filename+"\"")

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, stream); err != nil {
		// Response already started, nothing useful to return.
		return
	}
}

// ServeThumbnail streams the capture thumbnail, always JPEG.
func (h *Handler) ServeThumbnail(c *gin.Context) {
	id, ok := uuidParamOrAbort(c, "id")
	if !ok {
		return
	}

	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	stream, cpt, err := h.service.DownloadThumbnail(c.Request.Context(), p, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	c.Header("Content-Type", "image/jpeg")
	c.Header("Content-Disposition", "inline; filename=\""+cpt.Filename+"_thumb.jpg\"")

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, stream); err != nil {
		return
	}
}
