package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nekogravitycat/lab-booking-backend/internal/auth"
	"github.com/nekogravitycat/lab-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/lab-booking-backend/internal/rbac"
	"github.com/nekogravitycat/lab-booking-backend/internal/session"
)

type Handler struct {
	service session.Service
}

func NewHandler(service session.Service) *Handler {
	return &Handler{service: service}
}

func principalOrAbort(c *gin.Context) (rbac.Principal, bool) {
	p, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Envelope{Success: false, Error: "unauthorized"})
	}
	return p, ok
}

func sessionIDOrAbort(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, response.Envelope{Success: false, Error: "invalid session id"})
		return "", false
	}
	return id, true
}

func (h *Handler) List(c *gin.Context) {
	var req ListSessionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Envelope{Success: false, Error: "invalid query parameters"})
		return
	}

	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	filter := session.Filter{
		EquipmentID: req.EquipmentID,
		UserID:      req.UserID,
		Status:      req.Status,
		ActiveOnly:  req.ActiveOnly,
		Page:        req.Page,
		PageSize:    req.PageSize,
	}

	sessions, total, err := h.service.List(c.Request.Context(), p, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		items[i] = NewSessionResponse(s)
	}

	response.OK(c, response.NewPageResponse(items, filter.Page, filter.PageSize, total))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateSessionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Envelope{Success: false, Error: "invalid request body"})
		return
	}

	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	req := session.StartRequest{
		EquipmentID: body.EquipmentID,
		BookingID:   body.BookingID,
		Notes:       body.Notes,
	}

	s, err := h.service.Start(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, NewSessionResponse(s))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := sessionIDOrAbort(c)
	if !ok {
		return
	}

	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), p, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, NewSessionResponse(s))
}

// GetCurrent returns the caller's Active session, or data=null if none.
func (h *Handler) GetCurrent(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	s, err := h.service.GetCurrent(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}

	if s == nil {
		response.OK(c, nil)
		return
	}
	response.OK(c, NewSessionResponse(s))
}

func (h *Handler) End(c *gin.Context) {
	id, ok := sessionIDOrAbort(c)
	if !ok {
		return
	}

	var body EndSessionBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, response.Envelope{Success: false, Error: "invalid request body"})
			return
		}
	}

	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	s, err := h.service.End(c.Request.Context(), p, id, body.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, NewSessionResponse(s))
}
