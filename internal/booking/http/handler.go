package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nekogravitycat/lab-booking-backend/internal/auth"
	"github.com/nekogravitycat/lab-booking-backend/internal/booking"
	"github.com/nekogravitycat/lab-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/lab-booking-backend/internal/rbac"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

func principalOrAbort(c *gin.Context) (rbac.Principal, bool) {
	p, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Envelope{Success: false, Error: "unauthorized"})
	}
	return p, ok
}

func bookingIDOrAbort(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, response.Envelope{Success: false, Error: "invalid booking id"})
		return "", false
	}
	return id, true
}

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Envelope{Success: false, Error: "invalid query parameters"})
		return
	}

	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	filter := booking.Filter{
		EquipmentID: req.EquipmentID,
		RequesterID: req.UserID,
		Status:      req.Status,
		Page:        req.Page,
		PageSize:    req.PageSize,
	}

	if req.Date != "" {
		date, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			response.Error(c, booking.ErrInvalidDate)
			return
		}
		filter.Date = &date
	}

	bookings, total, err := h.service.List(c.Request.Context(), p, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}

	response.OK(c, response.NewPageResponse(items, filter.Page, filter.PageSize, total))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Envelope{Success: false, Error: "invalid request body"})
		return
	}

	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	date, err := time.Parse(time.DateOnly, body.Date)
	if err != nil {
		response.Error(c, booking.ErrInvalidDate)
		return
	}

	req := booking.CreateRequest{
		EquipmentID: body.EquipmentID,
		Date:        date,
		SlotStart:   body.SlotStart,
		SlotEnd:     body.SlotEnd,
		Title:       body.Title,
		GroupName:   body.GroupName,
		Attendees:   body.Attendees,
	}

	b, err := h.service.Create(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, NewBookingResponse(b))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := bookingIDOrAbort(c)
	if !ok {
		return
	}

	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), p, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, NewBookingResponse(b))
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := bookingIDOrAbort(c)
	if !ok {
		return
	}

	var body UpdateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Envelope{Success: false, Error: "invalid request body"})
		return
	}

	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	req := booking.UpdateRequest{
		Title:     body.Title,
		GroupName: body.GroupName,
		Attendees: body.Attendees,
		SlotStart: body.SlotStart,
		SlotEnd:   body.SlotEnd,
	}

	if body.Date != nil {
		date, err := time.Parse(time.DateOnly, *body.Date)
		if err != nil {
			response.Error(c, booking.ErrInvalidDate)
			return
		}
		req.Date = &date
	}

	b, err := h.service.Update(c.Request.Context(), p, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, NewBookingResponse(b))
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := bookingIDOrAbort(c)
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

	response.Message(c, "booking deleted")
}

func (h *Handler) Approve(c *gin.Context) {
	h.decide(c, h.service.Approve)
}

func (h *Handler) Reject(c *gin.Context) {
	h.decide(c, h.service.Reject)
}

func (h *Handler) decide(c *gin.Context, fn func(ctx context.Context, p rbac.Principal, id string) (*booking.Booking, error)) {
	id, ok := bookingIDOrAbort(c)
	if !ok {
		return
	}

	p, ok := principalOrAbort(c)
	if !ok {
		return
	}

	b, err := fn(c.Request.Context(), p, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, NewBookingResponse(b))
}
