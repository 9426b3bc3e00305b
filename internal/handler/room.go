package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/booking"
	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/repository"
)

// RoomHandler exposes room listings, administration and the per-day
// availability grid.  The grid is served by the booking engine; CRUD
// goes straight to the repository.  The derived `available` flag is
// owned by the booking engine and is read-only here.
type RoomHandler struct {
	Rooms   *repository.RoomRepo
	Booking *booking.Service
}

// NewRoomHandler constructs a RoomHandler.  All dependencies must be
// non-nil.
func NewRoomHandler(rooms *repository.RoomRepo, svc *booking.Service) *RoomHandler {
	if rooms == nil || svc == nil {
		panic("nil dependency passed to NewRoomHandler")
	}
	return &RoomHandler{Rooms: rooms, Booking: svc}
}

type roomDTO struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	Location  *string `json:"location,omitempty"`
	Capacity  uint32  `json:"capacity"`
	Available bool    `json:"available"`
	ImageURL  *string `json:"image_url,omitempty"`
}

func toRoomDTO(room model.Room) roomDTO {
	return roomDTO{
		ID:        room.ID,
		Name:      room.Name,
		Location:  room.Location,
		Capacity:  room.Capacity,
		Available: room.Available,
		ImageURL:  room.ImageURL,
	}
}

type roomReq struct {
	Name     string  `json:"name"`
	Location *string `json:"location"`
	Capacity uint32  `json:"capacity"`
	ImageURL *string `json:"image_url"`
}

// List handles GET /v1/rooms.
func (h *RoomHandler) List(c echo.Context) error {
	rooms, err := h.Rooms.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rooms"})
	}
	dtos := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		dtos = append(dtos, toRoomDTO(room))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": dtos, "count": len(dtos)})
}

// Get handles GET /v1/rooms/:id.
func (h *RoomHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toRoomDTO(room)})
}

// Availability handles GET /v1/rooms/:id/availability?date=YYYY-MM-DD.
// It returns the 08:00 to 20:00 grid of 30-minute slots, each flagged
// available while confirmed overlaps stay below capacity.
func (h *RoomHandler) Availability(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	date := strings.TrimSpace(c.QueryParam("date"))
	if date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date query parameter is required"})
	}
	grid, err := h.Booking.Availability(c.Request().Context(), id, date)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidTimeWindow):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date format (expected YYYY-MM-DD)"})
		case errors.Is(err, booking.ErrRoomNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute availability"})
	}
	return c.JSON(http.StatusOK, grid)
}

// Create handles POST /v1/rooms (admin).
func (h *RoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a positive capacity are required"})
	}
	room := model.Room{
		Name:      req.Name,
		Location:  req.Location,
		Capacity:  req.Capacity,
		Available: true,
		ImageURL:  req.ImageURL,
	}
	if err := h.Rooms.Create(c.Request().Context(), &room); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create room"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toRoomDTO(room)})
}

// Update handles PUT /v1/rooms/:id (admin).  Capacity changes take
// effect on the next admission decision; existing confirmed
// reservations are left untouched.
func (h *RoomHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a positive capacity are required"})
	}
	room := model.Room{
		ID:       id,
		Name:     req.Name,
		Location: req.Location,
		Capacity: req.Capacity,
		ImageURL: req.ImageURL,
	}
	if err := h.Rooms.Update(c.Request().Context(), room); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update room"})
	}
	updated, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toRoomDTO(updated)})
}

// Delete handles DELETE /v1/rooms/:id (admin).  Reservations of the
// room are removed by the FK cascade.
func (h *RoomHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	if err := h.Rooms.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete room"})
	}
	return c.NoContent(http.StatusNoContent)
}
