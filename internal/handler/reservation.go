package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/booking"
	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/queue"
	"github.com/iliyamo/room-reservation/internal/repository"
)

// ReservationHandler exposes reservation admission and lifecycle
// endpoints.  Admission decisions and status transitions go through
// the booking engine; plain listings go straight to the repository.
// Events is an optional best-effort sink for confirmed/cancelled
// notifications; publish failures never affect the response.
type ReservationHandler struct {
	Booking      *booking.Service
	Reservations *repository.ReservationRepo
	Events       func(ctx context.Context, ev queue.ReservationEvent) error
}

// NewReservationHandler constructs a ReservationHandler.  Booking
// must be non-nil; Reservations may be nil only when listing is not
// routed.
func NewReservationHandler(svc *booking.Service, reservations *repository.ReservationRepo) *ReservationHandler {
	if svc == nil {
		panic("nil booking service passed to NewReservationHandler")
	}
	return &ReservationHandler{Booking: svc, Reservations: reservations}
}

type createReservationReq struct {
	RoomID    uint64 `json:"room_id"`
	Client    string `json:"client"`
	Date      string `json:"date"`       // YYYY-MM-DD
	StartTime string `json:"start_time"` // HH:MM
	EndTime   string `json:"end_time"`   // HH:MM
}

// reservationDTO is the wire shape for listings.  Untimed rows fall
// back to the creation timestamp for the date column so clients never
// render an empty date.
type reservationDTO struct {
	ID        uint64 `json:"id"`
	RoomID    uint64 `json:"room_id"`
	Client    string `json:"client"`
	Date      string `json:"date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func toReservationDTO(res model.Reservation) reservationDTO {
	dto := reservationDTO{
		ID:        res.ID,
		RoomID:    res.RoomID,
		Client:    res.Client,
		Status:    res.Status,
		CreatedAt: res.CreatedAt.UTC().Format(time.RFC3339),
	}
	if res.StartAt != nil {
		dto.Date = res.StartAt.UTC().Format("2006-01-02")
		dto.StartTime = res.StartAt.UTC().Format("15:04")
	} else {
		dto.Date = res.CreatedAt.UTC().Format("2006-01-02")
	}
	if res.EndAt != nil {
		dto.EndTime = res.EndAt.UTC().Format("15:04")
	}
	return dto
}

// Create handles POST /v1/reservations.  A request with a full
// date/start/end triple is admission-checked and auto-confirmed; a
// request without any of them creates a PENDING reservation awaiting
// approval.  Partial time input is rejected.  Capacity exhaustion
// answers 409 with accepted=false.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"accepted": false, "reason": "invalid request body"})
	}
	req.Client = strings.TrimSpace(req.Client)
	if req.RoomID == 0 || req.Client == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"accepted": false, "reason": "room_id and client are required"})
	}

	var window *booking.TimeWindow
	hasAny := req.Date != "" || req.StartTime != "" || req.EndTime != ""
	hasAll := req.Date != "" && req.StartTime != "" && req.EndTime != ""
	if hasAny {
		if !hasAll {
			return c.JSON(http.StatusBadRequest, echo.Map{"accepted": false, "reason": "date, start_time and end_time must be supplied together"})
		}
		w, err := booking.NewTimeWindow(req.Date, req.StartTime, req.EndTime)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"accepted": false, "reason": "invalid date/time format"})
		}
		window = &w
	}

	res, err := h.Booking.Create(c.Request().Context(), req.RoomID, req.Client, window)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrRoomNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"accepted": false, "reason": "room not found"})
		case errors.Is(err, booking.ErrCapacityExceeded):
			return c.JSON(http.StatusConflict, echo.Map{"accepted": false, "reason": "room not available in requested interval"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"accepted": false, "reason": "failed to create reservation"})
	}
	if res.Status == booking.StatusConfirmed {
		h.publish(c, queue.EventReservationConfirmed, res)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"accepted":       true,
		"reservation_id": res.ID,
		"status":         res.Status,
	})
}

// List handles GET /v1/reservations with optional client and status
// filters.  Unknown status values are rejected rather than silently
// returning everything.
func (h *ReservationHandler) List(c echo.Context) error {
	client := strings.TrimSpace(c.QueryParam("client"))
	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	if status != "" && !booking.ValidStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	items, err := h.Reservations.List(c.Request().Context(), client, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	dtos := make([]reservationDTO, 0, len(items))
	for _, res := range items {
		dtos = append(dtos, toReservationDTO(res))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": dtos, "count": len(dtos)})
}

// Approve handles POST /v1/reservations/:id/approve (admin).  The
// overlap check is re-run by the engine; a reservation confirmed in
// the meantime surfaces as 409 and the target stays PENDING.
func (h *ReservationHandler) Approve(c echo.Context) error {
	return h.transition(c, h.Booking.Approve, queue.EventReservationConfirmed)
}

// Reject handles POST /v1/reservations/:id/reject (admin).
func (h *ReservationHandler) Reject(c echo.Context) error {
	return h.transition(c, h.Booking.Reject, queue.EventReservationCancelled)
}

// Cancel handles POST /v1/reservations/:id/cancel.  Windows that have
// begun or elapsed cannot be cancelled.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.Booking.Cancel, queue.EventReservationCancelled)
}

func (h *ReservationHandler) transition(c echo.Context, op func(ctx context.Context, id uint64) (model.Reservation, error), eventType string) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := op(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, booking.ErrSlotConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "room already booked in the requested interval"})
		case errors.Is(err, booking.ErrAlreadyStarted):
			return c.JSON(http.StatusConflict, echo.Map{"error": "cannot cancel a reservation that has already started"})
		case errors.Is(err, booking.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update reservation"})
	}
	h.publish(c, eventType, res)
	return c.JSON(http.StatusOK, echo.Map{"id": res.ID, "status": res.Status})
}

// publish forwards a reservation event to the configured sink.  The
// sink already logs its own failures; nothing here may fail the
// request.
func (h *ReservationHandler) publish(c echo.Context, eventType string, res model.Reservation) {
	if h.Events == nil {
		return
	}
	_ = h.Events(c.Request().Context(), queue.NewReservationEvent(eventType, res))
}
