package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/booking"
	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/queue"
)

// memStore is a minimal in-memory booking.Store for handler tests.
type memStore struct {
	mu           sync.Mutex
	rooms        map[uint64]*model.Room
	reservations map[uint64]*model.Reservation
	nextID       uint64
}

func newMemStore() *memStore {
	return &memStore{rooms: map[uint64]*model.Room{}, reservations: map[uint64]*model.Reservation{}}
}

func (m *memStore) addRoom(id uint64, capacity uint32) {
	m.rooms[id] = &model.Room{ID: id, Name: "room", Capacity: capacity, Available: true}
}

func (m *memStore) addReservation(res model.Reservation) uint64 {
	m.nextID++
	res.ID = m.nextID
	m.reservations[res.ID] = &res
	return res.ID
}

func (m *memStore) Room(ctx context.Context, id uint64) (model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return model.Room{}, booking.ErrRoomNotFound
	}
	return *r, nil
}

func (m *memStore) SetRoomAvailable(ctx context.Context, id uint64, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[id]; ok {
		r.Available = available
	}
	return nil
}

func (m *memStore) Reservation(ctx context.Context, id uint64) (model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.reservations[id]
	if !ok {
		return model.Reservation{}, booking.ErrReservationNotFound
	}
	return *res, nil
}

func (m *memStore) CountConfirmed(ctx context.Context, roomID uint64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, res := range m.reservations {
		if res.RoomID == roomID && res.Status == booking.StatusConfirmed {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListOverlapping(ctx context.Context, roomID uint64, from, to time.Time, statuses []string) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, res := range m.reservations {
		if res.RoomID != roomID || res.StartAt == nil || res.EndAt == nil {
			continue
		}
		if !hasStatus(res.Status, statuses) {
			continue
		}
		if res.StartAt.Before(to) && res.EndAt.After(from) {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (m *memStore) WithRoomLock(ctx context.Context, roomID uint64, fn func(tx booking.Tx, capacity uint32) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return booking.ErrRoomNotFound
	}
	return fn(&memTx{store: m}, r.Capacity)
}

func hasStatus(s string, set []string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

type memTx struct{ store *memStore }

func (t *memTx) CountOverlapping(roomID uint64, w booking.TimeWindow, statuses []string) (int, error) {
	n := 0
	for _, res := range t.store.reservations {
		if res.RoomID != roomID || res.StartAt == nil || res.EndAt == nil {
			continue
		}
		if !hasStatus(res.Status, statuses) {
			continue
		}
		if res.StartAt.Before(w.End) && res.EndAt.After(w.Start) {
			n++
		}
	}
	return n, nil
}

func (t *memTx) Reservation(id uint64) (model.Reservation, error) {
	res, ok := t.store.reservations[id]
	if !ok {
		return model.Reservation{}, booking.ErrReservationNotFound
	}
	return *res, nil
}

func (t *memTx) InsertReservation(res *model.Reservation) error {
	t.store.nextID++
	res.ID = t.store.nextID
	cp := *res
	t.store.reservations[res.ID] = &cp
	return nil
}

func (t *memTx) UpdateStatus(id uint64, status string) error {
	if res, ok := t.store.reservations[id]; ok {
		res.Status = status
		return nil
	}
	return booking.ErrReservationNotFound
}

func window(t *testing.T, date, start, end string) (time.Time, time.Time) {
	t.Helper()
	w, err := booking.NewTimeWindow(date, start, end)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	return w.Start, w.End
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newReservationEnv(store *memStore) (*echo.Echo, *ReservationHandler) {
	svc := booking.NewService(store, nil)
	h := NewReservationHandler(svc, nil)
	e := echo.New()
	e.POST("/v1/reservations", h.Create)
	e.POST("/v1/reservations/:id/cancel", h.Cancel)
	e.POST("/v1/reservations/:id/approve", h.Approve)
	e.POST("/v1/reservations/:id/reject", h.Reject)
	return e, h
}

func TestCreateReservationConfirmed(t *testing.T) {
	store := newMemStore()
	store.addRoom(1, 2)
	e, h := newReservationEnv(store)

	var published []queue.ReservationEvent
	h.Events = func(ctx context.Context, ev queue.ReservationEvent) error {
		published = append(published, ev)
		return nil
	}

	rec := doJSON(e, http.MethodPost, "/v1/reservations",
		`{"room_id":1,"client":"acme","date":"2030-09-01","start_time":"09:00","end_time":"10:00"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body)
	}
	var resp struct {
		Accepted      bool   `json:"accepted"`
		ReservationID uint64 `json:"reservation_id"`
		Status        string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Accepted || resp.ReservationID == 0 || resp.Status != booking.StatusConfirmed {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(published) != 1 || published[0].Type != queue.EventReservationConfirmed {
		t.Errorf("published events = %+v, want one reservation.confirmed", published)
	}
}

func TestCreateReservationValidation(t *testing.T) {
	store := newMemStore()
	store.addRoom(1, 2)
	e, _ := newReservationEnv(store)

	cases := []struct {
		name string
		body string
	}{
		{"missing client", `{"room_id":1}`},
		{"missing room", `{"client":"acme"}`},
		{"partial window", `{"room_id":1,"client":"acme","date":"2030-09-01"}`},
		{"bad time", `{"room_id":1,"client":"acme","date":"2030-09-01","start_time":"9am","end_time":"10:00"}`},
		{"inverted window", `{"room_id":1,"client":"acme","date":"2030-09-01","start_time":"10:00","end_time":"09:00"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/v1/reservations", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body)
			}
		})
	}
}

func TestCreateReservationCapacityExceeded(t *testing.T) {
	store := newMemStore()
	store.addRoom(1, 1)
	start, end := window(t, "2030-09-01", "09:00", "10:00")
	store.addReservation(model.Reservation{
		RoomID: 1, Client: "winner", StartAt: &start, EndAt: &end, Status: booking.StatusConfirmed,
	})
	e, _ := newReservationEnv(store)

	rec := doJSON(e, http.MethodPost, "/v1/reservations",
		`{"room_id":1,"client":"loser","date":"2030-09-01","start_time":"09:30","end_time":"10:30"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (body %s)", rec.Code, rec.Body)
	}
	var resp struct {
		Accepted bool   `json:"accepted"`
		Reason   string `json:"reason"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Accepted || resp.Reason == "" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestCreateReservationUnknownRoom(t *testing.T) {
	e, _ := newReservationEnv(newMemStore())
	rec := doJSON(e, http.MethodPost, "/v1/reservations",
		`{"room_id":42,"client":"acme","date":"2030-09-01","start_time":"09:00","end_time":"10:00"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 (body %s)", rec.Code, rec.Body)
	}
}

func TestCancelReservationStatuses(t *testing.T) {
	store := newMemStore()
	store.addRoom(1, 1)

	pastStart, pastEnd := window(t, "2020-01-01", "09:00", "10:00")
	started := store.addReservation(model.Reservation{
		RoomID: 1, Client: "acme", StartAt: &pastStart, EndAt: &pastEnd, Status: booking.StatusConfirmed,
	})
	futureStart, futureEnd := window(t, "2030-09-01", "09:00", "10:00")
	upcoming := store.addReservation(model.Reservation{
		RoomID: 1, Client: "acme", StartAt: &futureStart, EndAt: &futureEnd, Status: booking.StatusConfirmed,
	})
	e, _ := newReservationEnv(store)

	rec := doJSON(e, http.MethodPost, "/v1/reservations/"+strconv.FormatUint(started, 10)+"/cancel", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("cancel started: status = %d, want 409 (body %s)", rec.Code, rec.Body)
	}

	rec = doJSON(e, http.MethodPost, "/v1/reservations/"+strconv.FormatUint(upcoming, 10)+"/cancel", "")
	if rec.Code != http.StatusOK {
		t.Errorf("cancel upcoming: status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}

	rec = doJSON(e, http.MethodPost, "/v1/reservations/999/cancel", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("cancel unknown: status = %d, want 404 (body %s)", rec.Code, rec.Body)
	}

	rec = doJSON(e, http.MethodPost, "/v1/reservations/abc/cancel", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("cancel bad id: status = %d, want 400 (body %s)", rec.Code, rec.Body)
	}
}

func TestApproveAndRejectMapping(t *testing.T) {
	store := newMemStore()
	store.addRoom(1, 1)

	start, end := window(t, "2030-09-01", "09:00", "10:00")
	store.addReservation(model.Reservation{
		RoomID: 1, Client: "winner", StartAt: &start, EndAt: &end, Status: booking.StatusConfirmed,
	})
	contested := store.addReservation(model.Reservation{
		RoomID: 1, Client: "loser", StartAt: &start, EndAt: &end, Status: booking.StatusPending,
	})
	pending := store.addReservation(model.Reservation{RoomID: 1, Client: "acme", Status: booking.StatusPending})
	e, _ := newReservationEnv(store)

	rec := doJSON(e, http.MethodPost, "/v1/reservations/"+strconv.FormatUint(contested, 10)+"/approve", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("approve contested: status = %d, want 409 (body %s)", rec.Code, rec.Body)
	}

	rec = doJSON(e, http.MethodPost, "/v1/reservations/"+strconv.FormatUint(pending, 10)+"/approve", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("approve pending: status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
	var resp struct {
		ID     uint64 `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.ID != pending || resp.Status != booking.StatusConfirmed {
		t.Errorf("unexpected response: %+v", resp)
	}

	rec = doJSON(e, http.MethodPost, "/v1/reservations/"+strconv.FormatUint(pending, 10)+"/reject", "")
	if rec.Code != http.StatusOK {
		t.Errorf("reject confirmed: status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
}

func TestRoomAvailabilityEndpoint(t *testing.T) {
	store := newMemStore()
	store.addRoom(1, 1)
	start, end := window(t, "2030-09-01", "09:00", "10:00")
	store.addReservation(model.Reservation{
		RoomID: 1, Client: "acme", StartAt: &start, EndAt: &end, Status: booking.StatusConfirmed,
	})

	svc := booking.NewService(store, nil)
	h := &RoomHandler{Booking: svc}
	e := echo.New()
	e.GET("/v1/rooms/:id/availability", h.Availability)

	rec := doJSON(e, http.MethodGet, "/v1/rooms/1/availability?date=2030-09-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
	var grid struct {
		Date  string `json:"date"`
		Slots []struct {
			Start     string `json:"start"`
			End       string `json:"end"`
			Available bool   `json:"available"`
		} `json:"slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &grid); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if grid.Date != "2030-09-01" || len(grid.Slots) != 24 {
		t.Fatalf("grid date=%s slots=%d, want 2030-09-01 with 24 slots", grid.Date, len(grid.Slots))
	}
	for _, s := range grid.Slots {
		booked := s.Start == "09:00" || s.Start == "09:30"
		if s.Available == booked {
			t.Errorf("slot %s available=%v, want %v", s.Start, s.Available, !booked)
		}
	}

	rec = doJSON(e, http.MethodGet, "/v1/rooms/1/availability", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing date: status = %d, want 400", rec.Code)
	}
	rec = doJSON(e, http.MethodGet, "/v1/rooms/1/availability?date=bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: status = %d, want 400", rec.Code)
	}
	rec = doJSON(e, http.MethodGet, "/v1/rooms/42/availability?date=2030-09-01", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown room: status = %d, want 404", rec.Code)
	}
}
