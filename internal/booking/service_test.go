package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// fakeStore is an in-memory Store.  A single mutex stands in for the
// per-room row lock, which is stricter than MySQL but preserves the
// property under test: admission sequences never interleave.
type fakeStore struct {
	mu           sync.Mutex
	rooms        map[uint64]*model.Room
	reservations map[uint64]*model.Reservation
	nextID       uint64
	setCalls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:        map[uint64]*model.Room{},
		reservations: map[uint64]*model.Reservation{},
	}
}

func (f *fakeStore) addRoom(id uint64, capacity uint32) {
	f.rooms[id] = &model.Room{ID: id, Name: "room", Capacity: capacity, Available: true}
}

func (f *fakeStore) addReservation(res model.Reservation) uint64 {
	f.nextID++
	res.ID = f.nextID
	f.reservations[res.ID] = &res
	return res.ID
}

func (f *fakeStore) Room(ctx context.Context, id uint64) (model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return model.Room{}, ErrRoomNotFound
	}
	return *r, nil
}

func (f *fakeStore) SetRoomAvailable(ctx context.Context, id uint64, available bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}
	f.setCalls++
	r.Available = available
	return nil
}

func (f *fakeStore) Reservation(ctx context.Context, id uint64) (model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return model.Reservation{}, ErrReservationNotFound
	}
	return *res, nil
}

func (f *fakeStore) CountConfirmed(ctx context.Context, roomID uint64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, res := range f.reservations {
		if res.RoomID == roomID && res.Status == StatusConfirmed {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListOverlapping(ctx context.Context, roomID uint64, from, to time.Time, statuses []string) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	window := TimeWindow{Start: from, End: to}
	var out []model.Reservation
	for _, res := range f.reservations {
		if res.RoomID != roomID || !statusIn(res.Status, statuses) {
			continue
		}
		if w, ok := windowOf(*res); ok && w.Overlaps(window) {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (f *fakeStore) WithRoomLock(ctx context.Context, roomID uint64, fn func(tx Tx, capacity uint32) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	return fn(&fakeTx{store: f}, r.Capacity)
}

func statusIn(s string, set []string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

type fakeTx struct{ store *fakeStore }

func (t *fakeTx) CountOverlapping(roomID uint64, w TimeWindow, statuses []string) (int, error) {
	n := 0
	for _, res := range t.store.reservations {
		if res.RoomID != roomID || !statusIn(res.Status, statuses) {
			continue
		}
		if rw, ok := windowOf(*res); ok && rw.Overlaps(w) {
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) Reservation(id uint64) (model.Reservation, error) {
	res, ok := t.store.reservations[id]
	if !ok {
		return model.Reservation{}, ErrReservationNotFound
	}
	return *res, nil
}

func (t *fakeTx) InsertReservation(res *model.Reservation) error {
	t.store.nextID++
	res.ID = t.store.nextID
	cp := *res
	t.store.reservations[res.ID] = &cp
	return nil
}

func (t *fakeTx) UpdateStatus(id uint64, status string) error {
	res, ok := t.store.reservations[id]
	if !ok {
		return ErrReservationNotFound
	}
	res.Status = status
	return nil
}

func newTestService(store *fakeStore) *Service {
	return NewService(store, nil)
}

func TestCreateWithWindowAutoConfirms(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1, 2)
	svc := newTestService(store)

	w := mustWindow(t, "2026-09-01", "09:00", "10:00")
	res, err := svc.Create(context.Background(), 1, "acme", &w)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Status != StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", res.Status)
	}
	if res.ID == 0 {
		t.Error("ID not assigned")
	}
}

func TestCreateUntimedIsPending(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1, 2)
	svc := newTestService(store)

	res, err := svc.Create(context.Background(), 1, "acme", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Status != StatusPending {
		t.Errorf("status = %s, want PENDING", res.Status)
	}
}

func TestCreateUnknownRoom(t *testing.T) {
	svc := newTestService(newFakeStore())
	w := mustWindow(t, "2026-09-01", "09:00", "10:00")
	if _, err := svc.Create(context.Background(), 99, "acme", &w); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestCreateRejectsAtCapacity(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1, 1)
	svc := newTestService(store)
	ctx := context.Background()

	w := mustWindow(t, "2026-09-01", "09:00", "10:00")
	if _, err := svc.Create(ctx, 1, "first", &w); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	// Same interval is full.
	if _, err := svc.Create(ctx, 1, "second", &w); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	if n, _ := store.CountConfirmed(ctx, 1); n != 1 {
		t.Errorf("confirmed count = %d, want 1", n)
	}

	// A touching interval is not an overlap and is admitted.
	next := mustWindow(t, "2026-09-01", "10:00", "11:00")
	if _, err := svc.Create(ctx, 1, "third", &next); err != nil {
		t.Errorf("adjacent Create: %v", err)
	}
}

func TestApproveConfirmsPending(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1, 1)
	id := store.addReservation(model.Reservation{RoomID: 1, Client: "acme", Status: StatusPending})
	svc := newTestService(store)

	res, err := svc.Approve(context.Background(), id)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if res.Status != StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", res.Status)
	}
}

func TestApproveConflictLeavesPending(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1, 1)
	svc := newTestService(store)
	ctx := context.Background()

	w := mustWindow(t, "2026-09-01", "09:00", "10:00")
	if _, err := svc.Create(ctx, 1, "winner", &w); err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := store.addReservation(model.Reservation{
		RoomID: 1, Client: "loser", StartAt: &w.Start, EndAt: &w.End, Status: StatusPending,
	})

	if _, err := svc.Approve(ctx, id); !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("err = %v, want ErrSlotConflict", err)
	}
	got, _ := store.Reservation(ctx, id)
	if got.Status != StatusPending {
		t.Errorf("status after failed approve = %s, want PENDING", got.Status)
	}
}

func TestApproveTransitions(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1, 1)
	confirmed := store.addReservation(model.Reservation{RoomID: 1, Client: "a", Status: StatusConfirmed})
	cancelled := store.addReservation(model.Reservation{RoomID: 1, Client: "b", Status: StatusCancelled})
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, confirmed); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("approve CONFIRMED: err = %v, want ErrInvalidTransition", err)
	}
	if _, err := svc.Approve(ctx, cancelled); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("approve CANCELLED: err = %v, want ErrReservationNotFound", err)
	}
	if _, err := svc.Approve(ctx, 999); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("approve unknown: err = %v, want ErrReservationNotFound", err)
	}
}

func TestCancelBeforeStart(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1, 1)
	svc := newTestService(store)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	w := mustWindow(t, "2026-09-01", "09:00", "10:00")
	res, err := svc.Create(ctx, 1, "acme", &w)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cancelled, err := svc.Cancel(ctx, res.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}
	// Cancelling again behaves as not found.
	if _, err := svc.Cancel(ctx, res.ID); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("second cancel: err = %v, want ErrReservationNotFound", err)
	}
}

func TestCancelAfterStart(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1, 1)
	svc := newTestService(store)
	ctx := context.Background()

	w := mustWindow(t, "2026-09-01", "09:00", "10:00")
	res, err := svc.Create(ctx, 1, "acme", &w)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, at := range []string{"09:00", "09:30", "12:00"} {
		svc.now = func() time.Time {
			return mustWindow(t, "2026-09-01", at, "23:59").Start
		}
		if _, err := svc.Cancel(ctx, res.ID); !errors.Is(err, ErrAlreadyStarted) {
			t.Errorf("cancel at %s: err = %v, want ErrAlreadyStarted", at, err)
		}
	}
	got, _ := store.Reservation(ctx, res.ID)
	if got.Status != StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", got.Status)
	}
}

func TestCancelUntimedAlwaysAllowed(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1, 1)
	id := store.addReservation(model.Reservation{RoomID: 1, Client: "acme", Status: StatusPending})
	svc := newTestService(store)

	res, err := svc.Cancel(context.Background(), id)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if res.Status != StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", res.Status)
	}
}

func TestRejectOverridesConfirmed(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1, 1)
	id := store.addReservation(model.Reservation{RoomID: 1, Client: "acme", Status: StatusConfirmed})
	svc := newTestService(store)

	res, err := svc.Reject(context.Background(), id)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if res.Status != StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", res.Status)
	}
}

func TestAvailabilityFlagFollowsConfirmedCount(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1, 1)
	svc := newTestService(store)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	w := mustWindow(t, "2026-09-01", "09:00", "10:00")
	res, err := svc.Create(ctx, 1, "acme", &w)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	room, _ := store.Room(ctx, 1)
	if room.Available {
		t.Error("room still flagged available at capacity")
	}
	writes := store.setCalls

	// An unrelated failed admission changes nothing and writes nothing.
	if _, err := svc.Create(ctx, 1, "other", &w); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	if store.setCalls != writes {
		t.Errorf("flag rewritten without a value change (%d -> %d writes)", writes, store.setCalls)
	}

	if _, err := svc.Cancel(ctx, res.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	room, _ = store.Room(ctx, 1)
	if !room.Available {
		t.Error("room not flagged available after cancellation")
	}
}

func TestConcurrentCreatesRespectCapacity(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1, 3)
	svc := newTestService(store)
	ctx := context.Background()

	w := mustWindow(t, "2026-09-01", "09:00", "10:00")
	const attempts = 10
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, 1, "client", &w)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	admitted, rejected := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, ErrCapacityExceeded):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if admitted != 3 || rejected != attempts-3 {
		t.Errorf("admitted=%d rejected=%d, want 3/%d", admitted, rejected, attempts-3)
	}
	if n, _ := store.CountConfirmed(ctx, 1); n != 3 {
		t.Errorf("confirmed count = %d, want 3", n)
	}
}

func TestServiceAvailabilityGrid(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1, 1)
	svc := newTestService(store)
	ctx := context.Background()

	w := mustWindow(t, "2026-09-01", "09:00", "10:00")
	if _, err := svc.Create(ctx, 1, "acme", &w); err != nil {
		t.Fatalf("Create: %v", err)
	}

	grid, err := svc.Availability(ctx, 1, "2026-09-01")
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if len(grid.Slots) != 24 {
		t.Fatalf("slot count = %d, want 24", len(grid.Slots))
	}
	for _, s := range grid.Slots {
		booked := s.Start == "09:00" || s.Start == "09:30"
		if s.Available == booked {
			t.Errorf("slot %s available=%v, want %v", s.Start, s.Available, !booked)
		}
	}

	if _, err := svc.Availability(ctx, 1, "not-a-date"); !errors.Is(err, ErrInvalidTimeWindow) {
		t.Errorf("bad date: err = %v, want ErrInvalidTimeWindow", err)
	}
	if _, err := svc.Availability(ctx, 99, "2026-09-01"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("unknown room: err = %v, want ErrRoomNotFound", err)
	}
}
