package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourorg/tablereserve/internal/domain"
	"github.com/yourorg/tablereserve/pkg/cache"
	"github.com/yourorg/tablereserve/pkg/config"
)

type memRestaurantRepo struct {
	byID map[string]*domain.Restaurant
	// conflicts counts down, forcing Save to fail with a version conflict
	// while positive.
	conflicts int
	saves     int
}

func newMemRestaurantRepo() *memRestaurantRepo {
	return &memRestaurantRepo{byID: map[string]*domain.Restaurant{}}
}

func (m *memRestaurantRepo) GetByID(_ context.Context, id string) (*domain.Restaurant, error) {
	if r, ok := m.byID[id]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memRestaurantRepo) GetByName(_ context.Context, name string) (*domain.Restaurant, error) {
	for _, r := range m.byID {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRestaurantRepo) List(_ context.Context) ([]*domain.Restaurant, error) {
	out := []*domain.Restaurant{}
	for _, r := range m.byID {
		out = append(out, r)
	}
	return out, nil
}

func (m *memRestaurantRepo) Save(_ context.Context, r *domain.Restaurant) error {
	m.saves++
	if m.conflicts > 0 {
		m.conflicts--
		return domain.ErrVersionConflict
	}
	if r.Version == 0 {
		r.Version = 1
	} else {
		r.Version++
	}
	m.byID[r.ID] = r
	return nil
}

func (m *memRestaurantRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memHoldRepo struct {
	byKey map[string]*domain.Hold
}

func newMemHoldRepo() *memHoldRepo {
	return &memHoldRepo{byKey: map[string]*domain.Hold{}}
}

func (m *memHoldRepo) Place(_ context.Context, hold *domain.Hold, _ time.Duration) error {
	if _, ok := m.byKey[hold.Key]; ok {
		return &domain.OverlapError{Reason: "table is already held for the requested time"}
	}
	m.byKey[hold.Key] = hold
	return nil
}

func (m *memHoldRepo) Get(_ context.Context, key string) (*domain.Hold, error) {
	if h, ok := m.byKey[key]; ok {
		return h, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memHoldRepo) Release(_ context.Context, key string) error {
	delete(m.byKey, key)
	return nil
}

func (m *memHoldRepo) ListByRestaurant(_ context.Context, restaurantID string) ([]*domain.Hold, error) {
	out := []*domain.Hold{}
	for _, h := range m.byKey {
		if h.RestaurantID == restaurantID {
			out = append(out, h)
		}
	}
	return out, nil
}

type memPublisher struct {
	events []domain.Event
}

func (m *memPublisher) Publish(_ context.Context, event domain.Event) error {
	m.events = append(m.events, event)
	return nil
}

func (m *memPublisher) last() *domain.Event {
	if len(m.events) == 0 {
		return nil
	}
	return &m.events[len(m.events)-1]
}

func fixedClock() domain.FixedClock {
	return domain.FixedClock{Instant: time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)}
}

func nextDay() domain.Date {
	return domain.Date{Year: 2026, Month: 6, Day: 11}
}

func seedRestaurant(t *testing.T, repo *memRestaurantRepo, seats ...int) *domain.Restaurant {
	t.Helper()
	r, err := domain.NewRestaurant("Trattoria Nonna", "12 Via Roma", "+39 055 1234", "host@nonna.example", 60,
		domain.OperatingHours{Open: domain.MustTimeOfDay("10:00"), Close: domain.MustTimeOfDay("23:00")})
	if err != nil {
		t.Fatalf("new restaurant: %v", err)
	}
	for _, n := range seats {
		table, err := domain.NewTable(n, domain.LocationIndoor)
		if err != nil {
			t.Fatalf("new table: %v", err)
		}
		if err := r.AddTable(table); err != nil {
			t.Fatalf("add table: %v", err)
		}
	}
	if err := repo.Save(context.Background(), r); err != nil {
		t.Fatalf("seed save: %v", err)
	}
	return r
}

func newTestReservationService(repo *memRestaurantRepo, holds *memHoldRepo, pub *memPublisher) *ReservationService {
	clock := fixedClock()
	engine := domain.NewAvailabilityEngine(clock, nil)
	cfg := &config.Config{HoldTTLSeconds: 300, RateCacheTTLSeconds: 30}
	return NewReservationService(repo, holds, engine, pub, clock, cache.New(), nil, cfg)
}

func TestBookPicksBestTable(t *testing.T) {
	repo := newMemRestaurantRepo()
	pub := &memPublisher{}
	s := newTestReservationService(repo, newMemHoldRepo(), pub)
	r := seedRestaurant(t, repo, 2, 8, 4)

	slot, err := s.Book(context.Background(), BookingRequest{
		RestaurantID: r.ID,
		Date:         nextDay(),
		Start:        domain.MustTimeOfDay("19:00"),
		End:          domain.MustTimeOfDay("21:00"),
		PartySize:    3,
		CustomerName: "Dana",
	})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if slot.Status != domain.StatusAvailable {
		t.Fatalf("expected new slot to be available, got %s", slot.Status)
	}

	table := r.TableByID(slot.TableID)
	if table == nil || table.Seats != 4 {
		t.Fatalf("expected the 4-seat table, got %+v", table)
	}
	if got := table.SlotByID(slot.ID); got == nil {
		t.Fatalf("slot not attached to table")
	}

	event := pub.last()
	if event == nil || event.Type != domain.EventReservationCreated {
		t.Fatalf("expected reservation.created event, got %+v", event)
	}
	if event.SlotID != slot.ID {
		t.Fatalf("event slot id mismatch")
	}
}

func TestBookNoTableFits(t *testing.T) {
	repo := newMemRestaurantRepo()
	s := newTestReservationService(repo, newMemHoldRepo(), &memPublisher{})
	r := seedRestaurant(t, repo, 2, 4)

	_, err := s.Book(context.Background(), BookingRequest{
		RestaurantID: r.ID,
		Date:         nextDay(),
		Start:        domain.MustTimeOfDay("19:00"),
		End:          domain.MustTimeOfDay("21:00"),
		PartySize:    6,
	})
	var capErr *domain.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected capacity error, got %v", err)
	}
}

func TestBookUnknownTable(t *testing.T) {
	repo := newMemRestaurantRepo()
	s := newTestReservationService(repo, newMemHoldRepo(), &memPublisher{})
	r := seedRestaurant(t, repo, 4)

	_, err := s.Book(context.Background(), BookingRequest{
		RestaurantID: r.ID,
		TableID:      "missing",
		Date:         nextDay(),
		Start:        domain.MustTimeOfDay("19:00"),
		End:          domain.MustTimeOfDay("21:00"),
		PartySize:    2,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBookOverlapRejected(t *testing.T) {
	repo := newMemRestaurantRepo()
	s := newTestReservationService(repo, newMemHoldRepo(), &memPublisher{})
	r := seedRestaurant(t, repo, 4)
	tableID := r.Tables()[0].ID

	req := BookingRequest{
		RestaurantID: r.ID,
		TableID:      tableID,
		Date:         nextDay(),
		Start:        domain.MustTimeOfDay("19:00"),
		End:          domain.MustTimeOfDay("21:00"),
		PartySize:    2,
	}
	if _, err := s.Book(context.Background(), req); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	req.Start = domain.MustTimeOfDay("20:00")
	req.End = domain.MustTimeOfDay("22:00")
	_, err := s.Book(context.Background(), req)
	var overlapErr *domain.OverlapError
	if !errors.As(err, &overlapErr) {
		t.Fatalf("expected overlap error, got %v", err)
	}
}

func TestBookRetriesOnVersionConflict(t *testing.T) {
	repo := newMemRestaurantRepo()
	s := newTestReservationService(repo, newMemHoldRepo(), &memPublisher{})
	r := seedRestaurant(t, repo, 4)

	repo.conflicts = 1
	savesBefore := repo.saves
	_, err := s.Book(context.Background(), BookingRequest{
		RestaurantID: r.ID,
		Date:         nextDay(),
		Start:        domain.MustTimeOfDay("19:00"),
		End:          domain.MustTimeOfDay("21:00"),
		PartySize:    2,
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if repo.saves-savesBefore != 2 {
		t.Fatalf("expected one conflicted save plus one retry, got %d saves", repo.saves-savesBefore)
	}
}

func TestConfirmCancelCompleteFlow(t *testing.T) {
	repo := newMemRestaurantRepo()
	pub := &memPublisher{}
	s := newTestReservationService(repo, newMemHoldRepo(), pub)
	r := seedRestaurant(t, repo, 4)

	slot, err := s.Book(context.Background(), BookingRequest{
		RestaurantID: r.ID,
		Date:         nextDay(),
		Start:        domain.MustTimeOfDay("19:00"),
		End:          domain.MustTimeOfDay("21:00"),
		PartySize:    2,
	})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}

	confirmed, err := s.Confirm(context.Background(), r.ID, slot.ID)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if confirmed.Status != domain.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}
	event := pub.last()
	if event.Type != domain.EventReservationStatusChanged ||
		event.Previous != string(domain.StatusAvailable) ||
		event.Current != string(domain.StatusConfirmed) {
		t.Fatalf("unexpected status event: %+v", event)
	}

	completed, err := s.Complete(context.Background(), r.ID, slot.ID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}

	// Completed is terminal.
	if _, err := s.Cancel(context.Background(), r.ID, slot.ID); err == nil {
		t.Fatalf("expected cancel of completed slot to fail")
	}
}

func TestTransitionUnknownSlot(t *testing.T) {
	repo := newMemRestaurantRepo()
	s := newTestReservationService(repo, newMemHoldRepo(), &memPublisher{})
	r := seedRestaurant(t, repo, 4)

	if _, err := s.Confirm(context.Background(), r.ID, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPlaceHoldAndBook(t *testing.T) {
	repo := newMemRestaurantRepo()
	holds := newMemHoldRepo()
	s := newTestReservationService(repo, holds, &memPublisher{})
	r := seedRestaurant(t, repo, 4)
	tableID := r.Tables()[0].ID

	hold, err := s.PlaceHold(context.Background(), HoldRequest{
		RestaurantID: r.ID,
		TableID:      tableID,
		Date:         nextDay(),
		Start:        domain.MustTimeOfDay("19:00"),
		End:          domain.MustTimeOfDay("21:00"),
		PartySize:    2,
	})
	if err != nil {
		t.Fatalf("place hold failed: %v", err)
	}

	// Same range cannot be held twice.
	_, err = s.PlaceHold(context.Background(), HoldRequest{
		RestaurantID: r.ID,
		TableID:      tableID,
		Date:         nextDay(),
		Start:        domain.MustTimeOfDay("19:00"),
		End:          domain.MustTimeOfDay("21:00"),
		PartySize:    2,
	})
	var overlapErr *domain.OverlapError
	if !errors.As(err, &overlapErr) {
		t.Fatalf("expected hold conflict, got %v", err)
	}

	// Booking with the hold consumes it.
	if _, err := s.Book(context.Background(), BookingRequest{
		RestaurantID: r.ID,
		TableID:      tableID,
		Date:         nextDay(),
		Start:        domain.MustTimeOfDay("19:00"),
		End:          domain.MustTimeOfDay("21:00"),
		PartySize:    2,
		HoldKey:      hold.Key,
	}); err != nil {
		t.Fatalf("book with hold failed: %v", err)
	}
	if _, err := holds.Get(context.Background(), hold.Key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected hold to be released after booking")
	}
}

func TestBookWithMismatchedHold(t *testing.T) {
	repo := newMemRestaurantRepo()
	holds := newMemHoldRepo()
	s := newTestReservationService(repo, holds, &memPublisher{})
	r := seedRestaurant(t, repo, 4, 4)
	heldTable := r.Tables()[0].ID
	otherTable := r.Tables()[1].ID

	hold, err := s.PlaceHold(context.Background(), HoldRequest{
		RestaurantID: r.ID,
		TableID:      heldTable,
		Date:         nextDay(),
		Start:        domain.MustTimeOfDay("12:00"),
		End:          domain.MustTimeOfDay("14:00"),
		PartySize:    2,
	})
	if err != nil {
		t.Fatalf("place hold failed: %v", err)
	}

	// A hold only covers its own table + range; booking anything else with
	// the key is rejected and must leave the hold in place.
	_, err = s.Book(context.Background(), BookingRequest{
		RestaurantID: r.ID,
		Date:         nextDay(),
		Start:        domain.MustTimeOfDay("19:00"),
		End:          domain.MustTimeOfDay("21:00"),
		PartySize:    2,
		HoldKey:      hold.Key,
	})
	var valErr *domain.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected validation error for mismatched range, got %v", err)
	}

	_, err = s.Book(context.Background(), BookingRequest{
		RestaurantID: r.ID,
		TableID:      otherTable,
		Date:         nextDay(),
		Start:        domain.MustTimeOfDay("12:00"),
		End:          domain.MustTimeOfDay("14:00"),
		PartySize:    2,
		HoldKey:      hold.Key,
	})
	if !errors.As(err, &valErr) {
		t.Fatalf("expected validation error for mismatched table, got %v", err)
	}

	if _, err := holds.Get(context.Background(), hold.Key); err != nil {
		t.Fatalf("rejected bookings must not release the hold: %v", err)
	}

	// An unpinned booking adopts the held table.
	slot, err := s.Book(context.Background(), BookingRequest{
		RestaurantID: r.ID,
		Date:         nextDay(),
		Start:        domain.MustTimeOfDay("12:00"),
		End:          domain.MustTimeOfDay("14:00"),
		PartySize:    2,
		HoldKey:      hold.Key,
	})
	if err != nil {
		t.Fatalf("book with matching hold failed: %v", err)
	}
	if slot.TableID != heldTable {
		t.Fatalf("expected booking on held table %s, got %s", heldTable, slot.TableID)
	}
	if _, err := holds.Get(context.Background(), hold.Key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected consumed hold to be released")
	}
}

func TestBookWithExpiredHold(t *testing.T) {
	repo := newMemRestaurantRepo()
	s := newTestReservationService(repo, newMemHoldRepo(), &memPublisher{})
	r := seedRestaurant(t, repo, 4)

	_, err := s.Book(context.Background(), BookingRequest{
		RestaurantID: r.ID,
		Date:         nextDay(),
		Start:        domain.MustTimeOfDay("19:00"),
		End:          domain.MustTimeOfDay("21:00"),
		PartySize:    2,
		HoldKey:      "hold:gone",
	})
	var valErr *domain.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected validation error for missing hold, got %v", err)
	}
}

func TestRates(t *testing.T) {
	repo := newMemRestaurantRepo()
	s := newTestReservationService(repo, newMemHoldRepo(), &memPublisher{})
	r := seedRestaurant(t, repo, 4, 4)
	r.Tables()[1].MakeUnavailable()

	rates, err := s.Rates(context.Background(), r.ID, nextDay(), domain.MustTimeOfDay("19:30"))
	if err != nil {
		t.Fatalf("rates failed: %v", err)
	}
	if rates.AvailabilityRate != 0.5 {
		t.Fatalf("expected availability 0.5, got %v", rates.AvailabilityRate)
	}
	if rates.UtilizationRate != 0.0 {
		t.Fatalf("expected utilization 0, got %v", rates.UtilizationRate)
	}
}
