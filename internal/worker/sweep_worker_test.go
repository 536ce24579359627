package worker

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yourorg/tablereserve/internal/domain"
)

type memRestaurantRepo struct {
	byID map[string]*domain.Restaurant
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
	if r.Version == 0 {
		r.Version = 1
	} else {
		r.Version++
	}
	m.byID[r.ID] = r
	return nil
}

func (m *memRestaurantRepo) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

type memPublisher struct {
	events []domain.Event
}

func (m *memPublisher) Publish(_ context.Context, event domain.Event) error {
	m.events = append(m.events, event)
	return nil
}

func (m *memPublisher) byType(t domain.EventType) []domain.Event {
	var out []domain.Event
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// The sweep clock sits mid-afternoon so morning slots have elapsed and
// evening slots have not.
func sweepClock() domain.FixedClock {
	return domain.FixedClock{Instant: time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)}
}

func seedSweepRestaurant(t *testing.T, repo *memRestaurantRepo, seats ...int) *domain.Restaurant {
	t.Helper()
	r, err := domain.NewRestaurant("Chez Margaux", "4 Rue Cler", "", "", 40,
		domain.OperatingHours{Open: domain.MustTimeOfDay("08:00"), Close: domain.MustTimeOfDay("23:00")})
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

// confirmedSlot books and confirms a slot directly on the aggregate. The
// validation clock sits a day earlier so past-date fixtures can be created.
func confirmedSlot(t *testing.T, table *domain.Table, date domain.Date, start, end string) *domain.ReservationSlot {
	t.Helper()
	early := domain.FixedClock{Instant: time.Date(2026, 6, 8, 0, 0, 0, 0, time.UTC)}
	slot, err := domain.NewReservationSlot(early, date, domain.MustTimeOfDay(start), domain.MustTimeOfDay(end), 2)
	if err != nil {
		t.Fatalf("new slot: %v", err)
	}
	slot.ID = domain.NewID()
	if err := table.AddSlot(slot); err != nil {
		t.Fatalf("add slot: %v", err)
	}
	if err := slot.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	return slot
}

func TestSweepCompletesElapsedSlots(t *testing.T) {
	repo := newMemRestaurantRepo()
	pub := &memPublisher{}
	w := NewSweepWorker(repo, pub, nil, sweepClock(), nil, time.Minute, 0)

	r := seedSweepRestaurant(t, repo, 4, 4)
	today := domain.Date{Year: 2026, Month: 6, Day: 10}
	yesterday := domain.Date{Year: 2026, Month: 6, Day: 9}

	elapsed := confirmedSlot(t, r.Tables()[0], today, "12:00", "14:00")
	past := confirmedSlot(t, r.Tables()[0], yesterday, "19:00", "21:00")
	upcoming := confirmedSlot(t, r.Tables()[1], today, "19:00", "21:00")

	w.Sweep(context.Background())

	if elapsed.Status != domain.StatusCompleted {
		t.Fatalf("expected elapsed slot completed, got %s", elapsed.Status)
	}
	if past.Status != domain.StatusCompleted {
		t.Fatalf("expected past-date slot completed, got %s", past.Status)
	}
	if upcoming.Status != domain.StatusConfirmed {
		t.Fatalf("expected upcoming slot untouched, got %s", upcoming.Status)
	}

	changes := pub.byType(domain.EventReservationStatusChanged)
	if len(changes) != 2 {
		t.Fatalf("expected 2 status events, got %d", len(changes))
	}
	for _, e := range changes {
		if e.Previous != string(domain.StatusConfirmed) || e.Current != string(domain.StatusCompleted) {
			t.Fatalf("unexpected event transition: %+v", e)
		}
	}
}

func TestSweepBoundaryEndTimeCompletes(t *testing.T) {
	repo := newMemRestaurantRepo()
	pub := &memPublisher{}
	w := NewSweepWorker(repo, pub, nil, sweepClock(), nil, time.Minute, 0)

	r := seedSweepRestaurant(t, repo, 4)
	today := domain.Date{Year: 2026, Month: 6, Day: 10}

	// Ends exactly at the sweep instant: the window is over.
	atBoundary := confirmedSlot(t, r.Tables()[0], today, "13:00", "15:00")

	w.Sweep(context.Background())

	if atBoundary.Status != domain.StatusCompleted {
		t.Fatalf("expected boundary slot completed, got %s", atBoundary.Status)
	}
}

func TestSweepIgnoresNonConfirmedSlots(t *testing.T) {
	repo := newMemRestaurantRepo()
	pub := &memPublisher{}
	w := NewSweepWorker(repo, pub, nil, sweepClock(), nil, time.Minute, 0)

	r := seedSweepRestaurant(t, repo, 4)
	today := domain.Date{Year: 2026, Month: 6, Day: 10}

	early := domain.FixedClock{Instant: time.Date(2026, 6, 8, 0, 0, 0, 0, time.UTC)}
	slot, err := domain.NewReservationSlot(early, today, domain.MustTimeOfDay("12:00"), domain.MustTimeOfDay("14:00"), 2)
	if err != nil {
		t.Fatalf("new slot: %v", err)
	}
	slot.ID = domain.NewID()
	if err := r.Tables()[0].AddSlot(slot); err != nil {
		t.Fatalf("add slot: %v", err)
	}

	w.Sweep(context.Background())

	// Never confirmed, so the sweep leaves it alone.
	if slot.Status != domain.StatusAvailable {
		t.Fatalf("expected available slot untouched, got %s", slot.Status)
	}
	if len(pub.byType(domain.EventReservationStatusChanged)) != 0 {
		t.Fatalf("expected no status events")
	}
}

// sweepSuccessCount reads the success counter from the default registry.
func sweepSuccessCount(t *testing.T) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, family := range families {
		if family.GetName() != "tablereserve_sweep_operations_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "result" && label.GetValue() == "success" {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

// A pass with nothing to complete is still a successful sweep.
func TestSweepRecordsSuccessOnIdlePass(t *testing.T) {
	repo := newMemRestaurantRepo()
	w := NewSweepWorker(repo, &memPublisher{}, nil, sweepClock(), nil, time.Minute, 0)

	r := seedSweepRestaurant(t, repo, 4)
	today := domain.Date{Year: 2026, Month: 6, Day: 10}
	upcoming := confirmedSlot(t, r.Tables()[0], today, "19:00", "21:00")

	before := sweepSuccessCount(t)
	w.Sweep(context.Background())

	if upcoming.Status != domain.StatusConfirmed {
		t.Fatalf("expected upcoming slot untouched, got %s", upcoming.Status)
	}
	if got := sweepSuccessCount(t); got != before+1 {
		t.Fatalf("expected sweep success counter to advance by 1, got %v -> %v", before, got)
	}
}

func TestSweepRaisesCapacityAlert(t *testing.T) {
	repo := newMemRestaurantRepo()
	pub := &memPublisher{}
	w := NewSweepWorker(repo, pub, nil, sweepClock(), nil, time.Minute, 0.9)

	r := seedSweepRestaurant(t, repo, 4)
	today := domain.Date{Year: 2026, Month: 6, Day: 10}

	// Occupies the only table across the sweep instant: utilization 1.0.
	confirmedSlot(t, r.Tables()[0], today, "14:00", "16:00")

	w.Sweep(context.Background())

	alerts := pub.byType(domain.EventCapacityThresholdReached)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 capacity alert, got %d", len(alerts))
	}
	if alerts[0].RestaurantID != r.ID {
		t.Fatalf("alert for wrong restaurant: %+v", alerts[0])
	}
}
