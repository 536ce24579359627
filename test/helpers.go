package test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/yourorg/tablereserve/internal/domain"
	"github.com/yourorg/tablereserve/internal/handler"
	"github.com/yourorg/tablereserve/internal/infrastructure/logger"
	"github.com/yourorg/tablereserve/internal/service"
	"github.com/yourorg/tablereserve/pkg/cache"
	"github.com/yourorg/tablereserve/pkg/config"
)

// memRestaurantRepo is an in-memory RestaurantRepository for integration
// tests, enforcing the same version check as the Postgres implementation.
type memRestaurantRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Restaurant
}

func newMemRestaurantRepo() *memRestaurantRepo {
	return &memRestaurantRepo{byID: map[string]*domain.Restaurant{}}
}

func (m *memRestaurantRepo) GetByID(_ context.Context, id string) (*domain.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.byID[id]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memRestaurantRepo) GetByName(_ context.Context, name string) (*domain.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byID {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRestaurantRepo) List(_ context.Context) ([]*domain.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Restaurant, 0, len(m.byID))
	for _, r := range m.byID {
		out = append(out, r)
	}
	return out, nil
}

func (m *memRestaurantRepo) Save(_ context.Context, r *domain.Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stored, ok := m.byID[r.ID]; ok && stored.Version != r.Version {
		return domain.ErrVersionConflict
	}
	r.Version++
	m.byID[r.ID] = r
	return nil
}

func (m *memRestaurantRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// memHoldRepo is an in-memory HoldRepository with real TTL expiry.
type memHoldRepo struct {
	mu    sync.Mutex
	holds map[string]*domain.Hold
}

func newMemHoldRepo() *memHoldRepo {
	return &memHoldRepo{holds: map[string]*domain.Hold{}}
}

func (m *memHoldRepo) Place(_ context.Context, hold *domain.Hold, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.holds[hold.Key]; ok && existing.ExpiresAt.After(time.Now()) {
		return &domain.OverlapError{Reason: "table is already held for the requested time"}
	}
	hold.ExpiresAt = time.Now().Add(ttl)
	m.holds[hold.Key] = hold
	return nil
}

func (m *memHoldRepo) Get(_ context.Context, key string) (*domain.Hold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holds[key]
	if !ok || !h.ExpiresAt.After(time.Now()) {
		return nil, domain.ErrNotFound
	}
	return h, nil
}

func (m *memHoldRepo) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.holds, key)
	return nil
}

func (m *memHoldRepo) ListByRestaurant(_ context.Context, restaurantID string) ([]*domain.Hold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Hold{}
	for _, h := range m.holds {
		if h.RestaurantID == restaurantID && h.ExpiresAt.After(time.Now()) {
			out = append(out, h)
		}
	}
	return out, nil
}

// memUserRepo is an in-memory UserRepository for auth flows.
type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (m *memUserRepo) Create(u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = domain.NewID()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUserRepo) GetByID(id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GetByEmail(email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GetByUsername(username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) Update(u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.UpdatedAt = time.Now()
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUserRepo) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

func (m *memUserRepo) ListByRestaurant(restaurantID string) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.User{}
	for _, u := range m.byID {
		if u.RestaurantID == restaurantID {
			out = append(out, u)
		}
	}
	return out, nil
}

// TestServerHelper wires the real handlers over in-memory repositories so
// the full HTTP surface can be exercised without Postgres or Redis.
type TestServerHelper struct {
	Server *httptest.Server
	Logger *slog.Logger
	Mux    *http.ServeMux
	Clock  domain.FixedClock
}

func NewTestServer(t *testing.T) *TestServerHelper {
	t.Helper()

	log := logger.NewLogger("debug", "test")
	clk := domain.FixedClock{Instant: time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)}

	restaurants := newMemRestaurantRepo()
	holds := newMemHoldRepo()
	users := newMemUserRepo()

	cfg := &config.Config{
		Environment:         "test",
		JWTSecret:           "integration-secret",
		HoldTTLSeconds:      300,
		RateCacheTTLSeconds: 30,
	}

	engine := domain.NewAvailabilityEngine(clk, log)
	publisher := domain.NopPublisher{}

	reservationService := service.NewReservationService(restaurants, holds, engine, publisher, clk, cache.New(), log, cfg)
	restaurantService := service.NewRestaurantService(restaurants, publisher, clk, log)
	authService := service.NewAuthService(users, cfg.JWTSecret, log)

	mux := http.NewServeMux()
	mux.Handle("POST /api/restaurants", handler.NewRestaurantsHandler(restaurantService, log))
	mux.Handle("GET /api/restaurants", handler.NewRestaurantsHandler(restaurantService, log))
	mux.Handle("GET /api/restaurants/{id}", handler.NewRestaurantHandler(restaurantService, log))
	mux.Handle("DELETE /api/restaurants/{id}", handler.NewRestaurantHandler(restaurantService, log))
	mux.Handle("PUT /api/restaurants/{id}/active", handler.NewRestaurantStatusHandler(restaurantService, log))
	mux.Handle("POST /api/restaurants/{id}/tables", handler.NewTablesHandler(restaurantService, log))
	mux.Handle("PUT /api/restaurants/{id}/tables/{tableId}/availability", handler.NewTableAvailabilityHandler(restaurantService, log))
	mux.Handle("GET /api/restaurants/{id}/availability", handler.NewAvailabilityHandler(reservationService, log))
	mux.Handle("GET /api/restaurants/{id}/rates", handler.NewRatesHandler(reservationService, log))
	mux.Handle("GET /api/restaurants/{id}/accommodate", handler.NewAccommodateHandler(reservationService, log))
	mux.Handle("POST /api/restaurants/{id}/reservations", handler.NewBookHandler(reservationService, log))
	mux.Handle("POST /api/restaurants/{id}/reservations/{slotId}/{action}", handler.NewReservationActionHandler(reservationService, log))
	mux.Handle("POST /api/restaurants/{id}/holds", handler.NewHoldsHandler(reservationService, log))
	mux.Handle("GET /api/restaurants/{id}/holds", handler.NewHoldsHandler(reservationService, log))
	mux.Handle("DELETE /api/holds/{key}", handler.NewReleaseHoldHandler(reservationService, log))

	authHandler := handler.NewAuthHandler(authService, log)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &TestServerHelper{
		Server: server,
		Logger: log,
		Mux:    mux,
		Clock:  clk,
	}
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// AssertStatusCode helper function
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status %d, got %d", expected, resp.StatusCode)
	}
}
