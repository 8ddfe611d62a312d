package categories

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/rbac"
	"github.com/zippy-delivery/zippy-console/internal/shared"
	"github.com/zippy-delivery/zippy-console/internal/testing/fixture"
	"github.com/zippy-delivery/zippy-console/internal/view"
)

type memoryRepo struct {
	mu      sync.Mutex
	nextID  int64
	items   map[int64]Category
	deletes int
}

func newMemoryRepo(seed ...Category) *memoryRepo {
	repo := &memoryRepo{items: make(map[int64]Category)}
	for _, c := range seed {
		repo.nextID++
		c.ID = repo.nextID
		repo.items[c.ID] = c
	}
	return repo
}

func (m *memoryRepo) List(ctx context.Context, filters ListFilters) ([]Category, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Category, 0, len(m.items))
	for _, c := range m.items {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return Category{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *memoryRepo) Create(ctx context.Context, c Category) (Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Code == c.Code {
			return Category{}, shared.ErrDuplicate
		}
	}
	m.nextID++
	c.ID = m.nextID
	m.items[c.ID] = c
	return c, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, c Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return shared.ErrNotFound
	}
	c.ID = id
	m.items[id] = c
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if _, ok := m.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func newTestRouter(t *testing.T, repo Repository) http.Handler {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	guard := rbac.NewGuard(rbac.DefaultTable(), rbac.ActorSourceFunc(shared.ActorFromContext), nil, nil)
	handler := NewHandler(nil, NewService(repo), engine, shared.NewCSRFManager("test-secret"), guard)
	r := chi.NewRouter()
	r.Route("/categories", handler.MountRoutes)
	return r
}

func serve(t *testing.T, router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestEmployeeCanViewButNotDelete(t *testing.T) {
	sessions := fixture.Sessions(t)
	repo := newMemoryRepo(Category{Code: "VEG", Name: "Vegetables"})
	router := newTestRouter(t, repo)
	employee := fixture.Actor(identity.RoleEmployee)

	page := serve(t, router, fixture.WithActor(t, sessions, httptest.NewRequest(http.MethodGet, "/categories/", nil), employee))
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Vegetables")
	assert.NotContains(t, page.Body.String(), "/categories/1/delete")

	del := serve(t, router, fixture.WithActor(t, sessions, httptest.NewRequest(http.MethodPost, "/categories/1/delete", nil), employee))
	assert.Equal(t, http.StatusSeeOther, del.Code)
	assert.Equal(t, rbac.AccessDeniedPath, del.Header().Get("Location"))
	assert.Zero(t, repo.deletes)
	_, err := repo.Get(context.Background(), 1)
	assert.NoError(t, err)
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	sessions := fixture.Sessions(t)
	router := newTestRouter(t, newMemoryRepo(Category{Code: "VEG", Name: "Vegetables"}))

	rr := serve(t, router, fixture.WithActor(t, sessions, httptest.NewRequest(http.MethodGet, "/categories/", nil), nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, rbac.StaffLoginPath, rr.Header().Get("Location"))
	assert.NotContains(t, rr.Body.String(), "Vegetables")
}

func TestAdminCreatesAndDeletes(t *testing.T) {
	sessions := fixture.Sessions(t)
	repo := newMemoryRepo()
	router := newTestRouter(t, repo)
	admin := fixture.Actor(identity.RoleAdmin)

	created := serve(t, router, fixture.WithActor(t, sessions, formRequest("/categories/", url.Values{"code": {"fruit"}, "name": {"Fruits"}}), admin))
	require.Equal(t, http.StatusSeeOther, created.Code)
	got, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "FRUIT", got.Code)

	deleted := serve(t, router, fixture.WithActor(t, sessions, httptest.NewRequest(http.MethodPost, "/categories/1/delete", nil), admin))
	assert.Equal(t, http.StatusSeeOther, deleted.Code)
	assert.Equal(t, "/categories", deleted.Header().Get("Location"))
	assert.Equal(t, 1, repo.deletes)
}

func TestCreateDuplicateRendersError(t *testing.T) {
	sessions := fixture.Sessions(t)
	repo := newMemoryRepo(Category{Code: "VEG", Name: "Vegetables"})
	router := newTestRouter(t, repo)

	rr := serve(t, router, fixture.WithActor(t, sessions, formRequest("/categories/", url.Values{"code": {"veg"}, "name": {"Greens"}}), fixture.Actor(identity.RoleManager)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "A record with the same code already exists.")
}

func TestServiceRejectsBlankFields(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Category{Code: "  ", Name: "Dairy"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category code is required", shared.UserSafeMessage(err))

	assert.ErrorIs(t, svc.Delete(context.Background(), 0), ErrInvalidID)
}
