package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudyy74/frappe-user-admin/internal/models"
	"github.com/cloudyy74/frappe-user-admin/internal/screen"
)

type emptyBackend struct{}

func (emptyBackend) ListUsers(context.Context) ([]models.User, error) { return nil, nil }

func (emptyBackend) CreateUser(context.Context, models.UserInput) (*models.User, error) {
	return nil, errors.New("not implemented")
}

func (emptyBackend) UpdateUser(context.Context, string, models.UserPatch) (*models.User, error) {
	return nil, errors.New("not implemented")
}

func (emptyBackend) DeleteUser(context.Context, string) error { return errors.New("not implemented") }

type gaugeFunc func(int)

func (g gaugeFunc) SetSessions(n int) { g(n) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, max int, gauge Gauge) *Store {
	t.Helper()
	log := testLogger()
	store, err := NewStore(max, func(id string) (*screen.Screen, error) {
		return screen.New(id, emptyBackend{}, log)
	}, gauge, log)
	require.NoError(t, err)
	return store
}

func TestNewStore_Validation(t *testing.T) {
	_, err := NewStore(1, nil, nil, testLogger())
	assert.Error(t, err)
	_, err = NewStore(1, func(string) (*screen.Screen, error) { return nil, nil }, nil, nil)
	assert.Error(t, err)
}

func TestGet_CreatesAndReuses(t *testing.T) {
	store := newTestStore(t, 4, nil)

	first, created, err := store.Get("")
	require.NoError(t, err)
	assert.True(t, created)
	_, err = uuid.Parse(first.SessionID())
	require.NoError(t, err)

	again, created, err := store.Get(first.SessionID())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, first, again)

	other, created, err := store.Get("unknown-id")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, "unknown-id", other.SessionID())
	assert.Equal(t, 2, store.Len())
}

func TestGet_EvictsLeastRecentlyUsed(t *testing.T) {
	var sizes []int
	store := newTestStore(t, 2, gaugeFunc(func(n int) { sizes = append(sizes, n) }))

	a, _, err := store.Get("")
	require.NoError(t, err)
	b, _, err := store.Get("")
	require.NoError(t, err)
	_, _, err = store.Get(a.SessionID())
	require.NoError(t, err)
	_, _, err = store.Get("")
	require.NoError(t, err)

	// b was the least recently used session when the third one started.
	d, created, err := store.Get(b.SessionID())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, []int{1, 2, 2, 2}, sizes)

	again, created, err := store.Get(d.SessionID())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, d, again)
}

func TestGet_FactoryError(t *testing.T) {
	store, err := NewStore(1, func(string) (*screen.Screen, error) {
		return nil, errors.New("boom")
	}, nil, testLogger())
	require.NoError(t, err)

	_, _, err = store.Get("")
	assert.Error(t, err)
}
