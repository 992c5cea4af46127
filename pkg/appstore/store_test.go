package appstore_test

import (
	"sync"
	"testing"
	"time"

	"github.com/aretw0/rillweb/pkg/appstore"
	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDeactivator struct {
	mu    sync.Mutex
	names []string
}

func (r *recordingDeactivator) InactiveByName(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
}

func TestStore_InitialState(t *testing.T) {
	s := appstore.New()
	st := s.State()
	assert.Nil(t, st.ActiveEntity)
	assert.Nil(t, st.PreviousActiveEntity)
}

func TestStore_FirstUpdateEmitsNoDeactivation(t *testing.T) {
	deact := &recordingDeactivator{}
	s := appstore.New(appstore.WithDeactivator(deact))

	s.SetActiveEntity("orders", domain.EntityTable)

	st := s.State()
	require.NotNil(t, st.ActiveEntity)
	assert.Equal(t, domain.ActiveEntity{Name: "orders", Type: domain.EntityTable}, *st.ActiveEntity)
	assert.Nil(t, st.PreviousActiveEntity)
	assert.Empty(t, deact.names)
}

func TestStore_SecondUpdateShiftsHistory(t *testing.T) {
	deact := &recordingDeactivator{}
	s := appstore.New(appstore.WithDeactivator(deact))

	s.SetActiveEntity("orders", domain.EntityTable)
	s.SetActiveEntity("revenue", domain.EntityModel)

	st := s.State()
	require.NotNil(t, st.ActiveEntity)
	require.NotNil(t, st.PreviousActiveEntity)
	assert.Equal(t, domain.ActiveEntity{Name: "revenue", Type: domain.EntityModel}, *st.ActiveEntity)
	assert.Equal(t, domain.ActiveEntity{Name: "orders", Type: domain.EntityTable}, *st.PreviousActiveEntity)
	assert.Equal(t, []string{"orders"}, deact.names)
	assert.Empty(t, st.ActiveEntity.ID)
}

func TestStore_HistoryDepthIsOne(t *testing.T) {
	deact := &recordingDeactivator{}
	s := appstore.New(appstore.WithDeactivator(deact))

	s.SetActiveEntity("a", domain.EntityTable)
	s.SetActiveEntity("b", domain.EntityTable)
	s.SetActiveEntity("c", domain.EntityModel)

	st := s.State()
	assert.Equal(t, "c", st.ActiveEntity.Name)
	assert.Equal(t, "b", st.PreviousActiveEntity.Name)
	assert.Equal(t, []string{"a", "b"}, deact.names)
}

func TestStore_Subscribe(t *testing.T) {
	s := appstore.New()

	var seen []domain.AppState
	unsubscribe := s.Subscribe(func(st domain.AppState) { seen = append(seen, st) })

	s.SetActiveEntity("orders", domain.EntityTable)
	unsubscribe()
	s.SetActiveEntity("ignored", domain.EntityTable)

	require.Len(t, seen, 2)
	assert.Nil(t, seen[0].ActiveEntity)
	assert.Equal(t, "orders", seen[1].ActiveEntity.Name)
}

func TestStore_IsolatedInstances(t *testing.T) {
	a := appstore.New()
	b := appstore.New()

	a.SetActiveEntity("orders", domain.EntityTable)
	assert.Nil(t, b.State().ActiveEntity)
}

func TestStore_SetActiveEntityFromSubscriber(t *testing.T) {
	deact := &recordingDeactivator{}
	s := appstore.New(appstore.WithDeactivator(deact))

	var seen []string
	s.Subscribe(func(st domain.AppState) {
		if st.ActiveEntity == nil {
			return
		}
		seen = append(seen, st.ActiveEntity.Name)
		if st.ActiveEntity.Name == "a" {
			s.SetActiveEntity("b", domain.EntityModel)
		}
	})

	done := make(chan struct{})
	go func() {
		s.SetActiveEntity("a", domain.EntityTable)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("nested SetActiveEntity did not return")
	}

	st := s.State()
	require.NotNil(t, st.ActiveEntity)
	require.NotNil(t, st.PreviousActiveEntity)
	assert.Equal(t, "b", st.ActiveEntity.Name)
	assert.Equal(t, "a", st.PreviousActiveEntity.Name)
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, []string{"a"}, deact.names)
}
