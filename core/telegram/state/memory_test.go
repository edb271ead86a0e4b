package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct{ n int }

func (s step) Name() string { return "step" }

func TestManagerStateLifecycle(t *testing.T) {
	m := NewManager[step]()
	assert.False(t, m.InProgress(1))
	assert.Equal(t, Idle, m.StateName(1))

	m.Set(1, step{n: 2})
	st, ok := m.GetState(1)
	require.True(t, ok)
	assert.Equal(t, 2, st.n)
	assert.Equal(t, "step", m.StateName(1))
	assert.True(t, m.InProgress(1))

	m.ClearState(1)
	assert.False(t, m.InProgress(1))
	_, ok = m.GetState(1)
	assert.False(t, ok)
}

func TestManagerTempSurvivesClearState(t *testing.T) {
	m := NewManager[step]()
	m.SetTemp(7, "pending", "two eggs")
	m.Set(7, step{})
	m.ClearState(7)

	v, ok := m.GetTempString(7, "pending")
	require.True(t, ok)
	assert.Equal(t, "two eggs", v)
	assert.False(t, m.InProgress(7))

	m.ClearTemp(7, "pending")
	_, ok = m.GetTemp(7, "pending")
	assert.False(t, ok)

	m.SetTemp(7, "pending", 3)
	_, ok = m.GetTempString(7, "pending")
	assert.False(t, ok)
	m.Clear(7)
	_, ok = m.GetTemp(7, "pending")
	assert.False(t, ok)
}

func TestManagerGetReturnsCopy(t *testing.T) {
	m := NewManager[step]()
	m.Set(1, step{n: 1})
	m.SetTemp(1, "k", "v")

	s, ok := m.Get(1)
	require.True(t, ok)
	s.TempData["k"] = "changed"

	v, _ := m.GetTempString(1, "k")
	assert.Equal(t, "v", v)
}

func TestManagerConcurrentUsers(t *testing.T) {
	m := NewManager[step]()
	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.Set(id, step{n: int(id)})
			m.SetTemp(id, "x", "y")
			_ = m.InProgress(id)
		}(i)
	}
	wg.Wait()
	for i := int64(0); i < 50; i++ {
		st, ok := m.GetState(i)
		require.True(t, ok)
		assert.Equal(t, int(i), st.n)
	}
}

func TestHandlersLookup(t *testing.T) {
	h := NewHandlers[func() string]()
	h.Register("a", func() string { return "first" })
	h.Register("a", func() string { return "second" })

	fn, ok := h.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "second", fn())
	_, ok = h.Lookup("b")
	assert.False(t, ok)
}
