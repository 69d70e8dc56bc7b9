package session

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/scicalc/internal/keymap"
	"github.com/ternarybob/scicalc/internal/logger"
	"github.com/ternarybob/scicalc/pkg/calc"
)

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

func mustApply(t *testing.T, s *Session, inputs ...string) Snapshot {
	t.Helper()
	var snap Snapshot
	for _, raw := range inputs {
		in, err := calc.ParseInput(raw)
		require.NoError(t, err)
		snap, err = s.Apply(in)
		require.NoError(t, err, raw)
	}
	return snap
}

func TestSession_Apply(t *testing.T) {
	m := NewManager(Options{})
	s := m.Create()

	snap := mustApply(t, s, "digit:5", "operator:+", "digit:3")
	assert.Equal(t, s.ID(), snap.ID)
	assert.Equal(t, "5 +", snap.Display.Previous)
	assert.Equal(t, "3", snap.Display.Current)

	snap = mustApply(t, s, "equals")
	assert.Equal(t, "8", snap.State.Current)
	assert.Equal(t, calc.OpNone, snap.State.Operator)
}

func TestSession_InvalidInput(t *testing.T) {
	s := NewManager(Options{}).Create()

	_, err := s.Apply(calc.Input{Kind: "launch"})
	assert.ErrorIs(t, err, calc.ErrInvalidInput)
	assert.Equal(t, "0", s.Snapshot().State.Current)
}

func TestSession_DomainErrorInSnapshot(t *testing.T) {
	s := NewManager(Options{}).Create()

	snap := mustApply(t, s, "digit:9", "operator:÷", "digit:0", "equals")
	assert.Equal(t, calc.ErrorText, snap.State.Current)
	assert.Equal(t, "Cannot divide by zero!", snap.ErrorMessage)
}

func TestSession_ErrorAutoClears(t *testing.T) {
	s := NewManager(Options{ErrorDisplay: 20 * time.Millisecond}).Create()

	snap := mustApply(t, s, "digit:0", "scientific:log")
	require.Equal(t, calc.ErrorText, snap.State.Current)

	assert.Eventually(t, func() bool {
		return s.Snapshot().State == calc.New().State()
	}, 2*time.Second, 5*time.Millisecond, "error should clear to the startup state")
	assert.Empty(t, s.Snapshot().ErrorMessage)
}

func TestSession_TransitionCancelsErrorClear(t *testing.T) {
	s := NewManager(Options{ErrorDisplay: 50 * time.Millisecond}).Create()

	mustApply(t, s, "digit:0", "scientific:log")
	snap := mustApply(t, s, "digit:4", "operator:+", "digit:1")
	require.Equal(t, "4 +", snap.Display.Previous)

	time.Sleep(150 * time.Millisecond)

	after := s.Snapshot()
	assert.Equal(t, "1", after.State.Current, "a stale timer must not clear newer state")
	assert.Equal(t, "4 +", after.Display.Previous)
}

func TestSession_RejectedInputKeepsErrorClear(t *testing.T) {
	s := NewManager(Options{ErrorDisplay: 20 * time.Millisecond}).Create()

	mustApply(t, s, "scientific:1/x")
	_, err := s.Apply(calc.Input{Kind: calc.KindDigit, Value: "q"})
	require.ErrorIs(t, err, calc.ErrInvalidInput)

	assert.Eventually(t, func() bool {
		return s.Snapshot().State.Current == "0"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSession_ErrorClearDisabled(t *testing.T) {
	s := NewManager(Options{}).Create()

	mustApply(t, s, "scientific:1/x")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calc.ErrorText, s.Snapshot().State.Current)
}

func TestSession_Press(t *testing.T) {
	s := NewManager(Options{}).Create()
	km := keymap.New()

	for _, key := range []string{"7", "*", "6", "Enter"} {
		_, err := s.Press(km, key)
		require.NoError(t, err, key)
	}
	assert.Equal(t, "42", s.Snapshot().State.Current)

	_, err := s.Press(km, "F13")
	assert.ErrorIs(t, err, ErrUnboundKey)
}

func TestSession_ConcurrentApply(t *testing.T) {
	s := NewManager(Options{}).Create()
	one := calc.Input{Kind: calc.KindDigit, Value: "1"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Apply(one)
		}()
	}
	wg.Wait()

	assert.Len(t, s.Snapshot().State.Current, 50, "every transition should be applied exactly once")
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(Options{})

	a := m.Create()
	b := m.Create()
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, m.Len())
	assert.ElementsMatch(t, []string{a.ID(), b.ID()}, m.IDs())

	got, err := m.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)

	require.NoError(t, m.Remove(a.ID()))
	_, err = m.Get(a.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Remove(a.ID()), ErrNotFound)

	_, err = a.Apply(calc.Input{Kind: calc.KindClear})
	assert.ErrorIs(t, err, ErrNotFound, "removed sessions reject transitions")

	m.Close()
	assert.Equal(t, 0, m.Len())
}

func TestManager_Sweep(t *testing.T) {
	m := NewManager(Options{TTL: time.Minute})
	idle := m.Create()
	active := m.Create()

	now := time.Now()
	idle.mu.Lock()
	idle.lastUsed = now.Add(-2 * time.Minute)
	idle.mu.Unlock()

	assert.Equal(t, 1, m.Sweep(now))
	_, err := m.Get(idle.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(active.ID())
	assert.NoError(t, err)
}

func TestManager_SweepDisabled(t *testing.T) {
	m := NewManager(Options{})
	m.Create()
	assert.Equal(t, 0, m.Sweep(time.Now().Add(24*time.Hour)))
}

func TestManager_RunStopsOnCancel(t *testing.T) {
	m := NewManager(Options{TTL: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
