package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) (*Tracker, *MockClock) {
	t.Helper()
	clock := NewMockClock()
	return New(Config{Timeout: time.Minute, Clock: clock}), clock
}

func TestRegisterStatement(t *testing.T) {
	tr, _ := newTestTracker(t)

	stmt := tr.RegisterStatement(context.Background(), "s1", "DISCOVER MDSCHEMA_CUBES")
	require.NoError(t, stmt.Context().Err())
	assert.Equal(t, "s1", stmt.SessionID)

	infos := tr.Snapshot()
	require.Len(t, infos, 1)
	assert.Equal(t, 1, infos[0].Active)
	assert.Equal(t, "DISCOVER MDSCHEMA_CUBES", infos[0].LastCommand)

	tr.UnregisterStatement(stmt)
	assert.Equal(t, 0, tr.Snapshot()[0].Active)
	assert.Error(t, stmt.Context().Err(), "unregistering releases the context")
	assert.False(t, stmt.Cancelled())

	tr.UnregisterStatement(stmt)
}

func TestCancelSession(t *testing.T) {
	tr, _ := newTestTracker(t)

	running := tr.RegisterStatement(context.Background(), "s1", "a")
	other := tr.RegisterStatement(context.Background(), "s2", "b")

	tr.CancelSession("s1")

	assert.True(t, running.Cancelled())
	assert.ErrorIs(t, context.Cause(running.Context()), ErrSessionCancelled)
	assert.NoError(t, other.Context().Err())

	infos := tr.Snapshot()
	require.Len(t, infos, 2, "a cancelled session is kept")
	assert.True(t, infos[0].Cancelled)
	assert.Equal(t, 0, infos[0].Active)
}

func TestCancelThenRegister(t *testing.T) {
	tr, _ := newTestTracker(t)

	tr.CancelSession("s1")
	stmt := tr.RegisterStatement(context.Background(), "s1", "late")

	assert.True(t, stmt.Cancelled())
	assert.Error(t, stmt.Context().Err())
	assert.Equal(t, 0, tr.Snapshot()[0].Active, "a rejected statement is not tracked")

	tr.UnregisterStatement(stmt)
}

func TestEndSession(t *testing.T) {
	tr, _ := newTestTracker(t)

	tr.CancelSession("s1")
	running := tr.RegisterStatement(context.Background(), "s2", "x")
	tr.EndSession("s1")
	tr.EndSession("s2")
	tr.EndSession("missing")

	assert.Empty(t, tr.Snapshot())
	assert.ErrorIs(t, context.Cause(running.Context()), ErrSessionEnded)

	stmt := tr.RegisterStatement(context.Background(), "s1", "fresh")
	assert.False(t, stmt.Cancelled(), "an ended session starts over")
	tr.UnregisterStatement(running)
	tr.UnregisterStatement(stmt)
}

func TestSweepExpired(t *testing.T) {
	tr, clock := newTestTracker(t)

	stmt := tr.RegisterStatement(context.Background(), "s1", "x")
	tr.UnregisterStatement(stmt)
	start := clock.Now()

	assert.Equal(t, 0, tr.SweepExpired(start.Add(time.Minute-time.Millisecond)))
	assert.Equal(t, 0, tr.SweepExpired(start.Add(time.Minute)), "idle exactly the timeout is kept")
	assert.Equal(t, 1, tr.SweepExpired(start.Add(time.Minute+time.Millisecond)))
	assert.Empty(t, tr.Snapshot())
}

func TestSweepKeepsBusySessions(t *testing.T) {
	tr, clock := newTestTracker(t)

	stmt := tr.RegisterStatement(context.Background(), "busy", "long")
	clock.Advance(time.Hour)

	assert.Equal(t, 0, tr.SweepExpired(clock.Now()))
	require.NoError(t, stmt.Context().Err())

	tr.UnregisterStatement(stmt)
	clock.Advance(time.Minute + time.Second)
	assert.Equal(t, 1, tr.SweepExpired(clock.Now()))
}

func TestRegistrationResetsIdleClock(t *testing.T) {
	tr, clock := newTestTracker(t)

	tr.UnregisterStatement(tr.RegisterStatement(context.Background(), "s1", "a"))
	clock.Advance(50 * time.Second)
	tr.UnregisterStatement(tr.RegisterStatement(context.Background(), "s1", "b"))
	clock.Advance(50 * time.Second)

	assert.Equal(t, 0, tr.SweepExpired(clock.Now()))
	assert.Equal(t, 2, tr.Snapshot()[0].TotalCommands)
}

func TestSetCredentials(t *testing.T) {
	tests := []struct {
		name     string
		calls    [][2]string
		wantUser string
		wantPass string
	}{
		{
			name:     "first credentials",
			calls:    [][2]string{{"alice", "pw"}},
			wantUser: "alice",
			wantPass: "pw",
		},
		{
			name:     "same user overwrites password",
			calls:    [][2]string{{"alice", "pw"}, {"alice", "pw2"}},
			wantUser: "alice",
			wantPass: "pw2",
		},
		{
			name:     "empty password keeps stored one",
			calls:    [][2]string{{"alice", "pw"}, {"alice", ""}},
			wantUser: "alice",
			wantPass: "pw",
		},
		{
			name:     "different user replaces session",
			calls:    [][2]string{{"alice", "pw"}, {"bob", ""}},
			wantUser: "bob",
			wantPass: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := newTestTracker(t)
			for _, c := range tt.calls {
				tr.SetCredentials("s1", c[0], c[1])
			}
			user, pass, ok := tr.Credentials("s1")
			require.True(t, ok)
			assert.Equal(t, tt.wantUser, user)
			assert.Equal(t, tt.wantPass, pass)
		})
	}
}

func TestSetCredentialsReplacesCancelledSession(t *testing.T) {
	tr, _ := newTestTracker(t)

	tr.SetCredentials("s1", "alice", "pw")
	tr.CancelSession("s1")
	tr.SetCredentials("s1", "bob", "pw")

	stmt := tr.RegisterStatement(context.Background(), "s1", "x")
	assert.False(t, stmt.Cancelled())
	tr.UnregisterStatement(stmt)
}

func TestCredentialsUnknownSession(t *testing.T) {
	tr, _ := newTestTracker(t)
	_, _, ok := tr.Credentials("nope")
	assert.False(t, ok)
}

func TestConcurrentFirstReference(t *testing.T) {
	tr, _ := newTestTracker(t)

	const workers = 32
	var wg sync.WaitGroup
	stmts := make([]*Statement, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stmts[i] = tr.RegisterStatement(context.Background(), "shared", "x")
		}()
	}
	wg.Wait()

	infos := tr.Snapshot()
	require.Len(t, infos, 1)
	assert.Equal(t, workers, infos[0].Active)
	assert.Equal(t, workers, infos[0].TotalCommands)

	for _, s := range stmts {
		tr.UnregisterStatement(s)
	}
	assert.Equal(t, 0, tr.Snapshot()[0].Active)
}

func TestConcurrentCancelAndRegister(t *testing.T) {
	tr, _ := newTestTracker(t)

	var wg sync.WaitGroup
	results := make(chan *Statement, 64)
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- tr.RegisterStatement(context.Background(), "s1", "x")
		}()
	}
	tr.CancelSession("s1")
	wg.Wait()
	close(results)

	// Every statement is either cancelled by the session or still tracked.
	active := 0
	for s := range results {
		if !s.Cancelled() {
			active++
		}
		tr.UnregisterStatement(s)
	}
	assert.Equal(t, 0, tr.Snapshot()[0].Active)
	assert.LessOrEqual(t, active, 64)
}

func TestRunStopsWithContext(t *testing.T) {
	tr := New(Config{Timeout: 40 * time.Millisecond})
	tr.UnregisterStatement(tr.RegisterStatement(context.Background(), "s1", "x"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	require.Eventually(t, func() bool { return len(tr.Snapshot()) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestParentContextCancellation(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx, cancel := context.WithCancel(context.Background())

	stmt := tr.RegisterStatement(ctx, "s1", "x")
	cancel()

	assert.True(t, errors.Is(stmt.Context().Err(), context.Canceled))
	assert.False(t, stmt.Cancelled(), "only session cancellation counts as cancelled")
	tr.UnregisterStatement(stmt)
}

func TestSnapshot_ListsRefsNotIDs(t *testing.T) {
	tr, _ := newTestTracker(t)
	tr.SetCredentials("b-session", "bob", "pw")
	tr.SetCredentials("a-session", "alice", "pw")

	infos := tr.Snapshot()
	require.Len(t, infos, 2)
	assert.Equal(t, "alice", infos[0].Username, "ordered by session id")
	assert.Equal(t, Ref("a-session"), infos[0].Ref)
	assert.NotEqual(t, "a-session", infos[0].Ref)
	assert.Len(t, infos[0].Ref, 12)
	assert.Equal(t, Ref("a-session"), Ref("a-session"))
	assert.NotEqual(t, Ref("a-session"), Ref("b-session"))
}
