package loading

import "testing"

func mustMachine(t *testing.T, cfg Config) *Machine {
	t.Helper()
	m, err := NewMachine(cfg)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	return m
}

func observeAll(m *Machine, counts ...int) State {
	var state State
	for _, c := range counts {
		state, _ = m.Observe(c)
	}
	return state
}

func TestMachineSequences(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		counts []int
		want   State
	}{
		{"stabilizes after k equal observations", Config{3, 20}, []int{2, 5, 5, 5}, State{Phase: Stable, Count: 5}},
		{"still partial one short", Config{3, 20}, []int{2, 5, 5}, State{Phase: Partial, Count: 5}},
		{"fails after max attempts", Config{3, 4}, []int{0, 0, 0, 0, 0}, State{Phase: Failed, Count: 0}},
		{"empty at max attempts", Config{3, 4}, []int{0, 0, 0, 0}, State{Phase: Empty, Count: 0}},
		{"single observation is enough", Config{1, 20}, []int{4}, State{Phase: Stable, Count: 4}},
		{"shrinking counts ignored", Config{3, 20}, []int{5, 3, 5, 5}, State{Phase: Stable, Count: 5}},
		{"late growth reopens", Config{2, 20}, []int{3, 3, 7}, State{Phase: Partial, Count: 7}},
		{"failed absorbs", Config{3, 1}, []int{0, 0, 9, 9, 9}, State{Phase: Failed, Count: 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := mustMachine(t, tc.cfg)
			if got := observeAll(m, tc.counts...); got != tc.want {
				t.Fatalf("state = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestMachineReportsChanges(t *testing.T) {
	m := mustMachine(t, Config{2, 5})
	if _, changed := m.Observe(0); changed {
		t.Fatal("empty observation should not change state")
	}
	if state, changed := m.Observe(3); !changed || state != (State{Phase: Partial, Count: 3}) {
		t.Fatalf("Observe(3) = %s, %v", state, changed)
	}
	if state, changed := m.Observe(3); !changed || state != (State{Phase: Stable, Count: 3}) {
		t.Fatalf("second Observe(3) = %s, %v", state, changed)
	}
	if _, changed := m.Observe(3); changed {
		t.Fatal("stable observation should not change state")
	}
}

func TestMachineAttemptsOnlyCountWhileEmpty(t *testing.T) {
	m := mustMachine(t, Config{3, 2})
	observeAll(m, 0, 0, 4, 4)
	if got := m.Attempts(); got != 2 {
		t.Fatalf("attempts = %d, want 2", got)
	}
	if got := m.State(); got.Phase != Partial {
		t.Fatalf("state = %s, want partial", got)
	}
}

func TestMachineReset(t *testing.T) {
	m := mustMachine(t, Config{3, 1})
	observeAll(m, 0, 0)
	if m.State().Phase != Failed {
		t.Fatalf("expected failed, got %s", m.State())
	}
	if got := m.Reset(6); got != (State{Phase: Partial, Count: 6}) {
		t.Fatalf("Reset(6) = %s", got)
	}
	if got := m.Reset(0); got != (State{Phase: Empty, Count: 0}) {
		t.Fatalf("Reset(0) = %s", got)
	}
	if m.Attempts() != 0 {
		t.Fatalf("attempts not cleared")
	}
}

func TestMachineFail(t *testing.T) {
	m := mustMachine(t, DefaultConfig())
	observeAll(m, 2)
	if !m.Fail() {
		t.Fatal("expected Fail to change state")
	}
	if m.Fail() {
		t.Fatal("second Fail should be a no-op")
	}
	if state, _ := m.Observe(10); state.Phase != Failed {
		t.Fatalf("state = %s, want failed", state)
	}
}

func TestNewMachineRejectsInvalidConfig(t *testing.T) {
	for _, cfg := range []Config{{0, 1}, {1, 0}} {
		if _, err := NewMachine(cfg); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestStateRenderable(t *testing.T) {
	tests := []struct {
		state   State
		partial bool
		want    bool
	}{
		{State{Phase: Empty, Count: 0}, true, false},
		{State{Phase: Partial, Count: 2}, true, true},
		{State{Phase: Partial, Count: 2}, false, false},
		{State{Phase: Stable, Count: 2}, false, true},
		{State{Phase: Failed, Count: 0}, false, true},
	}
	for _, tc := range tests {
		if got := tc.state.Renderable(tc.partial); got != tc.want {
			t.Errorf("%s.Renderable(%v) = %v, want %v", tc.state, tc.partial, got, tc.want)
		}
	}
	if got := (State{Phase: Partial, Count: 5}).String(); got != "partial(5)" {
		t.Errorf("String = %q", got)
	}
}

func TestMachineUnavailable(t *testing.T) {
	m := mustMachine(t, DefaultConfig())
	if !m.MarkUnavailable() {
		t.Fatal("expected MarkUnavailable to change an empty machine")
	}
	state, changed := m.Observe(4)
	if changed || !state.Unavailable || state.Phase == Failed {
		t.Fatalf("state = %+v, changed = %v", state, changed)
	}
	if !state.Terminal() || !state.Renderable(false) {
		t.Fatalf("unavailable should be terminal and renderable")
	}
	if got := m.Reset(2); got.Unavailable || got.Phase != Partial {
		t.Fatalf("Reset(2) = %+v", got)
	}
	if m.MarkUnavailable() {
		t.Fatal("a machine holding cues cannot become unavailable")
	}
}

func TestMachineDropsObservationsFromBeforeReset(t *testing.T) {
	m := mustMachine(t, Config{2, 5})
	epoch := m.Epoch()
	m.Reset(3)

	if state, changed := m.observeAt(epoch, 9); changed || state != (State{Phase: Partial, Count: 3}) {
		t.Fatalf("stale observation applied: %s changed=%v", state, changed)
	}
	if m.failAt(epoch) || m.markUnavailableAt(epoch) {
		t.Fatal("stale failure applied")
	}
	if state, _ := m.observeAt(m.Epoch(), 3); state != (State{Phase: Stable, Count: 3}) {
		t.Fatalf("state = %s, want stable(3)", state)
	}
}
