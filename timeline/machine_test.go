package timeline

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type ctx struct {
	log  []string
	flag bool
}

func record(name string) func(c *ctx) {
	return func(c *ctx) { c.log = append(c.log, name) }
}

func expectLog(t *testing.T, got []string, want ...string) {
	t.Helper()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected actions %v, got %v", want, got)
	}
}

func TestChainedZeroDurationStatesResolveInOneUpdate(t *testing.T) {
	m := New[*ctx]()
	a := m.AddState("a", 0).Enter("a", record("+a")).Exit("a", record("-a"))
	b := m.AddState("b", 0).Enter("b", record("+b")).Exit("b", record("-b"))
	c := m.AddState("c", 0).Enter("c", record("+c")).Exit("c", record("-c"))
	d := m.AddState("d", 10*time.Second).Enter("d", record("+d"))
	a.Then(b).Then(c).Then(d)
	m.MustCompile(a)

	c0 := &ctx{}
	if err := m.Start(c0, t0); err != nil {
		t.Fatalf("start: %v", err)
	}
	steps, err := m.Update(c0, t0)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if steps != 3 {
		t.Fatalf("expected 3 transitions, got %d", steps)
	}
	if m.Active() != d {
		t.Fatalf("expected active state d, got %v", m.Active())
	}
	expectLog(t, c0.log, "+a", "-a", "+b", "-b", "+c", "-c", "+d")
}

func TestTimedBoundariesCarryEntryTime(t *testing.T) {
	m := New[*ctx]()
	a := m.AddState("a", 5*time.Second)
	b := m.AddState("b", 5*time.Second)
	c := m.AddState("c", 5*time.Second)
	a.Then(b).Then(c)
	m.MustCompile(a)

	c0 := &ctx{}
	_ = m.Start(c0, t0)
	if _, err := m.Update(c0, t0.Add(12*time.Second)); err != nil {
		t.Fatalf("update: %v", err)
	}
	if m.Active() != c {
		t.Fatalf("expected c, got %v", m.Active())
	}
	if got := m.TimeInState(t0.Add(12 * time.Second)); got != 2*time.Second {
		t.Fatalf("expected 2s in state, got %v", got)
	}
	if m.Transitions() != 2 {
		t.Fatalf("expected 2 transitions, got %d", m.Transitions())
	}
}

func TestTerminalStateLeavesMachineInactive(t *testing.T) {
	m := New[*ctx]()
	a := m.AddState("a", time.Second).Exit("a", record("-a"))
	m.MustCompile(a)

	c0 := &ctx{}
	_ = m.Start(c0, t0)
	if _, err := m.Update(c0, t0.Add(500*time.Millisecond)); err != nil || m.Active() != a {
		t.Fatalf("state should still be active before its duration, err=%v", err)
	}
	if _, err := m.Update(c0, t0.Add(time.Second)); err != nil {
		t.Fatalf("reaching the end should not be an error: %v", err)
	}
	if m.Active() != nil {
		t.Fatalf("expected inactive machine, got %v", m.Active())
	}
	if m.ForceTransition(c0, t0.Add(2*time.Second)) {
		t.Fatalf("force on an inactive machine should report false")
	}
	expectLog(t, c0.log, "-a")
}

func TestManualStateAdvancesOnlyWhenForced(t *testing.T) {
	m := New[*ctx]()
	a := m.AddState("a", 0).Hold()
	b := m.AddState("b", time.Minute)
	a.Then(b)
	m.MustCompile(a)

	c0 := &ctx{}
	_ = m.Start(c0, t0)
	if _, err := m.Update(c0, t0.Add(time.Hour)); err != nil || m.Active() != a {
		t.Fatalf("manual state should hold, active=%v err=%v", m.Active(), err)
	}
	forcedAt := t0.Add(time.Hour)
	if !m.ForceTransition(c0, forcedAt) {
		t.Fatalf("force should succeed")
	}
	if m.Active() != b || m.TimeInState(forcedAt) != 0 {
		t.Fatalf("expected b entered at force time, got %v", m.Active())
	}
}

func TestConditionStateEntersNextAtNow(t *testing.T) {
	m := New[*ctx]()
	a := m.AddState("a", 0).When(func(c *ctx, _ time.Duration) bool { return c.flag })
	b := m.AddState("b", time.Minute)
	a.Then(b)
	m.MustCompile(a)

	c0 := &ctx{}
	_ = m.Start(c0, t0)
	if steps, _ := m.Update(c0, t0.Add(10*time.Second)); steps != 0 {
		t.Fatalf("condition false, expected no transition")
	}
	c0.flag = true
	now := t0.Add(20 * time.Second)
	if steps, _ := m.Update(c0, now); steps != 1 || m.Active() != b {
		t.Fatalf("expected transition to b")
	}
	if m.TimeInState(now) != 0 {
		t.Fatalf("condition transitions enter at the update time")
	}
}

func TestCompileValidation(t *testing.T) {
	cases := []struct {
		name  string
		build func() (*Machine[*ctx], *State[*ctx])
		want  error
	}{
		{
			name: "nil_initial",
			build: func() (*Machine[*ctx], *State[*ctx]) {
				m := New[*ctx]()
				m.AddState("a", time.Second)
				return m, nil
			},
			want: ErrNoInitial,
		},
		{
			name: "foreign_next",
			build: func() (*Machine[*ctx], *State[*ctx]) {
				m := New[*ctx]()
				other := New[*ctx]()
				a := m.AddState("a", time.Second)
				a.Then(other.AddState("x", time.Second))
				return m, a
			},
			want: ErrForeignState,
		},
		{
			name: "unreachable",
			build: func() (*Machine[*ctx], *State[*ctx]) {
				m := New[*ctx]()
				a := m.AddState("a", time.Second)
				m.AddState("orphan", time.Second)
				return m, a
			},
			want: ErrUnreachable,
		},
		{
			name: "zero_duration_cycle",
			build: func() (*Machine[*ctx], *State[*ctx]) {
				m := New[*ctx]()
				a := m.AddState("a", time.Second)
				b := m.AddState("b", 0)
				c := m.AddState("c", 0)
				a.Then(b).Then(c).Then(b)
				return m, a
			},
			want: ErrZeroDurationCycle,
		},
		{
			name: "duplicate_name",
			build: func() (*Machine[*ctx], *State[*ctx]) {
				m := New[*ctx]()
				a := m.AddState("a", time.Second)
				a.Then(m.AddState("a", time.Second))
				return m, a
			},
			want: ErrDuplicateName,
		},
		{
			name: "negative_duration",
			build: func() (*Machine[*ctx], *State[*ctx]) {
				m := New[*ctx]()
				return m, m.AddState("a", -time.Second)
			},
			want: ErrNegativeDuration,
		},
		{
			name: "timed_cycle_ok",
			build: func() (*Machine[*ctx], *State[*ctx]) {
				m := New[*ctx]()
				a := m.AddState("a", 0)
				b := m.AddState("b", time.Second)
				a.Then(b).Then(a)
				return m, a
			},
			want: nil,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m, initial := c.build()
			err := m.Compile(initial)
			if c.want == nil {
				if err != nil {
					t.Fatalf("expected valid graph, got %v", err)
				}
				return
			}
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
			if m.Compiled() {
				t.Fatalf("failed compile must leave machine uncompiled")
			}
		})
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	New[*ctx]().MustCompile(nil)
}

func TestStartRequiresCompile(t *testing.T) {
	m := New[*ctx]()
	m.AddState("a", time.Second)
	if err := m.Start(&ctx{}, t0); !errors.Is(err, ErrNotCompiled) {
		t.Fatalf("expected ErrNotCompiled, got %v", err)
	}
}

func TestConditionLoopHitsTransitionLimit(t *testing.T) {
	m := New[*ctx]()
	always := func(*ctx, time.Duration) bool { return true }
	a := m.AddState("a", 0).When(always)
	b := m.AddState("b", 0).When(always)
	a.Then(b).Then(a)
	m.MustCompile(a)

	c0 := &ctx{}
	_ = m.Start(c0, t0)
	steps, err := m.Update(c0, t0)
	if !errors.Is(err, ErrTransitionLimit) {
		t.Fatalf("expected ErrTransitionLimit, got %v", err)
	}
	if steps != MaxStepsPerUpdate {
		t.Fatalf("expected %d steps, got %d", MaxStepsPerUpdate, steps)
	}
}

func TestStopSkipsExitActions(t *testing.T) {
	m := New[*ctx]()
	a := m.AddState("a", time.Second).Enter("a", record("+a")).Exit("a", record("-a"))
	m.MustCompile(a)
	c0 := &ctx{}
	_ = m.Start(c0, t0)
	m.Stop()
	if m.Active() != nil {
		t.Fatalf("expected inactive after stop")
	}
	if steps, _ := m.Update(c0, t0.Add(time.Hour)); steps != 0 {
		t.Fatalf("stopped machine must not advance")
	}
	expectLog(t, c0.log, "+a")
}

func TestDescribe(t *testing.T) {
	m := New[*ctx]()
	a := m.AddState("pull", 5*time.Second).Enter("cleave", nil)
	b := m.AddState("adds", 0).Hold()
	a.Then(b)
	m.MustCompile(a)
	_ = m.Start(&ctx{}, t0)

	out := m.Describe()
	for _, want := range []string{"> ", "pull +cleave", "manual adds", "5.0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in description:\n%s", want, out)
		}
	}
}
