package timeline

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNoInitial         = errors.New("timeline: no initial state")
	ErrForeignState      = errors.New("timeline: next state belongs to another machine")
	ErrUnreachable       = errors.New("timeline: state unreachable from initial state")
	ErrZeroDurationCycle = errors.New("timeline: cycle of zero-duration states")
	ErrDuplicateName     = errors.New("timeline: duplicate state name")
	ErrNegativeDuration  = errors.New("timeline: negative duration")
	ErrTransitionLimit   = errors.New("timeline: transition limit reached in one update")
	ErrNotCompiled       = errors.New("timeline: machine not compiled")
)

// MaxStepsPerUpdate bounds the transitions processed by one Update call.
// Only condition-driven loops can reach it; timed zero-duration cycles are
// rejected by Compile.
const MaxStepsPerUpdate = 256

// Action is a named side effect run on state entry or exit.
type Action[T any] struct {
	Name string
	Func func(ctx T)
}

// State is one node of the timeline.
//
// A state advances when its Condition returns true or, without a Condition,
// once Duration has elapsed since entry. Manual states only advance through
// ForceTransition. A state without Next is the last one: advancing from it
// leaves the machine inactive.
type State[T any] struct {
	Name      string
	Duration  time.Duration
	Next      *State[T]
	Condition func(ctx T, elapsed time.Duration) bool
	Manual    bool
	OnEnter   []Action[T]
	OnExit    []Action[T]

	machine *Machine[T]
}

// Then links next after s and returns next so chains read top to bottom.
func (s *State[T]) Then(next *State[T]) *State[T] {
	s.Next = next
	return next
}

func (s *State[T]) When(cond func(ctx T, elapsed time.Duration) bool) *State[T] {
	s.Condition = cond
	return s
}

// Hold marks the state as manual.
func (s *State[T]) Hold() *State[T] {
	s.Manual = true
	return s
}

func (s *State[T]) Enter(name string, fn func(ctx T)) *State[T] {
	s.OnEnter = append(s.OnEnter, Action[T]{Name: name, Func: fn})
	return s
}

func (s *State[T]) Exit(name string, fn func(ctx T)) *State[T] {
	s.OnExit = append(s.OnExit, Action[T]{Name: name, Func: fn})
	return s
}

func (s *State[T]) automatic() bool { return !s.Manual }

func (s *State[T]) instant() bool {
	return s.automatic() && s.Condition == nil && s.Duration == 0
}

func (s *State[T]) ready(ctx T, elapsed time.Duration) bool {
	switch {
	case s.Manual:
		return false
	case s.Condition != nil:
		return s.Condition(ctx, elapsed)
	default:
		return elapsed >= s.Duration
	}
}

func (s *State[T]) String() string {
	if s == nil {
		return "<none>"
	}
	return s.Name
}

// Machine drives a single active pointer through a graph of states.
type Machine[T any] struct {
	states   []*State[T]
	initial  *State[T]
	compiled bool

	active      *State[T]
	enteredAt   time.Time
	transitions int
}

func New[T any]() *Machine[T] {
	return &Machine[T]{}
}

// AddState creates a timed state owned by the machine.
func (m *Machine[T]) AddState(name string, d time.Duration) *State[T] {
	s := &State[T]{Name: name, Duration: d, machine: m}
	m.states = append(m.states, s)
	m.compiled = false
	return s
}

// Compile validates the graph rooted at initial.
func (m *Machine[T]) Compile(initial *State[T]) error {
	m.compiled = false
	if initial == nil {
		return ErrNoInitial
	}
	if initial.machine != m {
		return fmt.Errorf("%w: initial %q", ErrForeignState, initial.Name)
	}

	names := make(map[string]bool, len(m.states))
	for _, s := range m.states {
		if names[s.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateName, s.Name)
		}
		names[s.Name] = true
		if s.Duration < 0 {
			return fmt.Errorf("%w: %q", ErrNegativeDuration, s.Name)
		}
		if s.Next != nil && s.Next.machine != m {
			return fmt.Errorf("%w: %q -> %q", ErrForeignState, s.Name, s.Next.Name)
		}
	}

	// Each state has at most one successor, so the reachable set is a
	// path that either ends or closes into exactly one cycle.
	pos := make(map[*State[T]]int)
	var path []*State[T]
	for s := initial; s != nil; s = s.Next {
		if start, seen := pos[s]; seen {
			cycle := path[start:]
			if allInstant(cycle) {
				return fmt.Errorf("%w: %s", ErrZeroDurationCycle, joinNames(cycle))
			}
			break
		}
		pos[s] = len(path)
		path = append(path, s)
	}

	var unreachable []*State[T]
	for _, s := range m.states {
		if _, ok := pos[s]; !ok {
			unreachable = append(unreachable, s)
		}
	}
	if len(unreachable) > 0 {
		return fmt.Errorf("%w: %s", ErrUnreachable, joinNames(unreachable))
	}

	m.initial = initial
	m.compiled = true
	return nil
}

// MustCompile is Compile that panics on an invalid graph.
func (m *Machine[T]) MustCompile(initial *State[T]) {
	if err := m.Compile(initial); err != nil {
		panic(err)
	}
}

func allInstant[T any](states []*State[T]) bool {
	for _, s := range states {
		if !s.instant() {
			return false
		}
	}
	return true
}

func joinNames[T any](states []*State[T]) string {
	names := make([]string, 0, len(states))
	for _, s := range states {
		names = append(names, s.Name)
	}
	return strings.Join(names, " -> ")
}

// Start arms the machine at its initial state and runs its enter actions.
func (m *Machine[T]) Start(ctx T, now time.Time) error {
	if !m.compiled {
		return ErrNotCompiled
	}
	m.transitions = 0
	m.active = m.initial
	m.enteredAt = now
	m.runActions(ctx, m.active.OnEnter)
	return nil
}

// Stop disarms the machine without running exit actions.
func (m *Machine[T]) Stop() {
	m.active = nil
	m.enteredAt = time.Time{}
}

// Update advances through every state whose condition holds at now and
// returns the number of transitions taken. Timed states hand their boundary
// time to the next state as its entry time, so several boundaries falling
// inside one tick are all processed by a single call.
func (m *Machine[T]) Update(ctx T, now time.Time) (int, error) {
	steps := 0
	for m.active != nil {
		s := m.active
		if !s.ready(ctx, now.Sub(m.enteredAt)) {
			break
		}
		if steps >= MaxStepsPerUpdate {
			return steps, fmt.Errorf("%w: stuck at %q", ErrTransitionLimit, s.Name)
		}
		entry := now
		if s.Condition == nil {
			entry = m.enteredAt.Add(s.Duration)
		}
		m.advance(ctx, s, entry)
		steps++
	}
	return steps, nil
}

// ForceTransition advances one step regardless of the active state's
// condition. It reports whether a state was active.
func (m *Machine[T]) ForceTransition(ctx T, now time.Time) bool {
	if m.active == nil {
		return false
	}
	m.advance(ctx, m.active, now)
	return true
}

func (m *Machine[T]) advance(ctx T, from *State[T], at time.Time) {
	m.runActions(ctx, from.OnExit)
	if m.active != from {
		// an exit action stopped or moved the machine
		return
	}
	m.transitions++
	m.active = from.Next
	m.enteredAt = at
	if m.active != nil {
		m.runActions(ctx, m.active.OnEnter)
	}
}

func (m *Machine[T]) runActions(ctx T, actions []Action[T]) {
	for _, a := range actions {
		if a.Func != nil {
			a.Func(ctx)
		}
	}
}

// Active returns the current state, or nil when inactive.
func (m *Machine[T]) Active() *State[T] { return m.active }

func (m *Machine[T]) Initial() *State[T] { return m.initial }

func (m *Machine[T]) Compiled() bool { return m.compiled }

// TimeInState is the time elapsed since the active state was entered.
func (m *Machine[T]) TimeInState(now time.Time) time.Duration {
	if m.active == nil {
		return 0
	}
	return now.Sub(m.enteredAt)
}

// Transitions counts transitions since the last Start.
func (m *Machine[T]) Transitions() int { return m.transitions }

// States returns the states in creation order.
func (m *Machine[T]) States() []*State[T] {
	return append([]*State[T](nil), m.states...)
}

// Lookup finds a state by name.
func (m *Machine[T]) Lookup(name string) *State[T] {
	for _, s := range m.states {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Describe dumps the timeline starting at the initial state, one line per state.
func (m *Machine[T]) Describe() string {
	var b strings.Builder
	seen := make(map[*State[T]]bool)
	var offset time.Duration
	for s := m.initial; s != nil && !seen[s]; s = s.Next {
		seen[s] = true
		marker := " "
		if s == m.active {
			marker = ">"
		}
		kind := fmt.Sprintf("%6.1fs", s.Duration.Seconds())
		switch {
		case s.Manual:
			kind = "manual"
		case s.Condition != nil:
			kind = "  cond"
		}
		fmt.Fprintf(&b, "%s %7.1f %s %s", marker, offset.Seconds(), kind, s.Name)
		for _, a := range s.OnEnter {
			fmt.Fprintf(&b, " +%s", a.Name)
		}
		for _, a := range s.OnExit {
			fmt.Fprintf(&b, " -%s", a.Name)
		}
		b.WriteByte('\n')
		if s.automatic() && s.Condition == nil {
			offset += s.Duration
		}
	}
	return b.String()
}
