package encounters

import (
	"fmt"
	"time"

	"github.com/milk9111/bossmod/bossmod"
	"github.com/milk9111/bossmod/components"
	"github.com/milk9111/bossmod/script"
	"github.com/milk9111/bossmod/timeline"
)

type stateCondition = func(m *bossmod.Module, elapsed time.Duration) bool

func (b *builder) timeline(registry *bossmod.Registry) (*timeline.Machine[*bossmod.Module], error) {
	specs := b.spec.Timeline.States
	if len(specs) == 0 {
		return nil, fmt.Errorf("timeline has no states")
	}
	sm := timeline.New[*bossmod.Module]()
	states := make([]*timeline.State[*bossmod.Module], len(specs))
	for i, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("timeline state %d has no name", i)
		}
		st := sm.AddState(s.Name, s.Duration)
		st.Manual = s.Manual
		if s.Until != nil {
			cond, err := buildCondition(*s.Until)
			if err != nil {
				return nil, fmt.Errorf("state %s: %w", s.Name, err)
			}
			st.When(cond)
		}
		for _, a := range s.Enter {
			fn, err := b.action(registry, a)
			if err != nil {
				return nil, fmt.Errorf("state %s enter: %w", s.Name, err)
			}
			st.Enter(a.String(), fn)
		}
		for _, a := range s.Exit {
			fn, err := b.action(registry, a)
			if err != nil {
				return nil, fmt.Errorf("state %s exit: %w", s.Name, err)
			}
			st.Exit(a.String(), fn)
		}
		states[i] = st
	}

	for i, s := range specs {
		switch {
		case s.Next != "":
			next := sm.Lookup(s.Next)
			if next == nil {
				return nil, fmt.Errorf("state %s: %w %q", s.Name, ErrUnknownState, s.Next)
			}
			states[i].Then(next)
		case s.End || i == len(specs)-1:
		default:
			states[i].Then(states[i+1])
		}
	}

	initial := states[0]
	if name := b.spec.Timeline.Initial; name != "" {
		if initial = sm.Lookup(name); initial == nil {
			return nil, fmt.Errorf("initial: %w %q", ErrUnknownState, name)
		}
	}
	if err := sm.Compile(initial); err != nil {
		return nil, err
	}
	return sm, nil
}

func (b *builder) action(registry *bossmod.Registry, a ActionSpec) (func(*bossmod.Module), error) {
	if a.count() != 1 {
		return nil, fmt.Errorf("%w: want exactly one of activate, deactivate, run, log", ErrBadAction)
	}
	switch {
	case a.Activate != "":
		if _, ok := registry.Lookup(a.Activate); !ok {
			return nil, fmt.Errorf("activate: %w: %q", bossmod.ErrUnknownComponent, a.Activate)
		}
		name := a.Activate
		return func(m *bossmod.Module) {
			if err := m.ActivateByName(name); err != nil {
				m.Logger().Printf("encounters: %s: %v", m.Name, err)
			}
		}, nil
	case a.Deactivate != "":
		if _, ok := registry.Lookup(a.Deactivate); !ok {
			return nil, fmt.Errorf("deactivate: %w: %q", bossmod.ErrUnknownComponent, a.Deactivate)
		}
		name := a.Deactivate
		return func(m *bossmod.Module) {
			if err := m.DeactivateByName(name); err != nil {
				m.Logger().Printf("encounters: %s: %v", m.Name, err)
			}
		}, nil
	case a.Run != "":
		if b.encScript == nil {
			return nil, fmt.Errorf("%w: run %q without an encounter script", ErrBadAction, a.Run)
		}
		if !b.encScript.Program().Handles(a.Run) {
			return nil, fmt.Errorf("%w: script has no handler %q", ErrBadAction, a.Run)
		}
		return script.Action(b.encScript, a.Run), nil
	default:
		text := a.Log
		return func(m *bossmod.Module) {
			m.Logger().Printf("encounters: %s: %s", m.Name, text)
		}, nil
	}
}

func buildCondition(c ConditionSpec) (stateCondition, error) {
	set := 0
	if c.EnemyDead != 0 {
		set++
	}
	if c.Casting != 0 {
		set++
	}
	if c.Casts != nil {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("until needs exactly one of enemy_dead, casting, casts")
	}

	switch {
	case c.EnemyDead != 0:
		oid := c.EnemyDead
		return func(m *bossmod.Module, _ time.Duration) bool {
			a := m.PrimaryActor(oid)
			return a == nil || a.IsDead
		}, nil
	case c.Casting != 0:
		id := c.Casting
		return func(m *bossmod.Module, _ time.Duration) bool {
			for a := range m.World.Actors() {
				if a.CastInfo != nil && a.CastInfo.Action.ID == id {
					return true
				}
			}
			return false
		}, nil
	default:
		want := *c.Casts
		if want.Component == "" || want.Count <= 0 {
			return nil, fmt.Errorf("casts needs a component and a positive count")
		}
		return func(m *bossmod.Module, _ time.Duration) bool {
			for _, comp := range m.Components() {
				if cc, ok := comp.(*components.CastCounter); ok && cc.Name == want.Component {
					return cc.Count() >= want.Count
				}
			}
			return false
		}, nil
	}
}
