package script

import (
	"iter"
	"slices"

	"github.com/milk9111/bossmod/aoe"
	"github.com/milk9111/bossmod/bossmod"
	"github.com/milk9111/bossmod/components"
	"github.com/milk9111/bossmod/world"
)

type keyedHazard struct {
	key    string
	hazard aoe.Instance
}

// hazardSet keeps hazards in the order their keys were first tracked.
type hazardSet struct {
	items []keyedHazard
}

func (s *hazardSet) put(key string, h aoe.Instance) {
	if i := slices.IndexFunc(s.items, func(k keyedHazard) bool { return k.key == key }); i >= 0 {
		s.items[i].hazard = h
		return
	}
	s.items = append(s.items, keyedHazard{key: key, hazard: h})
}

func (s *hazardSet) remove(key string) bool {
	n := len(s.items)
	s.items = slices.DeleteFunc(s.items, func(k keyedHazard) bool { return k.key == key })
	return len(s.items) != n
}

func (s *hazardSet) clear() { s.items = nil }

// Component runs a tengo program as a mechanic. Each world event calls the
// handler of the same name (cast_started, status_gain, hints...). Hazards
// tracked by the script count as the component's active hazards.
type Component struct {
	bossmod.BaseComponent

	Name     string
	RiskText string

	inst    *Instance
	hazards hazardSet
	failed  bool
}

func NewComponent(name string, p *Program) *Component {
	return &Component{Name: name, inst: p.NewInstance()}
}

func (c *Component) ComponentName() string { return c.Name }

// State exposes the script's persistent state map.
func (c *Component) State() map[string]any { return c.inst.State() }

func (c *Component) run(m *bossmod.Module, phase string, event map[string]any, hints *bossmod.TextHints, movement *bossmod.MovementHints) {
	if c.failed || !c.inst.Program().Handles(phase) {
		return
	}
	b := &binding{m: m, name: c.Name, hazards: &c.hazards, hints: hints, movement: movement}
	if err := c.inst.Run(phase, buildEngine(b), event); err != nil {
		// A failing script is disabled after its first error.
		m.Logger().Printf("script: %s: %s: %v", c.Name, phase, err)
		c.failed = true
	}
}

func (c *Component) Update(m *bossmod.Module) {
	c.run(m, "update", nil, nil, nil)
}

func (c *Component) AddHints(m *bossmod.Module, slot int, actor *world.Actor, hints *bossmod.TextHints, movement *bossmod.MovementHints) {
	if components.InAny(c.ActiveHazards(m, slot, actor), actor) {
		text := c.RiskText
		if text == "" {
			text = components.DefaultRiskText
		}
		hints.Add(text, true)
	}
	c.run(m, "hints", map[string]any{"slot": int64(slot), "actor": actorMap(actor)}, hints, movement)
}

func (c *Component) ActiveHazards(*bossmod.Module, int, *world.Actor) iter.Seq[aoe.Instance] {
	return func(yield func(aoe.Instance) bool) {
		for _, k := range c.hazards.items {
			if !yield(k.hazard) {
				return
			}
		}
	}
}

func (c *Component) DrawArenaBackground(_ *bossmod.Module, arena bossmod.Arena) {
	for _, k := range c.hazards.items {
		arena.Zone(k.hazard.Shape, k.hazard.Origin, k.hazard.Rotation, bossmod.ColorAOE)
	}
}

func (c *Component) OnActorCreated(m *bossmod.Module, a *world.Actor) {
	c.run(m, "actor_created", map[string]any{"actor": actorMap(a)}, nil, nil)
}

func (c *Component) OnActorDestroyed(m *bossmod.Module, a *world.Actor) {
	c.run(m, "actor_destroyed", map[string]any{"actor": actorMap(a)}, nil, nil)
}

func (c *Component) OnCastStarted(m *bossmod.Module, caster *world.Actor) {
	if caster.CastInfo == nil {
		return
	}
	c.run(m, "cast_started", castEvent(caster, caster.CastInfo), nil, nil)
}

func (c *Component) OnCastFinished(m *bossmod.Module, caster *world.Actor, cast *world.CastInfo) {
	c.run(m, "cast_finished", castEvent(caster, cast), nil, nil)
}

func (c *Component) OnCastCancelled(m *bossmod.Module, caster *world.Actor, cast *world.CastInfo) {
	c.run(m, "cast_cancelled", castEvent(caster, cast), nil, nil)
}

func (c *Component) OnTethered(m *bossmod.Module, source *world.Actor) {
	c.run(m, "tethered", tetherEvent(source), nil, nil)
}

func (c *Component) OnUntethered(m *bossmod.Module, source *world.Actor) {
	c.run(m, "untethered", tetherEvent(source), nil, nil)
}

func (c *Component) OnStatusGain(m *bossmod.Module, a *world.Actor, index int) {
	c.run(m, "status_gain", statusEvent(a, index), nil, nil)
}

func (c *Component) OnStatusLose(m *bossmod.Module, a *world.Actor, index int) {
	c.run(m, "status_lose", statusEvent(a, index), nil, nil)
}

func (c *Component) OnStatusChange(m *bossmod.Module, a *world.Actor, index int) {
	c.run(m, "status_change", statusEvent(a, index), nil, nil)
}

func (c *Component) OnEventIcon(m *bossmod.Module, actorID uint64, iconID uint32) {
	c.run(m, "icon", map[string]any{"actor": int64(actorID), "icon": int64(iconID)}, nil, nil)
}

func (c *Component) OnEventCast(m *bossmod.Module, result *world.CastResult) {
	targets := make([]any, 0, len(result.Targets))
	for _, t := range result.Targets {
		targets = append(targets, int64(t.ID))
	}
	c.run(m, "event_cast", map[string]any{
		"caster":  int64(result.CasterID),
		"action":  int64(result.Action.ID),
		"target":  int64(result.MainTargetID),
		"targets": targets,
		"x":       result.TargetLocation.X,
		"y":       result.TargetLocation.Y,
	}, nil, nil)
}

func (c *Component) OnEventEnvControl(m *bossmod.Module, featureID uint32, index uint8, state uint32) {
	c.run(m, "env_control", map[string]any{
		"feature": int64(featureID),
		"index":   int64(index),
		"state":   int64(state),
	}, nil, nil)
}

func castEvent(caster *world.Actor, cast *world.CastInfo) map[string]any {
	return map[string]any{
		"actor":    actorMap(caster),
		"action":   int64(cast.Action.ID),
		"target":   int64(cast.TargetID),
		"x":        cast.Location.X,
		"y":        cast.Location.Y,
		"rotation": cast.Rotation.Deg(),
	}
}

func tetherEvent(source *world.Actor) map[string]any {
	return map[string]any{
		"actor":  actorMap(source),
		"tether": int64(source.Tether.ID),
		"target": int64(source.Tether.Target),
	}
}

func statusEvent(a *world.Actor, index int) map[string]any {
	s := a.Statuses[index]
	return map[string]any{
		"actor":  actorMap(a),
		"index":  int64(index),
		"status": int64(s.ID),
		"extra":  int64(s.Extra),
		"source": int64(s.SourceID),
	}
}

// Action returns a timeline action that runs the handler on the instance.
// Errors are logged and the timeline keeps going.
func Action(in *Instance, handler string) func(m *bossmod.Module) {
	return func(m *bossmod.Module) {
		if !in.Program().Handles(handler) {
			return
		}
		state := ""
		if s := m.StateMachine.Active(); s != nil {
			state = s.Name
		}
		b := &binding{m: m, name: in.Program().Name}
		if err := in.Run(handler, buildEngine(b), map[string]any{"state": state}); err != nil {
			b.logf("%s: %v", handler, err)
		}
	}
}
