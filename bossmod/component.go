package bossmod

import (
	"iter"
	"reflect"

	"github.com/milk9111/bossmod/aoe"
	"github.com/milk9111/bossmod/world"
)

// Component tracks one mechanic of an encounter. The module calls it from a
// single goroutine, in activation order, for every world event.
type Component interface {
	Update(m *Module)
	AddHints(m *Module, slot int, actor *world.Actor, hints *TextHints, movement *MovementHints)
	DrawArenaBackground(m *Module, arena Arena)
	DrawArenaForeground(m *Module, arena Arena)

	OnActorCreated(m *Module, actor *world.Actor)
	OnActorDestroyed(m *Module, actor *world.Actor)
	OnCastStarted(m *Module, caster *world.Actor)
	OnCastFinished(m *Module, caster *world.Actor, cast *world.CastInfo)
	OnCastCancelled(m *Module, caster *world.Actor, cast *world.CastInfo)
	OnTethered(m *Module, source *world.Actor)
	OnUntethered(m *Module, source *world.Actor)
	OnStatusGain(m *Module, actor *world.Actor, index int)
	OnStatusLose(m *Module, actor *world.Actor, index int)
	OnStatusChange(m *Module, actor *world.Actor, index int)
	OnEventIcon(m *Module, actorID uint64, iconID uint32)
	OnEventCast(m *Module, result *world.CastResult)
	OnEventEnvControl(m *Module, featureID uint32, index uint8, state uint32)
}

// BaseComponent implements every Component callback as a no-op.
type BaseComponent struct{}

func (BaseComponent) Update(*Module) {}
func (BaseComponent) AddHints(*Module, int, *world.Actor, *TextHints, *MovementHints) {}
func (BaseComponent) DrawArenaBackground(*Module, Arena) {}
func (BaseComponent) DrawArenaForeground(*Module, Arena) {}
func (BaseComponent) OnActorCreated(*Module, *world.Actor) {}
func (BaseComponent) OnActorDestroyed(*Module, *world.Actor) {}
func (BaseComponent) OnCastStarted(*Module, *world.Actor) {}
func (BaseComponent) OnCastFinished(*Module, *world.Actor, *world.CastInfo) {}
func (BaseComponent) OnCastCancelled(*Module, *world.Actor, *world.CastInfo) {}
func (BaseComponent) OnTethered(*Module, *world.Actor) {}
func (BaseComponent) OnUntethered(*Module, *world.Actor) {}
func (BaseComponent) OnStatusGain(*Module, *world.Actor, int) {}
func (BaseComponent) OnStatusLose(*Module, *world.Actor, int) {}
func (BaseComponent) OnStatusChange(*Module, *world.Actor, int) {}
func (BaseComponent) OnEventIcon(*Module, uint64, uint32) {}
func (BaseComponent) OnEventCast(*Module, *world.CastResult) {}
func (BaseComponent) OnEventEnvControl(*Module, uint32, uint8, uint32) {}

// HazardSource is implemented by components that own hazard areas.
// ActiveHazards must be free of side effects; it may be polled many times
// per frame.
type HazardSource interface {
	ActiveHazards(m *Module, slot int, actor *world.Actor) iter.Seq[aoe.Instance]
}

// Named distinguishes several configured instances of one Go type, e.g. two
// cast trackers watching different actions. Identity is (type, name).
type Named interface {
	ComponentName() string
}

type componentID struct {
	typ  reflect.Type
	name string
}

func identityOf(c Component) componentID {
	id := componentID{typ: reflect.TypeOf(c)}
	if n, ok := c.(Named); ok {
		id.name = n.ComponentName()
	}
	return id
}

// ComponentName returns a label for logs and diagnostics.
func ComponentName(c Component) string {
	if n, ok := c.(Named); ok && n.ComponentName() != "" {
		return n.ComponentName()
	}
	t := reflect.TypeOf(c)
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// typeMatches reports whether c is of type t, or implements t when t is an interface.
func typeMatches(c Component, t reflect.Type) bool {
	ct := reflect.TypeOf(c)
	if ct == t {
		return true
	}
	return t.Kind() == reflect.Interface && ct.Implements(t)
}
