package bossmod

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"reflect"
	"slices"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/bossmod/aoe"
	"github.com/milk9111/bossmod/timeline"
	"github.com/milk9111/bossmod/world"
)

var ErrNoStateMachine = errors.New("bossmod: module needs a compiled state machine")

// Hooks lets an encounter add module level behaviour. Every field is optional.
type Hooks struct {
	Reset               func(m *Module)
	Update              func(m *Module)
	AddHints            func(m *Module, slot int, actor *world.Actor, hints *TextHints, movement *MovementHints)
	RaidMemberCreated   func(m *Module, slot int, actor *world.Actor)
	RaidMemberDestroyed func(m *Module, slot int, actor *world.Actor)
	NonPlayerCreated    func(m *Module, actor *world.Actor)
	NonPlayerDestroyed  func(m *Module, actor *world.Actor)
	DrawBackground      func(m *Module, arena Arena)
	DrawForegroundPre   func(m *Module, arena Arena)
	DrawForegroundPost  func(m *Module, arena Arena)
}

type Config struct {
	Name     string
	RaidSize int
	Bounds   Bounds
	Logger   *log.Logger
	Hooks    Hooks
	Registry *Registry
	// Debug logs every dispatched event.
	Debug bool
}

type opKind uint8

const (
	opActivate opKind = iota
	opDeactivate
	opClear
)

type pendingOp struct {
	kind  opKind
	comp  Component
	match func(Component) bool
	what  string
}

// Module is the orchestrator for one encounter. It listens to a world.State,
// keeps the raid roster and an enemy index, owns the active components and
// drives the encounter timeline.
type Module struct {
	Name         string
	World        *world.State
	StateMachine *timeline.Machine[*Module]
	Bounds       Bounds

	raid       Roster
	enemies    map[uint32][]*world.Actor
	components []Component
	registry   *Registry
	hooks      Hooks
	log        *log.Logger
	debug      bool

	// busy counts nested fan-outs; changes to the active set requested while
	// it is non-zero are queued and applied in order once it drops to zero.
	busy     int
	flushing bool
	pending  []pendingOp
	closed   bool
}

// New creates a module listening to w. Actors already present are processed
// as if they had just been created, and the timeline is armed if w is in combat.
func New(w *world.State, sm *timeline.Machine[*Module], cfg Config) (*Module, error) {
	if w == nil {
		return nil, fmt.Errorf("bossmod: nil world")
	}
	if sm == nil || !sm.Compiled() {
		return nil, ErrNoStateMachine
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	m := &Module{
		Name:         cfg.Name,
		World:        w,
		StateMachine: sm,
		Bounds:       cfg.Bounds,
		raid:         NewRoster(cfg.RaidSize),
		enemies:      make(map[uint32][]*world.Actor),
		registry:     registry,
		hooks:        cfg.Hooks,
		log:          logger,
		debug:        cfg.Debug,
	}
	if m.Name == "" {
		m.Name = "module"
	}
	for a := range w.Actors() {
		m.ActorCreated(a)
	}
	w.AddListener(m)
	if w.InCombat() {
		m.enterCombat()
	}
	return m, nil
}

// Close detaches the module from the world and drops every component.
func (m *Module) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.World.RemoveListener(m)
	m.StateMachine.Stop()
	m.components = nil
	m.pending = nil
}

func (m *Module) logf(format string, args ...any) {
	m.log.Printf("bossmod: %s: "+format, append([]any{m.Name}, args...)...)
}

func (m *Module) tracef(format string, args ...any) {
	if m.debug {
		m.logf(format, args...)
	}
}

func (m *Module) Logger() *log.Logger { return m.log }

func (m *Module) Registry() *Registry { return m.registry }

// Raid returns the roster. Callers must not modify it.
func (m *Module) Raid() *Roster { return &m.raid }

// RaidMember returns the actor in slot, or nil when empty or out of range.
func (m *Module) RaidMember(slot int) *world.Actor { return m.raid.Member(slot) }

// PlayerSlot is the roster slot of the local player, or -1.
func (m *Module) PlayerSlot() int { return m.raid.FindSlot(m.World.PlayerID()) }

func (m *Module) Player() *world.Actor { return m.raid.Member(m.PlayerSlot()) }

// Enemies returns live non-player actors with the given OID. The list is
// built on first use and kept current afterwards. Callers must not modify it.
func (m *Module) Enemies(oid uint32) []*world.Actor {
	if list, ok := m.enemies[oid]; ok {
		return list
	}
	list := make([]*world.Actor, 0, 1)
	for a := range m.World.Actors() {
		if a.OID == oid && a.Type != world.ActorTypePlayer {
			list = append(list, a)
		}
	}
	m.enemies[oid] = list
	return list
}

// PrimaryActor returns the first live enemy with oid, or nil.
func (m *Module) PrimaryActor(oid uint32) *world.Actor {
	if list := m.Enemies(oid); len(list) > 0 {
		return list[0]
	}
	return nil
}

// Components returns a snapshot of the active components in activation order.
func (m *Module) Components() []Component {
	return slices.Clone(m.components)
}

// ComponentNames lists active components by registry name where known.
func (m *Module) ComponentNames() []string {
	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		if n, ok := m.registry.NameOf(c); ok {
			names = append(names, n)
			continue
		}
		names = append(names, ComponentName(c))
	}
	return names
}

// Activate registers c, replacing an active component with the same
// identity, and returns it. Identity is the Go type plus ComponentName for
// Named components, so one type may be live several times under distinct
// names; Deactivate[T] still removes all of them.
func Activate[T Component](m *Module, c T) T {
	m.ActivateComponent(c)
	return c
}

// Deactivate removes every active component of type T.
func Deactivate[T Component](m *Module) {
	m.DeactivateType(reflect.TypeFor[T]())
}

// Find returns the earliest activated component of type T.
func Find[T Component](m *Module) (T, bool) {
	for _, c := range m.components {
		if v, ok := c.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func (m *Module) ActivateComponent(c Component) {
	if c == nil {
		return
	}
	m.schedule(pendingOp{kind: opActivate, comp: c})
}

func (m *Module) DeactivateType(t reflect.Type) {
	m.schedule(pendingOp{
		kind:  opDeactivate,
		match: func(c Component) bool { return typeMatches(c, t) },
		what:  t.String(),
	})
}

// ActivateByName creates and activates the registered component called name.
func (m *Module) ActivateByName(name string) error {
	reg, ok := m.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	m.ActivateComponent(reg.New())
	return nil
}

// DeactivateByName removes the live instances of the registered component.
func (m *Module) DeactivateByName(name string) error {
	reg, ok := m.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	m.schedule(pendingOp{kind: opDeactivate, match: reg.matches, what: name})
	return nil
}

// Reset drops every component and runs the reset hook.
func (m *Module) Reset() {
	m.schedule(pendingOp{kind: opClear})
}

func (m *Module) schedule(op pendingOp) {
	if m.closed {
		return
	}
	if m.busy > 0 || m.flushing {
		m.tracef("deferring %s", op)
		m.pending = append(m.pending, op)
		return
	}
	m.apply(op)
	m.flush()
}

func (op pendingOp) String() string {
	switch op.kind {
	case opActivate:
		return "activate " + ComponentName(op.comp)
	case opDeactivate:
		return "deactivate " + op.what
	default:
		return "reset"
	}
}

func (m *Module) apply(op pendingOp) {
	switch op.kind {
	case opActivate:
		id := identityOf(op.comp)
		if i := slices.IndexFunc(m.components, func(c Component) bool { return identityOf(c) == id }); i >= 0 {
			m.logf("component %s already active, replacing", ComponentName(op.comp))
			m.components = slices.Delete(m.components, i, i+1)
		}
		m.components = append(m.components, op.comp)
		m.backfill(op.comp)
	case opDeactivate:
		before := len(m.components)
		m.components = slices.DeleteFunc(m.components, op.match)
		if len(m.components) == before {
			m.logf("deactivate %s: no active instance", op.what)
		}
	case opClear:
		m.components = nil
		if m.hooks.Reset != nil {
			m.begin()
			m.hooks.Reset(m)
			m.end()
		}
	}
}

// backfill replays facts that predate c's activation.
func (m *Module) backfill(c Component) {
	m.begin()
	defer m.end()
	for a := range m.World.Actors() {
		if a.CastInfo != nil {
			c.OnCastStarted(m, a)
		}
		if !a.Tether.IsEmpty() {
			c.OnTethered(m, a)
		}
		for i, s := range a.Statuses {
			if !s.IsEmpty() {
				c.OnStatusGain(m, a, i)
			}
		}
	}
}

func (m *Module) begin() { m.busy++ }

func (m *Module) end() {
	m.busy--
	if m.busy == 0 {
		m.flush()
	}
}

func (m *Module) flush() {
	if m.flushing {
		return
	}
	m.flushing = true
	defer func() { m.flushing = false }()
	for len(m.pending) > 0 {
		op := m.pending[0]
		m.pending = m.pending[1:]
		m.apply(op)
	}
}

// each calls fn for every active component in activation order. Changes to
// the active set made meanwhile take effect when the outermost call returns.
func (m *Module) each(fn func(c Component)) {
	m.begin()
	defer m.end()
	for _, c := range m.components {
		fn(c)
	}
}

// Update advances the timeline to the world's current time, then runs the
// update hook and every component.
func (m *Module) Update() {
	if m.closed {
		return
	}
	if _, err := m.StateMachine.Update(m, m.World.Now()); err != nil {
		m.logf("timeline: %v", err)
	}
	m.begin()
	defer m.end()
	if m.hooks.Update != nil {
		m.hooks.Update(m)
	}
	for _, c := range m.components {
		c.Update(m)
	}
}

// ForceTransition advances the timeline one step regardless of its condition.
func (m *Module) ForceTransition() bool {
	if m.closed {
		return false
	}
	from := m.StateMachine.Active()
	if !m.StateMachine.ForceTransition(m, m.World.Now()) {
		return false
	}
	m.logf("forced transition %v -> %v", from, m.StateMachine.Active())
	return true
}

// CalculateHints collects hints for one raid member in activation order.
func (m *Module) CalculateHints(slot int, actor *world.Actor, movement *MovementHints) TextHints {
	var hints TextHints
	if actor == nil {
		return hints
	}
	m.each(func(c Component) { c.AddHints(m, slot, actor, &hints, movement) })
	if m.hooks.AddHints != nil {
		m.hooks.AddHints(m, slot, actor, &hints, movement)
	}
	return hints
}

// ActiveHazards yields the hazards of every HazardSource component for one
// raid member.
func (m *Module) ActiveHazards(slot int, actor *world.Actor) iter.Seq[aoe.Instance] {
	return func(yield func(aoe.Instance) bool) {
		for _, c := range m.Components() {
			src, ok := c.(HazardSource)
			if !ok {
				continue
			}
			for h := range src.ActiveHazards(m, slot, actor) {
				if !yield(h) {
					return
				}
			}
		}
	}
}

// Draw issues the arena draw calls for one frame: module background,
// component backgrounds, border, module foreground, component foregrounds,
// then the module's final overlay.
func (m *Module) Draw(arena Arena) {
	m.begin()
	defer m.end()
	if m.hooks.DrawBackground != nil {
		m.hooks.DrawBackground(m, arena)
	}
	for _, c := range m.components {
		c.DrawArenaBackground(m, arena)
	}
	arena.Border()
	if m.hooks.DrawForegroundPre != nil {
		m.hooks.DrawForegroundPre(m, arena)
	}
	for _, c := range m.components {
		c.DrawArenaForeground(m, arena)
	}
	if m.hooks.DrawForegroundPost != nil {
		m.hooks.DrawForegroundPost(m, arena)
	}
}

func (m *Module) enterCombat() {
	m.Reset()
	if err := m.StateMachine.Start(m, m.World.Now()); err != nil {
		m.logf("timeline: %v", err)
	}
}

func (m *Module) exitCombat() {
	m.StateMachine.Stop()
	m.Reset()
}

// AdjustPositionForKnockback returns pos pushed distance away from origin.
func AdjustPositionForKnockback(pos, origin cp.Vector, distance float64) cp.Vector {
	if pos.Equal(origin) {
		return pos
	}
	return pos.Add(pos.Sub(origin).Normalize().Mult(distance))
}
