package encounters

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/milk9111/bossmod/aoe"
	"github.com/milk9111/bossmod/bossmod"
	"github.com/milk9111/bossmod/components"
	"github.com/milk9111/bossmod/script"
	"github.com/milk9111/bossmod/world"
)

var (
	ErrUnknownKind  = errors.New("encounters: unknown component kind")
	ErrUnknownState = errors.New("encounters: unknown timeline state")
	ErrBadAction    = errors.New("encounters: malformed timeline action")
)

const defaultArenaRadius = 20

type Options struct {
	Logger *log.Logger
	Debug  bool
	// RaidSize overrides the encounter's raid size when positive.
	RaidSize int
}

// builder carries what component constructors need while an encounter is
// being assembled.
type builder struct {
	spec      *Spec
	lib       Library
	programs  map[string]*script.Program
	encScript *script.Instance
}

type kindFunc func(b *builder, c ComponentSpec) (func() bossmod.Component, error)

var kinds = map[string]kindFunc{
	"self_targeted":     castHazardKind(components.SelfTargetedAOEs),
	"location_targeted": castHazardKind(components.LocationTargetedAOEs),
	"charge": func(_ *builder, c ComponentSpec) (func() bossmod.Component, error) {
		if c.HalfWidth <= 0 {
			return nil, fmt.Errorf("charge needs a positive half_width")
		}
		actions := spells(c.Actions)
		return func() bossmod.Component {
			h := components.ChargeAOEs(c.Name, c.HalfWidth, actions...)
			h.RiskText = c.RiskText
			return h
		}, nil
	},
	"cast_hint": func(_ *builder, c ComponentSpec) (func() bossmod.Component, error) {
		if c.Text == "" {
			return nil, fmt.Errorf("cast_hint needs text")
		}
		actions := spells(c.Actions)
		return func() bossmod.Component { return components.NewCastHint(c.Name, c.Text, actions...) }, nil
	},
	"cast_counter": func(_ *builder, c ComponentSpec) (func() bossmod.Component, error) {
		actions := spells(c.Actions)
		return func() bossmod.Component { return components.NewCastCounter(c.Name, actions...) }, nil
	},
	"knockback": func(_ *builder, c ComponentSpec) (func() bossmod.Component, error) {
		if c.Distance <= 0 {
			return nil, fmt.Errorf("knockback needs a positive distance")
		}
		actions := spells(c.Actions)
		return func() bossmod.Component {
			k := components.NewKnockbackFromCaster(c.Name, c.Distance, actions...)
			k.MaxRange = c.MaxRange
			return k
		}, nil
	},
	"tether": func(_ *builder, c ComponentSpec) (func() bossmod.Component, error) {
		if c.Tether == 0 {
			return nil, fmt.Errorf("tether needs a tether id")
		}
		return func() bossmod.Component { return components.NewTetherTracker(c.Name, c.Tether, c.Text) }, nil
	},
	"script": func(b *builder, c ComponentSpec) (func() bossmod.Component, error) {
		p, err := b.program(c.Script)
		if err != nil {
			return nil, err
		}
		return func() bossmod.Component {
			sc := script.NewComponent(c.Name, p)
			sc.RiskText = c.RiskText
			return sc
		}, nil
	},
	"iron_splitter": func(_ *builder, c ComponentSpec) (func() bossmod.Component, error) {
		actions := spells(c.Actions)
		return func() bossmod.Component { return NewIronSplitter(c.Name, actions...) }, nil
	},
	"winding_gale": func(_ *builder, c ComponentSpec) (func() bossmod.Component, error) {
		actions := spells(c.Actions)
		return func() bossmod.Component { return NewWindingGale(c.Name, actions...) }, nil
	},
}

func castHazardKind(ctor func(string, aoe.Shape, ...world.ActionID) *components.CastHazards) kindFunc {
	return func(_ *builder, c ComponentSpec) (func() bossmod.Component, error) {
		shape, err := c.Shape.Build()
		if err != nil {
			return nil, err
		}
		actions := spells(c.Actions)
		return func() bossmod.Component {
			h := ctor(c.Name, shape, actions...)
			h.RiskText = c.RiskText
			return h
		}, nil
	}
}

// Kinds lists the component kinds an encounter file can use.
func Kinds() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func spells(ids []uint32) []world.ActionID {
	out := make([]world.ActionID, 0, len(ids))
	for _, id := range ids {
		out = append(out, world.MakeSpell(id))
	}
	return out
}

func (b *builder) program(path string) (*script.Program, error) {
	if path == "" {
		return nil, fmt.Errorf("no script given")
	}
	if p, ok := b.programs[path]; ok {
		return p, nil
	}
	src, err := b.lib.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	p, err := script.Compile(encounterName(path), src)
	if err != nil {
		return nil, err
	}
	b.programs[path] = p
	return p, nil
}

// Registry builds the component table of the encounter.
func (b *builder) registry() (*bossmod.Registry, error) {
	r := bossmod.NewRegistry()
	for i, c := range b.spec.Components {
		if c.Name == "" {
			return nil, fmt.Errorf("component %d has no name", i)
		}
		kind, ok := kinds[strings.ToLower(c.Kind)]
		if !ok {
			return nil, fmt.Errorf("component %s: %w %q", c.Name, ErrUnknownKind, c.Kind)
		}
		ctor, err := kind(b, c)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", c.Name, err)
		}
		desc := c.Description
		if desc == "" && c.Kind == "script" {
			desc = b.programs[c.Script].Description
		}
		if err := r.Register(bossmod.Registration{
			Name:        c.Name,
			Order:       c.Order,
			Description: desc,
			New:         ctor,
		}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Build assembles a module for spec that listens to w.
func Build(w *world.State, spec *Spec, lib Library, opts Options) (*bossmod.Module, error) {
	if spec == nil {
		return nil, fmt.Errorf("encounters: nil spec")
	}
	b := &builder{spec: spec, lib: lib, programs: map[string]*script.Program{}}
	if spec.Script != "" {
		p, err := b.program(spec.Script)
		if err != nil {
			return nil, fmt.Errorf("encounters: build %s: %w", spec.Name, err)
		}
		b.encScript = p.NewInstance()
	}
	registry, err := b.registry()
	if err != nil {
		return nil, fmt.Errorf("encounters: build %s: %w", spec.Name, err)
	}
	sm, err := b.timeline(registry)
	if err != nil {
		return nil, fmt.Errorf("encounters: build %s: %w", spec.Name, err)
	}

	raidSize := spec.RaidSize
	if opts.RaidSize > 0 {
		raidSize = opts.RaidSize
	}
	bounds := bossmod.Bounds{
		Center:   spec.Arena.Center.Vector,
		HalfSize: spec.Arena.HalfSize,
		Square:   spec.Arena.Square,
	}
	if bounds.HalfSize <= 0 {
		bounds.HalfSize = defaultArenaRadius
	}
	return bossmod.New(w, sm, bossmod.Config{
		Name:     spec.Name,
		RaidSize: raidSize,
		Bounds:   bounds,
		Logger:   opts.Logger,
		Hooks:    b.hooks(),
		Registry: registry,
		Debug:    opts.Debug,
	})
}

// Open loads the named encounter from lib and builds it.
func Open(w *world.State, lib Library, name string, opts Options) (*bossmod.Module, error) {
	spec, err := lib.LoadSpec(name)
	if err != nil {
		return nil, err
	}
	return Build(w, spec, lib, opts)
}

func (b *builder) hooks() bossmod.Hooks {
	h := bossmod.Hooks{
		DrawForegroundPost: b.drawActors,
	}
	if in := b.encScript; in != nil {
		if in.Program().Handles("reset") {
			h.Reset = script.Action(in, "reset")
		}
		if in.Program().Handles("update") {
			h.Update = script.Action(in, "update")
		}
	}
	return h
}

func (b *builder) drawActors(m *bossmod.Module, arena bossmod.Arena) {
	if b.spec.BossOID != 0 {
		for _, e := range m.Enemies(b.spec.BossOID) {
			if !e.IsDead {
				arena.Actor(e, bossmod.ColorEnemy)
			}
		}
	}
	player := m.PlayerSlot()
	for slot, a := range m.Raid().Members() {
		c := bossmod.ColorPlayerGeneric
		if slot == player {
			c = bossmod.ColorPC
		}
		arena.Actor(a, c)
	}
}
