package script

import (
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/bossmod/aoe"
	"github.com/milk9111/bossmod/bossmod"
	"github.com/milk9111/bossmod/common"
	"github.com/milk9111/bossmod/world"
	"gopkg.in/yaml.v3"
)

// binding is what one script run can see and touch.
type binding struct {
	m    *bossmod.Module
	name string

	// Set only for scripted components.
	hazards *hazardSet
	// Set only while collecting hints.
	hints    *bossmod.TextHints
	movement *bossmod.MovementHints
}

func (b *binding) logf(format string, args ...any) {
	b.m.Logger().Printf("script: %s: "+format, append([]any{b.name}, args...)...)
}

func buildEngine(b *binding) *tengo.ImmutableMap {
	m := b.m
	values := map[string]tengo.Object{}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		b.logf("%s", strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	values["now"] = &tengo.UserFunction{Name: "now", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Time{Value: m.World.Now()}, nil
	}}

	values["phase"] = &tengo.UserFunction{Name: "phase", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if s := m.StateMachine.Active(); s != nil {
			return &tengo.String{Value: s.Name}, nil
		}
		return &tengo.String{Value: ""}, nil
	}}

	values["time_in_phase"] = &tengo.UserFunction{Name: "time_in_phase", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: m.StateMachine.TimeInState(m.World.Now()).Seconds()}, nil
	}}

	values["activate"] = &tengo.UserFunction{Name: "activate", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		if err := m.ActivateByName(strings.TrimSpace(objectAsString(args[0]))); err != nil {
			b.logf("activate: %v", err)
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}

	values["deactivate"] = &tengo.UserFunction{Name: "deactivate", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		if err := m.DeactivateByName(strings.TrimSpace(objectAsString(args[0]))); err != nil {
			b.logf("deactivate: %v", err)
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}

	values["force_transition"] = &tengo.UserFunction{Name: "force_transition", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if m.ForceTransition() {
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}

	values["enemies"] = &tengo.UserFunction{Name: "enemies", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return &tengo.Array{}, nil
		}
		oid, ok := objectAsFloat(args[0])
		if !ok {
			return &tengo.Array{}, nil
		}
		list := m.Enemies(uint32(oid))
		out := make([]any, 0, len(list))
		for _, a := range list {
			out = append(out, actorMap(a))
		}
		return tengo.FromInterface(out)
	}}

	values["actor"] = &tengo.UserFunction{Name: "actor", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.UndefinedValue, nil
		}
		id, ok := objectAsFloat(args[0])
		if !ok {
			return tengo.UndefinedValue, nil
		}
		a, found := m.World.Actor(uint64(id))
		if !found {
			return tengo.UndefinedValue, nil
		}
		return tengo.FromInterface(actorMap(a))
	}}

	values["player"] = &tengo.UserFunction{Name: "player", Value: func(args ...tengo.Object) (tengo.Object, error) {
		a := m.Player()
		if a == nil {
			return tengo.UndefinedValue, nil
		}
		return tengo.FromInterface(actorMap(a))
	}}

	values["arena_center"] = &tengo.UserFunction{Name: "arena_center", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return vecObject(m.Bounds.Center), nil
	}}

	values["knockback"] = &tengo.UserFunction{Name: "knockback", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 3 {
			return tengo.UndefinedValue, nil
		}
		pos, ok1 := objectAsVec(args[0])
		origin, ok2 := objectAsVec(args[1])
		dist, ok3 := objectAsFloat(args[2])
		if !ok1 || !ok2 || !ok3 {
			return tengo.UndefinedValue, nil
		}
		return vecObject(bossmod.AdjustPositionForKnockback(pos, origin, dist)), nil
	}}

	values["in_bounds"] = &tengo.UserFunction{Name: "in_bounds", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		if p, ok := objectAsVec(args[0]); ok && m.Bounds.Contains(p) {
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}

	if b.hazards != nil {
		values["track_hazard"] = &tengo.UserFunction{Name: "track_hazard", Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) < 3 {
				return tengo.FalseValue, nil
			}
			key := strings.TrimSpace(objectAsString(args[0]))
			shape, err := objectAsShape(args[1])
			if err != nil {
				b.logf("track_hazard %s: %v", key, err)
				return tengo.FalseValue, nil
			}
			origin, ok := objectAsVec(args[2])
			if key == "" || !ok {
				return tengo.FalseValue, nil
			}
			var rot common.Angle
			if len(args) > 3 {
				if deg, ok := objectAsFloat(args[3]); ok {
					rot = common.Degrees(deg)
				}
			}
			b.hazards.put(key, aoe.Instance{Shape: shape, Origin: origin, Rotation: rot, Activation: m.World.Now()})
			return tengo.TrueValue, nil
		}}

		values["clear_hazard"] = &tengo.UserFunction{Name: "clear_hazard", Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) < 1 {
				return tengo.FalseValue, nil
			}
			if b.hazards.remove(strings.TrimSpace(objectAsString(args[0]))) {
				return tengo.TrueValue, nil
			}
			return tengo.FalseValue, nil
		}}

		values["clear_hazards"] = &tengo.UserFunction{Name: "clear_hazards", Value: func(args ...tengo.Object) (tengo.Object, error) {
			b.hazards.clear()
			return tengo.UndefinedValue, nil
		}}
	}

	if b.hints != nil {
		values["hint"] = &tengo.UserFunction{Name: "hint", Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) < 1 {
				return tengo.FalseValue, nil
			}
			risk := len(args) > 1 && !args[1].IsFalsy()
			b.hints.Add(objectAsString(args[0]), risk)
			return tengo.TrueValue, nil
		}}

		values["move_hint"] = &tengo.UserFunction{Name: "move_hint", Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) < 2 {
				return tengo.FalseValue, nil
			}
			from, ok1 := objectAsVec(args[0])
			to, ok2 := objectAsVec(args[1])
			if !ok1 || !ok2 {
				return tengo.FalseValue, nil
			}
			risk := len(args) > 2 && !args[2].IsFalsy()
			b.movement.Add(from, to, risk)
			return tengo.TrueValue, nil
		}}
	}

	return &tengo.ImmutableMap{Value: values}
}

func actorMap(a *world.Actor) map[string]any {
	out := map[string]any{
		"id":       int64(a.InstanceID),
		"oid":      int64(a.OID),
		"name":     a.Name,
		"type":     a.Type.String(),
		"x":        a.Position.X,
		"y":        a.Position.Y,
		"rotation": a.Rotation.Deg(),
		"dead":     a.IsDead,
		"target":   int64(a.TargetID),
	}
	if a.CastInfo != nil {
		out["cast"] = map[string]any{
			"action":   int64(a.CastInfo.Action.ID),
			"target":   int64(a.CastInfo.TargetID),
			"x":        a.CastInfo.Location.X,
			"y":        a.CastInfo.Location.Y,
			"rotation": a.CastInfo.Rotation.Deg(),
		}
	}
	return out
}

func vecObject(v cp.Vector) tengo.Object {
	return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: v.X}, &tengo.Float{Value: v.Y}}}
}

// objectAsVec accepts [x, y] or anything with x and y keys, such as an actor.
func objectAsVec(obj tengo.Object) (cp.Vector, bool) {
	switch v := objectToAny(obj).(type) {
	case []any:
		if len(v) != 2 {
			return cp.Vector{}, false
		}
		x, ok1 := number(v[0])
		y, ok2 := number(v[1])
		return cp.Vector{X: x, Y: y}, ok1 && ok2
	case map[string]any:
		x, ok1 := number(v["x"])
		y, ok2 := number(v["y"])
		return cp.Vector{X: x, Y: y}, ok1 && ok2
	default:
		return cp.Vector{}, false
	}
}

// objectAsShape decodes a map such as {kind: "donut", inner: 4, outer: 8}
// through the same YAML form encounter files use.
func objectAsShape(obj tengo.Object) (aoe.Shape, error) {
	fields, ok := objectToAny(obj).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("shape must be a map, got %s", obj.TypeName())
	}
	raw, err := yaml.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var spec aoe.ShapeSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, err
	}
	return spec.Build()
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
