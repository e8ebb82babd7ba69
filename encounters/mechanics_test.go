package encounters

import (
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/bossmod/aoe"
	"github.com/milk9111/bossmod/bossmod"
	"github.com/milk9111/bossmod/common"
	"github.com/milk9111/bossmod/timeline"
	"github.com/milk9111/bossmod/world"
)

var arenaCenter = cp.Vector{X: 100, Y: 100}

func newModule(t *testing.T) (*world.State, *bossmod.Module) {
	t.Helper()
	w := world.NewState(t0)
	sm := timeline.New[*bossmod.Module]()
	sm.MustCompile(sm.AddState("fight", 0).Hold())
	m, err := bossmod.New(w, sm, bossmod.Config{
		Name:   "test",
		Bounds: bossmod.Bounds{Center: arenaCenter, HalfSize: 25},
		Logger: log.New(&bytes.Buffer{}, "", 0),
	})
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	return w, m
}

func collect(src bossmod.HazardSource, m *bossmod.Module) []aoe.Instance {
	var out []aoe.Instance
	for h := range src.ActiveHazards(m, 0, nil) {
		out = append(out, h)
	}
	return out
}

func inAny(hazards []aoe.Instance, p cp.Vector) bool {
	for _, h := range hazards {
		if h.Check(p) {
			return true
		}
	}
	return false
}

func TestIronSplitterPatterns(t *testing.T) {
	tests := []struct {
		name   string
		caster cp.Vector
		hit    []float64
		safe   []float64
	}{
		{name: "boss on center tile", caster: cp.Vector{Y: 1}, hit: []float64{2, 10, 18}, safe: []float64{6, 14, 22}},
		{name: "boss on third tile", caster: cp.Vector{Y: 10.5}, hit: []float64{2, 10, 18}, safe: []float64{6, 14, 22}},
		{name: "boss on sand", caster: cp.Vector{Y: 6}, hit: []float64{6, 14, 22}, safe: []float64{2, 10, 18}},
		{name: "boss at tile edge", caster: cp.Vector{Y: 9}, hit: []float64{6, 14, 22}, safe: []float64{2, 10, 18}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, m := newModule(t)
			c := bossmod.Activate(m, NewIronSplitter("iron_splitter", world.MakeSpell(1)))
			boss := &world.Actor{InstanceID: 0x10, Type: world.ActorTypeEnemy, Position: arenaCenter.Add(tt.caster)}
			if err := w.CreateActor(boss); err != nil {
				t.Fatalf("create: %v", err)
			}
			if err := w.StartCast(boss.InstanceID, world.CastInfo{Action: world.MakeSpell(1), FinishAt: t0.Add(5 * time.Second)}); err != nil {
				t.Fatalf("cast: %v", err)
			}
			hazards := collect(c, m)
			if len(hazards) != 3 {
				t.Fatalf("got %d hazards, want 3", len(hazards))
			}
			for _, d := range tt.hit {
				if !inAny(hazards, arenaCenter.Add(cp.Vector{X: d})) {
					t.Fatalf("distance %g should be hit", d)
				}
			}
			for _, d := range tt.safe {
				if inAny(hazards, arenaCenter.Add(cp.Vector{X: d})) {
					t.Fatalf("distance %g should be safe", d)
				}
			}

			if err := w.CancelCast(boss.InstanceID); err != nil {
				t.Fatalf("cancel: %v", err)
			}
			if n := len(collect(c, m)); n != 0 {
				t.Fatalf("%d hazards left after cancel", n)
			}
		})
	}
}

func TestWindingGaleSitsInFrontOfCaster(t *testing.T) {
	w, m := newModule(t)
	c := bossmod.Activate(m, NewWindingGale("winding_gale", world.MakeSpell(2)))
	arm := &world.Actor{InstanceID: 0x20, Type: world.ActorTypeEnemy, Position: arenaCenter}
	if err := w.CreateActor(arm); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := w.StartCast(arm.InstanceID, world.CastInfo{Action: world.MakeSpell(2)}); err != nil {
		t.Fatalf("cast: %v", err)
	}

	hazards := collect(c, m)
	if len(hazards) != 1 {
		t.Fatalf("got %d hazards, want 1", len(hazards))
	}
	if want := arenaCenter.Add(cp.Vector{Y: 11}); !hazards[0].Origin.Equal(want) {
		t.Fatalf("origin = %v, want %v", hazards[0].Origin, want)
	}

	checks := []struct {
		name string
		pos  cp.Vector
		want bool
	}{
		{name: "front arc", pos: cp.Vector{X: 100, Y: 121}, want: true},
		{name: "back arc", pos: cp.Vector{X: 100, Y: 101}, want: false},
		{name: "side on wedge edge", pos: cp.Vector{X: 110, Y: 111}, want: false},
		{name: "inside hole", pos: cp.Vector{X: 100, Y: 116}, want: false},
	}
	for _, tc := range checks {
		if got := hazards[0].Check(tc.pos); got != tc.want {
			t.Fatalf("%s: Check(%v) = %v, want %v", tc.name, tc.pos, got, tc.want)
		}
	}

	// The hazard follows the caster while it turns.
	if err := w.MoveActor(arm.InstanceID, arenaCenter, common.Degrees(90)); err != nil {
		t.Fatalf("move: %v", err)
	}
	if want := arenaCenter.Add(cp.Vector{X: 11}); !collect(c, m)[0].Origin.Equal(want) {
		t.Fatalf("origin after turn = %v, want %v", collect(c, m)[0].Origin, want)
	}

	if err := w.FinishCast(arm.InstanceID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if n := len(collect(c, m)); n != 0 {
		t.Fatalf("%d hazards after finish", n)
	}
}
