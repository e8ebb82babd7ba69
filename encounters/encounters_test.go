package encounters

import (
	"bytes"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/bossmod/aoe"
	"github.com/milk9111/bossmod/bossmod"
	"github.com/milk9111/bossmod/common"
	"github.com/milk9111/bossmod/script"
	"github.com/milk9111/bossmod/timeline"
	"github.com/milk9111/bossmod/world"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func open(t *testing.T, lib Library, name string) (*world.State, *bossmod.Module, *bytes.Buffer) {
	t.Helper()
	w := world.NewState(t0)
	var out bytes.Buffer
	m, err := Open(w, lib, name, Options{Logger: log.New(&out, "", 0)})
	if err != nil {
		t.Fatalf("open %s: %v", name, err)
	}
	return w, m, &out
}

func create(t *testing.T, w *world.State, a *world.Actor) *world.Actor {
	t.Helper()
	if err := w.CreateActor(a); err != nil {
		t.Fatalf("create %X: %v", a.InstanceID, err)
	}
	return a
}

func TestEmbeddedEncountersBuild(t *testing.T) {
	names, err := Library{}.Names()
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	want := []string{"barbariccia", "bone_crawler", "gale_warden", "trinity_seeker"}
	if !slices.Equal(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			_, m, _ := open(t, Library{}, name)
			if m.Name != name {
				t.Fatalf("module name = %q", m.Name)
			}
			if len(m.Registry().Entries()) == 0 {
				t.Fatalf("no registered components")
			}
		})
	}
}

func TestEmbeddedScriptsCompile(t *testing.T) {
	paths, err := fs.Glob(DataFS, "data/scripts/*.tengo")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(paths) == 0 {
		t.Fatalf("no embedded scripts")
	}
	for _, path := range paths {
		t.Run(encounterName(path), func(t *testing.T) {
			src, err := DataFS.ReadFile(path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			p, err := script.Compile(encounterName(path), src)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if p.Description == "" {
				t.Fatalf("%s has no description", path)
			}
		})
	}
}

func TestDiskOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	src := `
name: bone_crawler
description: edited on disk
timeline:
  states:
    - name: only
      manual: true
`
	if err := os.WriteFile(filepath.Join(dir, "bone_crawler.yaml"), []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	lib := Library{Dir: dir}
	spec, err := lib.LoadSpec("bone_crawler")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if spec.Description != "edited on disk" {
		t.Fatalf("description = %q", spec.Description)
	}
	if _, ok := lib.ModTime("bone_crawler"); !ok {
		t.Fatalf("expected a disk mod time")
	}
	if _, ok := (Library{}).ModTime("bone_crawler"); ok {
		t.Fatalf("embedded-only library reported a mod time")
	}

	// Scripts not present on disk still come from the embedded copy.
	if _, err := lib.Load("scripts/vortex.tengo"); err != nil {
		t.Fatalf("load embedded script: %v", err)
	}
}

func TestBoneCrawlerFight(t *testing.T) {
	w, m, out := open(t, Library{}, "bone_crawler")
	player := create(t, w, &world.Actor{InstanceID: 1, Type: world.ActorTypePlayer, Position: cp.Vector{Y: 5}})
	boss := create(t, w, &world.Actor{InstanceID: 0x100, OID: 0x1AB5, Type: world.ActorTypeEnemy})
	w.SetInCombat(true)
	m.Update()

	want := []string{"heat_breath", "ripper_claw", "wild_charge", "hot_charge", "tail_swing", "tail_swing_kb", "tail_smash"}
	if names := m.ComponentNames(); !slices.Equal(names, want) {
		t.Fatalf("components = %v", names)
	}

	if err := w.StartCast(boss.InstanceID, world.CastInfo{Action: world.MakeSpell(7924), FinishAt: t0.Add(3 * time.Second)}); err != nil {
		t.Fatalf("cast: %v", err)
	}
	if hints := m.CalculateHints(0, player, nil); !hints.HasRisk() {
		t.Fatalf("player in front of heat breath got no risk hint: %+v", hints)
	}
	if err := w.MoveActor(player.InstanceID, cp.Vector{Y: -5}, 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	if hints := m.CalculateHints(0, player, nil); hints.HasRisk() {
		t.Fatalf("player behind the boss got a risk hint: %+v", hints)
	}

	if err := w.SetDead(boss.InstanceID, true); err != nil {
		t.Fatalf("kill: %v", err)
	}
	w.Advance(t0.Add(time.Second))
	m.Update()
	if s := m.StateMachine.Active(); s == nil || s.Name != "cleared" {
		t.Fatalf("active = %v, want cleared", s)
	}
	if !strings.Contains(out.String(), "encounters: bone_crawler: boss defeated") {
		t.Fatalf("missing log line:\n%s", out.String())
	}
}

func TestTrinitySeekerCountsSplitters(t *testing.T) {
	w, m, _ := open(t, Library{}, "trinity_seeker")
	boss := create(t, w, &world.Actor{InstanceID: 0x100, OID: 0x30DC, Type: world.ActorTypeEnemy, Position: cp.Vector{Y: 278}})
	w.SetInCombat(true)

	w.Advance(t0.Add(8 * time.Second))
	m.Update()
	if s := m.StateMachine.Active(); s.Name != "first_splitter" {
		t.Fatalf("active = %s", s.Name)
	}

	for i := range 2 {
		w.Cast(world.CastResult{CasterID: boss.InstanceID, Action: world.MakeSpell(23201)})
		m.Update()
		if i == 0 && m.StateMachine.Active().Name != "second_splitter" {
			t.Fatalf("after first cast: %s", m.StateMachine.Active().Name)
		}
	}
	if s := m.StateMachine.Active(); s.Name != "enrage" {
		t.Fatalf("active = %s, want enrage", s.Name)
	}
	if names := m.ComponentNames(); !slices.Equal(names, []string{"iron_splitter", "splitter_count"}) {
		t.Fatalf("components = %v", names)
	}
}

func TestGaleWardenScriptedTimeline(t *testing.T) {
	w, m, out := open(t, Library{}, "gale_warden")
	player := create(t, w, &world.Actor{InstanceID: 1, Type: world.ActorTypePlayer, Position: cp.Vector{X: 110, Y: 100}})
	boss := create(t, w, &world.Actor{InstanceID: 0x100, OID: 0x4000, Type: world.ActorTypeEnemy, Position: cp.Vector{X: 100, Y: 100}})
	w.SetInCombat(true)

	if names := m.ComponentNames(); !slices.Equal(names, []string{"vortex"}) {
		t.Fatalf("components after pull = %v", names)
	}
	if !strings.Contains(out.String(), "script: gale_warden: opening in pull") {
		t.Fatalf("missing script log:\n%s", out.String())
	}

	w.Advance(t0.Add(2 * time.Second))
	m.Update()
	if names := m.ComponentNames(); !slices.Equal(names, []string{"vortex", "gust_tether", "gale_push"}) {
		t.Fatalf("components in winds = %v", names)
	}

	if err := w.StartCast(boss.InstanceID, world.CastInfo{Action: world.MakeSpell(4101)}); err != nil {
		t.Fatalf("cast: %v", err)
	}
	hints := m.CalculateHints(0, player, nil)
	if len(hints) == 0 || hints[0].Text != "GTFO from aoe!" {
		t.Fatalf("hints in vortex = %+v", hints)
	}
	if err := w.FinishCast(boss.InstanceID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if hints := m.CalculateHints(0, player, nil); len(hints) != 0 {
		t.Fatalf("hints after vortex = %+v", hints)
	}

	if !m.ForceTransition() {
		t.Fatalf("force transition failed")
	}
	if names := m.ComponentNames(); !slices.Equal(names, []string{"vortex", "gust_tether"}) {
		t.Fatalf("components in enrage = %v", names)
	}
	hints = m.CalculateHints(0, player, nil)
	want := bossmod.TextHints{{Text: "Enrage incoming", Risk: true}}
	if !slices.Equal(hints, want) {
		t.Fatalf("enrage hints = %+v", hints)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want error
		text string
	}{
		{
			name: "no states",
			spec: Spec{Name: "x"},
			text: "timeline has no states",
		},
		{
			name: "unknown kind",
			spec: Spec{
				Components: []ComponentSpec{{Name: "a", Kind: "laser"}},
				Timeline:   TimelineSpec{States: []StateSpec{{Name: "s", Manual: true}}},
			},
			want: ErrUnknownKind,
		},
		{
			name: "bad shape",
			spec: Spec{
				Components: []ComponentSpec{{Name: "a", Kind: "self_targeted"}},
				Timeline:   TimelineSpec{States: []StateSpec{{Name: "s", Manual: true}}},
			},
			text: "shape kind missing",
		},
		{
			name: "unknown next",
			spec: Spec{Timeline: TimelineSpec{States: []StateSpec{{Name: "s", Next: "nowhere"}}}},
			want: ErrUnknownState,
		},
		{
			name: "unknown initial",
			spec: Spec{Timeline: TimelineSpec{Initial: "x", States: []StateSpec{{Name: "s"}}}},
			want: ErrUnknownState,
		},
		{
			name: "zero duration cycle",
			spec: Spec{Timeline: TimelineSpec{States: []StateSpec{{Name: "a"}, {Name: "b", Next: "a"}}}},
			want: timeline.ErrZeroDurationCycle,
		},
		{
			name: "activate unknown component",
			spec: Spec{Timeline: TimelineSpec{States: []StateSpec{{Name: "s", Manual: true, Enter: []ActionSpec{{Activate: "ghost"}}}}}},
			want: bossmod.ErrUnknownComponent,
		},
		{
			name: "run without script",
			spec: Spec{Timeline: TimelineSpec{States: []StateSpec{{Name: "s", Manual: true, Enter: []ActionSpec{{Run: "go"}}}}}},
			want: ErrBadAction,
		},
		{
			name: "two verbs",
			spec: Spec{Timeline: TimelineSpec{States: []StateSpec{{Name: "s", Manual: true, Enter: []ActionSpec{{Log: "a", Run: "b"}}}}}},
			want: ErrBadAction,
		},
		{
			name: "two conditions",
			spec: Spec{Timeline: TimelineSpec{States: []StateSpec{{Name: "s", Until: &ConditionSpec{EnemyDead: 1, Casting: 2}}}}},
			text: "exactly one of enemy_dead",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := tt.spec
			_, err := Build(world.NewState(t0), &spec, Library{}, Options{Logger: log.New(&bytes.Buffer{}, "", 0)})
			if err == nil {
				t.Fatalf("expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.text != "" && !strings.Contains(err.Error(), tt.text) {
				t.Fatalf("err = %v, want %q", err, tt.text)
			}
		})
	}
}

func TestActionShortForm(t *testing.T) {
	spec, err := Library{}.LoadSpec("bone_crawler")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	enter := spec.Timeline.States[0].Enter
	if len(enter) != 7 || enter[0].Activate != "heat_breath" {
		t.Fatalf("enter = %+v", enter)
	}
	if got := spec.Timeline.States[1].Enter[0].Log; got != "boss defeated" {
		t.Fatalf("log action = %q", got)
	}
	if spec.BossOID != 0x1AB5 {
		t.Fatalf("boss oid = %X", spec.BossOID)
	}
}

type arenaStub struct {
	bounds bossmod.Bounds
	zones  []string
	actors []bossmod.ArenaColor
}

func (a *arenaStub) Bounds() bossmod.Bounds { return a.bounds }

func (a *arenaStub) Border() {}

func (a *arenaStub) Zone(shape aoe.Shape, _ cp.Vector, _ common.Angle, _ bossmod.ArenaColor) {
	a.zones = append(a.zones, shape.String())
}

func (a *arenaStub) Actor(_ *world.Actor, c bossmod.ArenaColor) { a.actors = append(a.actors, c) }

func (a *arenaStub) Line(_, _ cp.Vector, _ bossmod.ArenaColor) {}

func (a *arenaStub) Text(_ cp.Vector, _ string, _ bossmod.ArenaColor) {}

func TestDrawMarksBossAndPlayer(t *testing.T) {
	w, m, _ := open(t, Library{}, "barbariccia")
	w.SetPlayerActorID(2)
	create(t, w, &world.Actor{InstanceID: 1, Type: world.ActorTypePlayer})
	create(t, w, &world.Actor{InstanceID: 2, Type: world.ActorTypePlayer})
	create(t, w, &world.Actor{InstanceID: 0x100, OID: 0x3949, Type: world.ActorTypeEnemy})

	arena := &arenaStub{}
	m.Draw(arena)
	want := []bossmod.ArenaColor{bossmod.ColorEnemy, bossmod.ColorPlayerGeneric, bossmod.ColorPC}
	if !slices.Equal(arena.actors, want) {
		t.Fatalf("actors drawn = %v, want %v", arena.actors, want)
	}
}
