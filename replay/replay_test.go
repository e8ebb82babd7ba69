package replay

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/milk9111/bossmod/encounters"
	"github.com/milk9111/bossmod/world"
)

type recorder struct {
	world.NopListener
	lines []string
}

func (r *recorder) ActorCreated(a *world.Actor) {
	r.lines = append(r.lines, fmt.Sprintf("create %X", a.InstanceID))
}

func (r *recorder) ActorCastStarted(a *world.Actor) {
	r.lines = append(r.lines, fmt.Sprintf("cast %X %s", a.InstanceID, a.CastInfo.Action))
}

func (r *recorder) ActorCastFinished(a *world.Actor, _ *world.CastInfo) {
	r.lines = append(r.lines, fmt.Sprintf("finish %X", a.InstanceID))
}

func (r *recorder) ActorCastCancelled(a *world.Actor, _ *world.CastInfo) {
	r.lines = append(r.lines, fmt.Sprintf("cancel %X", a.InstanceID))
}

func TestParseResolvesOffsets(t *testing.T) {
	l, err := Parse([]byte(`
events:
  - create: {id: 1, type: enemy}
  - at: 2s
    cast: {id: 1, action: 5, duration: 1s}
  - finish: 1
  - at: 4s
    destroy: 1
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []time.Duration{0, 2 * time.Second, 2 * time.Second, 4 * time.Second}
	for i, e := range l.Events {
		if e.Offset != want[i] {
			t.Fatalf("event %d offset = %v, want %v", i, e.Offset, want[i])
		}
	}
	if !l.Start.Equal(DefaultStart) {
		t.Fatalf("start = %v", l.Start)
	}
	if l.Duration() != 4*time.Second {
		t.Fatalf("duration = %v", l.Duration())
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "backwards", src: "events:\n  - at: 2s\n    kill: 1\n  - at: 1s\n    kill: 1\n", want: "goes back in time"},
		{name: "two changes", src: "events:\n  - kill: 1\n    revive: 1\n", want: "exactly one change"},
		{name: "no change", src: "events:\n  - at: 1s\n", want: "exactly one change"},
		{name: "bad yaml", src: "events: [", want: "replay: unmarshal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestPlayerAppliesEventsInOrder(t *testing.T) {
	l, err := Parse([]byte(`
events:
  - create: {id: 0x10, type: enemy, pos: [1, 2], rotation: 90}
  - create: {id: 0x11, type: player, pos: [5, 5]}
  - at: 1s
    cast: {id: 0x10, action: 7, target: 0x11, duration: 3s}
  - at: 2s
    cast: {id: 0x10, action: 8, duration: 1s}
  - at: 3s
    finish: 0x10
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	w := l.NewWorld()
	rec := &recorder{}
	w.AddListener(rec)
	p := NewPlayer(w, l)

	n, err := p.AdvanceTo(l.Start.Add(1500 * time.Millisecond))
	if err != nil || n != 3 {
		t.Fatalf("first advance: n=%d err=%v", n, err)
	}
	caster, _ := w.Actor(0x10)
	if caster.CastInfo.Location.X != 5 || caster.CastInfo.FinishAt != l.Start.Add(4*time.Second) {
		t.Fatalf("cast info = %+v", caster.CastInfo)
	}
	if !w.Now().Equal(l.Start.Add(1500 * time.Millisecond)) {
		t.Fatalf("clock = %v", w.Now())
	}
	if next, ok := p.NextAt(); !ok || !next.Equal(l.Start.Add(2*time.Second)) {
		t.Fatalf("next = %v %v", next, ok)
	}

	if _, err := p.AdvanceTo(p.End()); err != nil {
		t.Fatalf("second advance: %v", err)
	}
	if !p.Done() {
		t.Fatalf("player not done")
	}
	want := "create 10\ncreate 11\ncast 10 spell#7\ncancel 10\ncast 10 spell#8\nfinish 10"
	if got := strings.Join(rec.lines, "\n"); got != want {
		t.Fatalf("events:\n%s\nwant:\n%s", got, want)
	}
}

func TestPlayerSkipsFailingEvent(t *testing.T) {
	l, err := Parse([]byte(`
events:
  - finish: 0x99
  - create: {id: 1, type: player}
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	w := l.NewWorld()
	p := NewPlayer(w, l)
	_, err = p.AdvanceTo(l.Start)
	if err == nil || !strings.Contains(err.Error(), "event 0 (finish") {
		t.Fatalf("err = %v", err)
	}
	if _, err := p.AdvanceTo(l.Start); err != nil {
		t.Fatalf("continue: %v", err)
	}
	if w.ActorCount() != 1 {
		t.Fatalf("actors = %d", w.ActorCount())
	}
}

// play runs a sample through its encounter and renders every tick's hints.
func play(t *testing.T, name string, tick time.Duration) string {
	t.Helper()
	l, err := LoadSample(name)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	w := l.NewWorld()
	m, err := encounters.Open(w, encounters.Library{}, l.Encounter, encounters.Options{Logger: log.New(&bytes.Buffer{}, "", 0)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer m.Close()
	p := NewPlayer(w, l)

	var sb strings.Builder
	for at := l.Start; !p.Done(); at = at.Add(tick) {
		if _, err := p.AdvanceTo(at); err != nil {
			t.Fatalf("advance: %v", err)
		}
		m.Update()
		for slot, a := range m.Raid().Members() {
			for _, h := range m.CalculateHints(slot, a, nil) {
				fmt.Fprintf(&sb, "%v %d %s %v\n", at.Sub(l.Start), slot, h.Text, h.Risk)
			}
		}
	}
	return sb.String()
}

func TestSamplesReplayDeterministically(t *testing.T) {
	for _, name := range []string{"barbariccia", "bone_crawler", "gale_warden", "trinity_seeker"} {
		t.Run(name, func(t *testing.T) {
			first := play(t, name, 250*time.Millisecond)
			second := play(t, name, 250*time.Millisecond)
			if first == "" {
				t.Fatalf("no hints produced")
			}
			if first != second {
				t.Fatalf("runs differ:\n%s\n---\n%s", first, second)
			}
		})
	}
}

func TestBoneCrawlerSampleHints(t *testing.T) {
	out := play(t, "bone_crawler", time.Second)
	for _, want := range []string{
		"3s 0 GTFO from aoe! true",
		"8s 0 GTFO from aoe! true",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "6s 0 ") {
		t.Fatalf("tank should be safe at 6s:\n%s", out)
	}
}
