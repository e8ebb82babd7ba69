package main

import (
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/milk9111/bossmod/config"
	"github.com/milk9111/bossmod/session"
)

func newTestMonitor(t *testing.T) (*monitor, tcell.SimulationScreen, *int) {
	t.Helper()
	cfg := config.Default()
	cfg.Tick = 500 * time.Millisecond
	s, err := session.New(cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	t.Cleanup(s.Close)

	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(100, 30)

	alerts := 0
	return newMonitor(screen, s, func() { alerts++ }), screen, &alerts
}

func screenText(screen tcell.SimulationScreen) string {
	cells, w, h := screen.GetContents()
	var b strings.Builder
	for y := range h {
		for x := range w {
			c := cells[y*w+x]
			if len(c.Bytes) == 0 {
				b.WriteByte(' ')
				continue
			}
			b.Write(c.Bytes)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func TestMonitorAlertsOnNewRisk(t *testing.T) {
	mon, screen, alerts := newTestMonitor(t)

	// Heat Breath starts at 2s and covers the tank until 5s.
	for range 6 {
		mon.step()
	}
	if *alerts != 1 {
		t.Fatalf("alerts after heat breath started = %d, want 1", *alerts)
	}
	mon.step()
	if *alerts != 1 {
		t.Fatalf("a risk that continues must not alert again, got %d", *alerts)
	}

	mon.draw()
	out := screenText(screen)
	for _, want := range []string{"bone_crawler", "phase: fight", "0 Tank", "GTFO from aoe!"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q on screen:\n%s", want, out)
		}
	}
}

func TestMonitorKeys(t *testing.T) {
	mon, screen, _ := newTestMonitor(t)
	mon.step()

	if mon.handleKey(tcell.NewEventKey(tcell.KeyRune, 'f', tcell.ModNone)) {
		t.Fatalf("f should not quit")
	}
	if active := mon.session.Module.StateMachine.Active(); active == nil || active.Name != "cleared" {
		t.Fatalf("active after force = %v", active)
	}

	mon.handleKey(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	elapsed := mon.session.Elapsed()
	mon.step()
	if mon.session.Elapsed() != elapsed {
		t.Fatalf("paused monitor advanced the replay")
	}

	mon.draw()
	if out := screenText(screen); !strings.Contains(out, "forced transition") || !strings.Contains(out, "paused") {
		t.Fatalf("screen:\n%s", out)
	}

	if !mon.handleKey(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Fatalf("q should quit")
	}
	if !mon.handleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Fatalf("escape should quit")
	}
}
