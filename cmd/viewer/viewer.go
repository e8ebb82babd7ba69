package main

import (
	"fmt"
	"time"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/bossmod/bossmod"
	"github.com/milk9111/bossmod/render"
	"github.com/milk9111/bossmod/session"
)

const (
	panelWidth = 220
	margin     = 24
)

// Viewer replays a session in an ebiten window.
type Viewer struct {
	session *session.Session
	arena   *render.Arena
	ui      *ebitenui.UI
	panel   *controlPanel

	paused bool
	// acc is replay time owed to the session since the last step.
	acc           time.Duration
	width, height int
}

func NewViewer(s *session.Session) *Viewer {
	v := &Viewer{
		session: s,
		arena:   render.NewArena(s.Module.Bounds, s.Config.Colors, s.Config.Window.Scale),
		width:   s.Config.Window.Width,
		height:  s.Config.Window.Height,
	}
	v.ui, v.panel = newControlPanel(v)
	return v
}

func (v *Viewer) speed() float64 {
	if v.session.Config.Speed > 0 {
		return v.session.Config.Speed
	}
	return 1
}

func (v *Viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		v.togglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		v.forceTransition()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		v.restart()
	}

	if !v.paused && !v.session.Done() {
		v.acc += time.Duration(float64(time.Second) * v.speed() / float64(ebiten.TPS()))
		for v.acc >= v.session.Config.Tick && !v.session.Done() {
			v.acc -= v.session.Config.Tick
			v.session.Step()
		}
	}

	v.panel.refresh(v.session)
	v.ui.Update()
	return nil
}

func (v *Viewer) togglePause() { v.paused = !v.paused }

func (v *Viewer) forceTransition() {
	if !v.session.Module.ForceTransition() {
		v.session.Module.Logger().Printf("viewer: no active phase to leave")
	}
}

func (v *Viewer) restart() {
	if err := v.session.Restart(); err != nil {
		v.session.Module.Logger().Printf("viewer: restart: %v", err)
	}
	v.acc = 0
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	m := v.session.Module
	v.arena.SetBounds(m.Bounds)
	v.arena.Begin(screen)
	v.arena.Width = v.width - panelWidth
	v.arena.Scale = render.FitScale(m.Bounds, v.arena.Width, v.height, margin)
	m.Draw(v.arena)

	v.drawHints(m)
	v.ui.Draw(screen)
}

// drawHints lists every raid member's hints in the top left corner.
func (v *Viewer) drawHints(m *bossmod.Module) {
	y := 8.0
	v.arena.ScreenText(8, y, fmt.Sprintf("%s  %.1fs", m.Name, v.session.Elapsed().Seconds()), v.session.Config.Colors.Lookup(bossmod.ColorBorder))
	y += 18
	for slot, a := range m.Raid().Members() {
		hints := m.CalculateHints(slot, a, nil)
		c := bossmod.ColorSafe
		if hints.HasRisk() {
			c = bossmod.ColorDanger
		}
		line := fmt.Sprintf("%d %s", slot, a.Name)
		for _, h := range hints {
			line += "  " + h.Text
		}
		v.arena.ScreenText(8, y, line, v.session.Config.Colors.Lookup(c))
		y += 16
	}
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	v.width, v.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}
