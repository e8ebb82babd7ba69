package main

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/milk9111/bossmod/session"
	"golang.org/x/image/font/basicfont"
)

// controlPanel is the side panel with the phase readout and the replay
// controls.
type controlPanel struct {
	phase      *widget.Text
	components *widget.Text
	status     *widget.Text
	pause      *widget.Button
}

func newControlPanel(v *Viewer) (*ebitenui.UI, *controlPanel) {
	panelImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 200})
	btnImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255})
	btnHover := imageui.NewNineSliceColor(color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 255})

	var face ebtext.Face = ebtext.NewGoXFace(basicfont.Face7x13)
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	btnTextColor := &widget.ButtonTextColor{Idle: white}

	label := func(s string) *widget.Text {
		return widget.NewText(widget.TextOpts.Text(s, &face, white))
	}
	button := func(s string, onClick func()) *widget.Button {
		return widget.NewButton(
			widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Hover: btnHover, Pressed: btnImg}),
			widget.ButtonOpts.Text(s, &face, btnTextColor),
			widget.ButtonOpts.TextPadding(&widget.Insets{Top: 4, Bottom: 4, Left: 8, Right: 8}),
			widget.ButtonOpts.WidgetOpts(widget.WidgetOpts.LayoutData(widget.RowLayoutData{Stretch: true})),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				onClick()
			}),
		)
	}

	p := &controlPanel{
		phase:      label("phase: -"),
		components: label(""),
		status:     label(""),
	}
	p.pause = button("Pause", v.togglePause)

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(8),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 12, Bottom: 12, Left: 12, Right: 12}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(panelWidth, 0),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionEnd,
				VerticalPosition:   widget.AnchorLayoutPositionStart,
				StretchVertical:    true,
			}),
		),
	)
	panel.AddChild(p.phase)
	panel.AddChild(button("Force transition", v.forceTransition))
	panel.AddChild(p.pause)
	panel.AddChild(button("Restart", v.restart))
	panel.AddChild(p.status)
	panel.AddChild(p.components)

	root := widget.NewContainer(widget.ContainerOpts.Layout(widget.NewAnchorLayout()))
	root.AddChild(panel)
	return &ebitenui.UI{Container: root}, p
}

func (p *controlPanel) refresh(s *session.Session) {
	m := s.Module
	phase := "-"
	if active := m.StateMachine.Active(); active != nil {
		phase = fmt.Sprintf("%s (%.1fs)", active.Name, m.StateMachine.TimeInState(s.Now()).Seconds())
	}
	p.phase.Label = "phase: " + phase

	var status []string
	if s.Done() {
		status = append(status, "replay finished")
	}
	if s.ReloadPending() {
		status = append(status, "reload after combat")
	}
	p.status.Label = strings.Join(status, "\n")
	p.components.Label = "components:\n  " + strings.Join(m.ComponentNames(), "\n  ")
}
