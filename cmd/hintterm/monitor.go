package main

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/milk9111/bossmod/session"
)

var (
	styleTitle = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleText  = tcell.StyleDefault
	styleDim   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleRisk  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleSafe  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
)

// monitor renders the session's hints on a terminal screen.
type monitor struct {
	screen  tcell.Screen
	session *session.Session
	// alert is called when a raid member picks up a risk hint it did not
	// have on the previous tick.
	alert    func()
	risky    map[int]bool
	paused   bool
	messages []string
}

func newMonitor(screen tcell.Screen, s *session.Session, alert func()) *monitor {
	return &monitor{screen: screen, session: s, alert: alert, risky: map[int]bool{}}
}

// step advances the session one tick unless paused or finished.
func (mon *monitor) step() {
	if mon.paused || mon.session.Done() {
		return
	}
	mon.session.Step()
	mon.checkRisk()
}

func (mon *monitor) checkRisk() {
	m := mon.session.Module
	fresh := false
	seen := map[int]bool{}
	for slot, a := range m.Raid().Members() {
		risk := m.CalculateHints(slot, a, nil).HasRisk()
		if risk && !mon.risky[slot] {
			fresh = true
		}
		seen[slot] = risk
	}
	mon.risky = seen
	if fresh && mon.alert != nil {
		mon.alert()
	}
}

// handleKey reacts to a key press and reports whether to quit.
func (mon *monitor) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
	default:
		return false
	}
	switch ev.Rune() {
	case 'q':
		return true
	case 'f':
		if mon.session.Module.ForceTransition() {
			mon.note("forced transition")
		} else {
			mon.note("no active phase")
		}
	case ' ':
		mon.paused = !mon.paused
	case 'r':
		if err := mon.session.Restart(); err != nil {
			mon.note(fmt.Sprintf("restart: %v", err))
		} else {
			mon.risky = map[int]bool{}
			mon.note("restarted")
		}
	}
	return false
}

func (mon *monitor) note(msg string) {
	mon.messages = append(mon.messages, fmt.Sprintf("%6.2fs %s", mon.session.Elapsed().Seconds(), msg))
	if len(mon.messages) > 5 {
		mon.messages = mon.messages[len(mon.messages)-5:]
	}
}

func (mon *monitor) draw() {
	s := mon.session
	m := s.Module
	mon.screen.Clear()

	state := "running"
	switch {
	case s.Done():
		state = "finished"
	case mon.paused:
		state = "paused"
	}
	y := 0
	mon.print(0, y, styleTitle, fmt.Sprintf("%s  %.2fs  %s", m.Name, s.Elapsed().Seconds(), state))
	y++

	phase := "-"
	if active := m.StateMachine.Active(); active != nil {
		phase = fmt.Sprintf("%s %.1fs", active.Name, m.StateMachine.TimeInState(s.Now()).Seconds())
	}
	mon.print(0, y, styleText, "phase: "+phase)
	y++
	mon.print(0, y, styleDim, "components: "+strings.Join(m.ComponentNames(), ", "))
	y += 2

	for slot, a := range m.Raid().Members() {
		hints := m.CalculateHints(slot, a, nil)
		style := styleSafe
		if hints.HasRisk() {
			style = styleRisk
		}
		x := mon.print(0, y, style, fmt.Sprintf("%d %-10s", slot, a.Name))
		for _, h := range hints {
			hs := styleText
			if h.Risk {
				hs = styleRisk
			}
			x = mon.print(x+2, y, hs, h.Text)
		}
		y++
	}

	y++
	for _, msg := range mon.messages {
		mon.print(0, y, styleDim, msg)
		y++
	}
	_, h := mon.screen.Size()
	mon.print(0, h-1, styleDim, "f force transition  space pause  r restart  q quit")
	mon.screen.Show()
}

// print writes s at (x, y) and returns the column after it.
func (mon *monitor) print(x, y int, style tcell.Style, s string) int {
	for _, r := range s {
		mon.screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}
