package bossmod

import (
	"github.com/jakecoffman/cp"
)

// Hint is one line of advice for a raid member.
type Hint struct {
	Text string `json:"text"`
	Risk bool   `json:"risk"`
}

type TextHints []Hint

func (h *TextHints) Add(text string, risk bool) {
	*h = append(*h, Hint{Text: text, Risk: risk})
}

func (h TextHints) HasRisk() bool {
	for _, x := range h {
		if x.Risk {
			return true
		}
	}
	return false
}

// MovementHint suggests moving from From to To.
type MovementHint struct {
	From cp.Vector `json:"from"`
	To   cp.Vector `json:"to"`
	Risk bool      `json:"risk"`
}

// MovementHints collects movement advice. A nil collection discards it.
type MovementHints []MovementHint

func (h *MovementHints) Add(from, to cp.Vector, risk bool) {
	if h == nil {
		return
	}
	*h = append(*h, MovementHint{From: from, To: to, Risk: risk})
}
