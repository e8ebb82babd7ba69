package render

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/bossmod/bossmod"
)

func TestProjection(t *testing.T) {
	p := Projection{Center: cp.Vector{X: 100, Y: 100}, Scale: 10, Width: 800, Height: 600}
	tests := []struct {
		name   string
		world  cp.Vector
		sx, sy float32
	}{
		{name: "center", world: cp.Vector{X: 100, Y: 100}, sx: 400, sy: 300},
		{name: "east", world: cp.Vector{X: 110, Y: 100}, sx: 500, sy: 300},
		{name: "south", world: cp.Vector{X: 100, Y: 120}, sx: 400, sy: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := p.ToScreen(tt.world)
			if x != tt.sx || y != tt.sy {
				t.Fatalf("ToScreen = (%g, %g), want (%g, %g)", x, y, tt.sx, tt.sy)
			}
			back := p.ToWorld(float64(x), float64(y))
			if math.Abs(back.X-tt.world.X) > 1e-9 || math.Abs(back.Y-tt.world.Y) > 1e-9 {
				t.Fatalf("ToWorld = %v, want %v", back, tt.world)
			}
		})
	}
}

func TestFitScale(t *testing.T) {
	b := bossmod.Bounds{HalfSize: 20}
	if got := FitScale(b, 960, 720, 40); got != 16 {
		t.Fatalf("FitScale = %g, want 16", got)
	}
	if got := FitScale(b, 50, 50, 40); got != 1 {
		t.Fatalf("FitScale on a tiny screen = %g, want 1", got)
	}
}
