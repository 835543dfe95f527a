package ui

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Slider edits a float in [Min, Max]. OnChange fires once, when the mouse
// button is released after a drag.
type Slider struct {
	Label    string
	Value    float64
	Min, Max float64
	Step     float64 // 0 means continuous
	Format   string  // fmt verb for the value in the caption
	X, Y     float64
	W, H     float64

	OnChange func(float64)

	dragging bool
}

// NewSlider creates a new slider instance
func NewSlider(x, y, w float64, label string, min, max, value float64) *Slider {
	s := &Slider{
		Label:  label,
		Min:    min,
		Max:    max,
		Format: "%.2f",
		X:      x,
		Y:      y,
		W:      w,
		H:      12,
	}
	s.Set(value)
	return s
}

// Set moves the slider to v, clamped and snapped to Step.
func (s *Slider) Set(v float64) {
	if s.Step > 0 {
		v = s.Min + math.Round((v-s.Min)/s.Step)*s.Step
	}
	s.Value = math.Max(s.Min, math.Min(s.Max, v))
}

// SetFromCursor maps a horizontal cursor position to a value.
func (s *Slider) SetFromCursor(mx float64) {
	if s.W <= 0 {
		return
	}
	p := (mx - s.X) / s.W
	s.Set(s.Min + p*(s.Max-s.Min))
}

// Ratio is the filled fraction of the track.
func (s *Slider) Ratio() float64 {
	if s.Max == s.Min {
		return 0
	}
	return (s.Value - s.Min) / (s.Max - s.Min)
}

func (s *Slider) Caption() string {
	return fmt.Sprintf("%s: "+s.Format, s.Label, s.Value)
}

func (s *Slider) Height() float64 { return s.H + 25 }

func (s *Slider) Place(x, y float64) { s.X, s.Y = x, y }

func (s *Slider) Top() float64 { return s.Y }

// Update checks for mouse interaction
func (s *Slider) Update() {
	mx, my := ebiten.CursorPosition()
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	switch {
	case pressed && (s.dragging || inside(mx, my, s.X, s.Y, s.W, s.H)):
		s.dragging = true
		s.SetFromCursor(float64(mx))
	case !pressed && s.dragging:
		s.dragging = false
		if s.OnChange != nil {
			s.OnChange(s.Value)
		}
	}
}

// Draw renders the slider
func (s *Slider) Draw(screen *ebiten.Image) {
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W), float32(s.H),
		color.RGBA{R: 80, G: 80, B: 80, A: 255}, true)
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W*s.Ratio()), float32(s.H),
		color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
}

func inside(mx, my int, x, y, w, h float64) bool {
	return float64(mx) >= x && float64(mx) <= x+w &&
		float64(my) >= y && float64(my) <= y+h
}
