package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Button is a clickable UI button
type Button struct {
	Label   string
	X, Y    float64
	Width   float64
	H       float64
	OnClick func()

	// Styling
	BGColor    color.RGBA
	HoverColor color.RGBA

	clicked bool
}

// NewButton creates a new button instance
func NewButton(x, y, width, height float64, label string, onClick func()) *Button {
	return &Button{
		Label:      label,
		X:          x,
		Y:          y,
		Width:      width,
		H:          height,
		OnClick:    onClick,
		BGColor:    color.RGBA{R: 80, G: 120, B: 180, A: 255},
		HoverColor: color.RGBA{R: 100, G: 150, B: 220, A: 255},
	}
}

// Caption is empty: the label is drawn inside the button.
func (b *Button) Caption() string { return "" }

func (b *Button) Height() float64 { return b.H + 8 }

func (b *Button) Place(x, y float64) { b.X, b.Y = x, y }

func (b *Button) Top() float64 { return b.Y }

// Click runs OnClick.
func (b *Button) Click() {
	if b.OnClick != nil {
		b.OnClick()
	}
}

func (b *Button) Update() {
	mx, my := ebiten.CursorPosition()
	if inside(mx, my, b.X, b.Y, b.Width, b.H) && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if !b.clicked {
			b.Click()
			b.clicked = true
		}
	} else {
		b.clicked = false
	}
}

func (b *Button) Draw(screen *ebiten.Image) {
	mx, my := ebiten.CursorPosition()
	bg := b.BGColor
	if inside(mx, my, b.X, b.Y, b.Width, b.H) {
		bg = b.HoverColor
	}

	vector.FillRect(screen,
		float32(b.X), float32(b.Y),
		float32(b.Width), float32(b.H),
		bg, true)
	vector.StrokeRect(screen,
		float32(b.X), float32(b.Y),
		float32(b.Width), float32(b.H),
		2, color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
	ebitenutil.DebugPrintAt(screen, b.Label, int(b.X+8), int(b.Y+(b.H-16)/2))
}
