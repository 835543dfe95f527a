package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	titleHeight   = 30.0
	sectionHeight = 25.0
	captionHeight = 15.0
	margin        = 10.0
)

// Widget is implemented by every control the panel can hold.
type Widget interface {
	Update()
	Draw(screen *ebiten.Image)
	Height() float64
	Place(x, y float64)
	Caption() string
	Top() float64
}

// PanelSection groups the widgets in [Start, End).
type PanelSection struct {
	Title string
	Start int
	End   int
}

// UIPanel manages a collection of UI widgets in a scrollable panel
type UIPanel struct {
	Title         string
	X, Y          float64
	Width, Height float64
	Widgets       []Widget
	ScrollOffset  float64

	// Styling
	BGColor     color.RGBA
	BorderColor color.RGBA
	SectionBG   color.RGBA

	sections []PanelSection
	headers  []float64 // screen y of each section header
}

// NewUIPanel creates a new UI panel
func NewUIPanel(title string, x, y, width, height float64) *UIPanel {
	return &UIPanel{
		Title:       title,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
		SectionBG:   color.RGBA{R: 60, G: 60, B: 70, A: 255},
	}
}

// AddSection starts a new section. Widgets added afterwards belong to it.
func (p *UIPanel) AddSection(title string) {
	p.EndSection()
	p.sections = append(p.sections, PanelSection{Title: title, Start: len(p.Widgets), End: -1})
}

// EndSection closes the current section
func (p *UIPanel) EndSection() {
	if n := len(p.sections); n > 0 && p.sections[n-1].End < 0 {
		p.sections[n-1].End = len(p.Widgets)
	}
}

// Sections returns the closed and open sections.
func (p *UIPanel) Sections() []PanelSection {
	out := make([]PanelSection, len(p.sections))
	copy(out, p.sections)
	for i := range out {
		if out[i].End < 0 {
			out[i].End = len(p.Widgets)
		}
	}
	return out
}

// Clear drops every widget and section so the panel can be rebuilt.
func (p *UIPanel) Clear() {
	p.Widgets = nil
	p.sections = nil
	p.ScrollOffset = 0
}

func (p *UIPanel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(p.X+margin, 0, p.Width-2*margin, label, min, max, value)
	p.add(s)
	return s
}

func (p *UIPanel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(p.X+margin, 0, label, value)
	p.add(c)
	return c
}

func (p *UIPanel) AddButton(label string, onClick func()) *Button {
	b := NewButton(p.X+margin, 0, p.Width-2*margin, 20, label, onClick)
	p.add(b)
	return b
}

func (p *UIPanel) add(w Widget) {
	p.Widgets = append(p.Widgets, w)
	p.layout()
}

// Contains reports whether a screen point falls on the panel.
func (p *UIPanel) Contains(x, y int) bool {
	return inside(x, y, p.X, p.Y, p.Width, p.Height)
}

// Update handles input for all widgets
func (p *UIPanel) Update() {
	if _, dy := ebiten.Wheel(); dy != 0 {
		mx, my := ebiten.CursorPosition()
		if p.Contains(mx, my) {
			p.Scroll(-dy * 20)
		}
	}
	p.layout()
	for _, w := range p.Widgets {
		if p.visible(w) {
			w.Update()
		}
	}
}

// Scroll moves the content by delta pixels, clamped to the content height.
func (p *UIPanel) Scroll(delta float64) {
	maxScroll := max(p.ContentHeight()-p.Height+40, 0)
	p.ScrollOffset = min(max(p.ScrollOffset+delta, 0), maxScroll)
}

// ContentHeight is the height of the title, the section headers and the widgets.
func (p *UIPanel) ContentHeight() float64 {
	h := titleHeight + float64(len(p.sections))*sectionHeight
	for _, w := range p.Widgets {
		h += w.Height()
	}
	return h
}

// layout places every widget and section header for the current scroll offset.
func (p *UIPanel) layout() {
	y := p.Y + titleHeight - p.ScrollOffset
	next := 0
	p.headers = p.headers[:0]
	for _, sec := range p.Sections() {
		for ; next < sec.Start; next++ {
			y = p.place(p.Widgets[next], y)
		}
		p.headers = append(p.headers, y)
		y += sectionHeight
	}
	for ; next < len(p.Widgets); next++ {
		y = p.place(p.Widgets[next], y)
	}
}

func (p *UIPanel) place(w Widget, y float64) float64 {
	top := y
	if w.Caption() != "" {
		top += captionHeight
	}
	w.Place(p.X+margin, top)
	return y + w.Height()
}

func (p *UIPanel) visible(w Widget) bool {
	y := w.Top()
	return y >= p.Y+titleHeight && y <= p.Y+p.Height-margin
}

// Draw renders the panel and all widgets
func (p *UIPanel) Draw(screen *ebiten.Image) {
	vector.FillRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		p.BGColor, true)
	vector.StrokeRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+margin), int(p.Y+5))

	p.layout()
	for i, sec := range p.sections {
		y := p.headers[i]
		if y < p.Y+titleHeight-5 || y > p.Y+p.Height-sectionHeight {
			continue
		}
		vector.FillRect(screen,
			float32(p.X+5), float32(y),
			float32(p.Width-10), 20,
			p.SectionBG, true)
		ebitenutil.DebugPrintAt(screen, sec.Title, int(p.X+margin), int(y+3))
	}
	for _, w := range p.Widgets {
		if !p.visible(w) {
			continue
		}
		if c := w.Caption(); c != "" {
			ebitenutil.DebugPrintAt(screen, c, int(p.X+margin), int(w.Top()-captionHeight))
		}
		w.Draw(screen)
	}
}
