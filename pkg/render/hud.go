package render

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/de-v-in/life-rules/pkg/simulation"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

var hudFace = text.NewGoXFace(basicfont.Face7x13)

const hudLineHeight = 16

// hudLines builds the status text shown in the top right corner.
func hudLines(f *simulation.Frame, running bool, tickRate uint, entropy float64) []string {
	state := "running"
	if !running {
		state = "stopped"
	}
	lines := []string{
		fmt.Sprintf("FPS: %.1f  TPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()),
		fmt.Sprintf("%s  tick rate: %d  entropy: %.2f", state, tickRate, entropy),
	}
	if f == nil {
		return lines
	}
	lines = append(lines, fmt.Sprintf("frame %d  %.0fx%.0f", f.Index, f.Bounds.Width, f.Bounds.Height))
	for _, g := range f.Groups {
		lines = append(lines, fmt.Sprintf("%-10s %5d atoms", g.Name, len(g.Atoms)))
	}
	return lines
}

func drawHUD(screen *ebiten.Image, lines []string, timings string) {
	lines = append(lines, timings)
	w := 0
	for _, l := range lines {
		w = max(w, len(l))
	}
	width := float64(w*7 + 16)
	x := float64(screen.Bounds().Dx()) - width - 10
	y := 10.0

	vector.FillRect(screen, float32(x), float32(y), float32(width), float32(len(lines)*hudLineHeight+8),
		color.RGBA{R: 20, G: 20, B: 25, A: 180}, false)

	op := &text.DrawOptions{}
	op.GeoM.Translate(x+8, y+4)
	op.ColorScale.ScaleWithColor(color.White)
	op.LineSpacing = hudLineHeight
	text.Draw(screen, strings.Join(lines, "\n"), hudFace, op)
}
