package render

import (
	"image"
	"image/color"

	"github.com/de-v-in/life-rules/pkg/particle"
	"github.com/de-v-in/life-rules/pkg/simulation"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	outlineAlpha = 0x99
	haloAlpha    = 0x30
	outlinePad   = 2.0
)

var (
	whiteImage = ebiten.NewImage(3, 3)
	// whiteSubImage is the source texture for DrawTriangles.
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// drawGroup draws every atom of g. Each atom gets a translucent outline
// two pixels wider on each side and, when BlurRadius is set, a soft halo.
func drawGroup(screen *ebiten.Image, g simulation.GroupView, buf *triangleBatch) {
	clr := GroupColor(g.Name)
	outline := withAlpha(clr, outlineAlpha)
	size := g.Config.PointSize
	if size <= 0 {
		size = 1
	}

	if g.Config.BlurRadius != nil && *g.Config.BlurRadius > 0 {
		halo := withAlpha(clr, haloAlpha)
		r := float32(size/2 + *g.Config.BlurRadius + outlinePad)
		for _, a := range g.Atoms {
			vector.FillCircle(screen, float32(a.Pos.X+size/2), float32(a.Pos.Y+size/2), r, halo, true)
		}
	}

	switch g.Config.Shape {
	case particle.Dot:
		for _, a := range g.Atoms {
			cx, cy := float32(a.Pos.X+size/2), float32(a.Pos.Y+size/2)
			vector.FillCircle(screen, cx, cy, float32(size/2+outlinePad), outline, true)
			vector.FillCircle(screen, cx, cy, float32(size/2), clr, true)
		}
	case particle.Triangle:
		buf.reset()
		for _, a := range g.Atoms {
			buf.add(a.Pos.X-outlinePad, a.Pos.Y-outlinePad, size+2*outlinePad, outline)
			buf.add(a.Pos.X, a.Pos.Y, size, clr)
			if buf.full() {
				buf.flush(screen)
			}
		}
		buf.flush(screen)
	default:
		for _, a := range g.Atoms {
			x, y := float32(a.Pos.X), float32(a.Pos.Y)
			s := float32(size)
			vector.FillRect(screen, x-outlinePad, y-outlinePad, s+2*outlinePad, s+2*outlinePad, outline, false)
			vector.FillRect(screen, x, y, s, s, clr, false)
		}
	}
}

// triangleBatch accumulates upward triangles for a single DrawTriangles call.
type triangleBatch struct {
	vertices []ebiten.Vertex
	indices  []uint16
}

// maxBatchVertices keeps indices within uint16.
const maxBatchVertices = 1<<16 - 6

func (b *triangleBatch) reset() {
	b.vertices = b.vertices[:0]
	b.indices = b.indices[:0]
}

func (b *triangleBatch) full() bool { return len(b.vertices) >= maxBatchVertices }

// add appends a triangle inscribed in the size x size box at (x, y),
// apex up.
func (b *triangleBatch) add(x, y, size float64, clr color.NRGBA) {
	base := uint16(len(b.vertices))
	r, g, bl, a := float32(clr.R)/0xff, float32(clr.G)/0xff, float32(clr.B)/0xff, float32(clr.A)/0xff
	for _, p := range [3][2]float64{{x + size/2, y}, {x, y + size}, {x + size, y + size}} {
		b.vertices = append(b.vertices, ebiten.Vertex{
			DstX: float32(p[0]), DstY: float32(p[1]),
			SrcX: 1, SrcY: 1,
			ColorR: r, ColorG: g, ColorB: bl, ColorA: a,
		})
	}
	b.indices = append(b.indices, base, base+1, base+2)
}

func (b *triangleBatch) flush(screen *ebiten.Image) {
	if len(b.vertices) == 0 {
		return
	}
	op := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	screen.DrawTriangles(b.vertices, b.indices, whiteSubImage, op)
	b.reset()
}
