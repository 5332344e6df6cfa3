package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"math"
	"strings"
	"unicode"

	"github.com/andresmejia3/formcheck/internal/geometry"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

const circleSegments = 32

// captionReplacer maps characters basicfont has no glyph for.
var captionReplacer = strings.NewReplacer("—", " - ", "–", "-", "°", " deg", "’", "'")

var captionBackground = color.NRGBA{R: 16, G: 34, B: 43, A: 214}

// Draw rasterizes o onto dst. Limbs are drawn first so joints sit on top.
func Draw(dst draw.Image, o Overlay) {
	b := dst.Bounds()
	if b.Empty() {
		return
	}
	z := vector.NewRasterizer(b.Dx(), b.Dy())

	for _, l := range o.Limbs {
		for i := 0; i+1 < len(l.Path); i++ {
			strokeSegment(z, dst, l.Path[i], l.Path[i+1], l.Width, l.Color)
		}
	}
	for _, j := range o.Joints {
		fillCircle(z, dst, j.Center, j.Radius, j.Color)
	}
	if o.Caption != "" {
		drawCaption(dst, o.Caption, o.CaptionColor)
	}
}

// Annotate decodes an encoded frame (JPEG or PNG), draws o on it and returns PNG bytes.
func Annotate(frame []byte, o Overlay) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	canvas := image.NewRGBA(src.Bounds())
	draw.Draw(canvas, canvas.Bounds(), src, src.Bounds().Min, draw.Src)
	Draw(canvas, o)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode overlay: %w", err)
	}
	return buf.Bytes(), nil
}

func strokeSegment(z *vector.Rasterizer, dst draw.Image, a, b geometry.Point, width float64, c color.Color) {
	half := width / 2
	d := b.Sub(a)
	length := d.Norm()
	if length > 0 {
		// Unit normal scaled to half the stroke width
		nx, ny := -d.Y/length*half, d.X/length*half
		fillPolygon(z, dst, []geometry.Point{
			{X: a.X + nx, Y: a.Y + ny},
			{X: b.X + nx, Y: b.Y + ny},
			{X: b.X - nx, Y: b.Y - ny},
			{X: a.X - nx, Y: a.Y - ny},
		}, c)
	}
	// Round caps also hide seams between consecutive segments
	fillCircle(z, dst, a, half, c)
	fillCircle(z, dst, b, half, c)
}

func fillCircle(z *vector.Rasterizer, dst draw.Image, center geometry.Point, radius float64, c color.Color) {
	if radius <= 0 {
		return
	}
	pts := make([]geometry.Point, circleSegments)
	for i := range pts {
		theta := 2 * math.Pi * float64(i) / circleSegments
		pts[i] = geometry.Point{X: center.X + radius*math.Cos(theta), Y: center.Y + radius*math.Sin(theta)}
	}
	fillPolygon(z, dst, pts, c)
}

func fillPolygon(z *vector.Rasterizer, dst draw.Image, pts []geometry.Point, c color.Color) {
	if len(pts) < 3 {
		return
	}
	b := dst.Bounds()
	z.Reset(b.Dx(), b.Dy())

	z.MoveTo(float32(pts[0].X-float64(b.Min.X)), float32(pts[0].Y-float64(b.Min.Y)))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X-float64(b.Min.X)), float32(p.Y-float64(b.Min.Y)))
	}
	z.ClosePath()
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// captionText rewrites text into the ASCII range covered by basicfont.
func captionText(text string) string {
	text = captionReplacer.Replace(text)
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return '?'
		}
		return r
	}, text)
}

// drawCaption renders the feedback box in the top-left corner.
func drawCaption(dst draw.Image, text string, c color.Color) {
	text = captionText(text)
	face := basicfont.Face7x13
	const padX, padY, left, top = 12, 6, 10, 10

	d := &font.Drawer{Face: face}
	textWidth := d.MeasureString(text).Ceil()
	box := image.Rect(left, top, left+textWidth+2*padX, top+face.Height+2*padY).Add(dst.Bounds().Min)

	draw.Draw(dst, box, image.NewUniform(captionBackground), image.Point{}, draw.Over)

	d.Dst = dst
	d.Src = image.NewUniform(c)
	d.Dot = fixed.P(box.Min.X+padX, box.Min.Y+padY+face.Ascent)
	d.DrawString(text)
}
