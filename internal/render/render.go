package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/sitegauge/sitegauge/internal/history"
)

// Height is the fixed pixel height of the timeline image.
const Height = 200

// markerHeight is the depth of the black band marking a date change.
const markerHeight = 20

// dateLabelY is the top edge of the rendered date text.
const dateLabelY = 10

// fontSize is the point size used when an OpenType font is supplied.
const fontSize = 40

// Palette indices.
const (
	colorGray = iota
	colorGreen
	colorRed
	colorBlack
)

var palette = color.Palette{
	color.RGBA{128, 128, 128, 255},
	color.RGBA{0, 255, 0, 255},
	color.RGBA{255, 0, 0, 255},
	color.RGBA{0, 0, 0, 255},
}

// Renderer converts a trimmed timeline into a PNG. Width equals the
// timeline retention count, so the image spans the full retained
// history at one minute per pixel.
type Renderer struct {
	width int
	face  font.Face
}

// New returns a Renderer of the given width. fontPath may name an
// OpenType font for the date labels; when empty or unloadable the
// embedded bitmap face is used instead.
func New(width int, fontPath string) *Renderer {
	return &Renderer{
		width: width,
		face:  loadFace(fontPath),
	}
}

// loadFace loads the OpenType face at path, degrading to the embedded
// basicfont face on any failure.
func loadFace(path string) font.Face {
	if path == "" {
		return basicfont.Face7x13
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("render: cannot read font, using embedded face", "path", path, "err", err)
		return basicfont.Face7x13
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		slog.Warn("render: cannot parse font, using embedded face", "path", path, "err", err)
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		slog.Warn("render: cannot build font face, using embedded face", "path", path, "err", err)
		return basicfont.Face7x13
	}
	return face
}

// Render draws the timeline and returns the encoded PNG. Records must
// be sorted ascending (the shape Trim produces); entries beyond the
// image width are ignored from the old end. Any panic or encoding
// failure yields the gray placeholder instead of an error.
func (r *Renderer) Render(timeline []history.Record) (out []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("render: recovered, returning placeholder", "panic", rec)
			out = r.Placeholder()
		}
	}()

	img := image.NewPaletted(image.Rect(0, 0, r.width, Height), palette)
	// A fresh Paletted is all zeroes, which is already the gray index.

	for i, rec := range timeline {
		x := r.width - len(timeline) + i
		if x < 0 {
			continue
		}
		col := uint8(colorRed)
		if rec.Healthy {
			col = colorGreen
		}
		for y := 0; y < Height; y++ {
			img.SetColorIndex(x, y, col)
		}
	}

	r.drawDateMarkers(img, timeline)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		slog.Error("render: png encode failed, returning placeholder", "err", err)
		return r.Placeholder()
	}
	return buf.Bytes()
}

// drawDateMarkers overlays a black band and the new date's label at
// every column where the calendar date differs from the prior entry.
func (r *Renderer) drawDateMarkers(img *image.Paletted, timeline []history.Record) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(palette[colorBlack]),
		Face: r.face,
	}
	ascent := r.face.Metrics().Ascent

	var prevDay string
	for i, rec := range timeline {
		day := rec.Timestamp.UTC().Format("2006-01-02")
		if prevDay != "" && day != prevDay {
			x := r.width - len(timeline) + i
			if x >= 0 && x < r.width {
				for y := 0; y < markerHeight; y++ {
					img.SetColorIndex(x, y, colorBlack)
				}
				r.drawLabel(drawer, ascent, x, day)
			}
		}
		prevDay = day
	}
}

// drawLabel centers text on x, shifting to a left or right anchor when
// the centered label would spill past an image edge.
func (r *Renderer) drawLabel(drawer *font.Drawer, ascent fixed.Int26_6, x int, text string) {
	w := drawer.MeasureString(text).Ceil()
	dotX := x - w/2
	if x-w/2 < 0 {
		dotX = x
	} else if x+w/2 > r.width {
		dotX = x - w
	}
	drawer.Dot = fixed.Point26_6{X: fixed.I(dotX), Y: fixed.I(dateLabelY) + ascent}
	drawer.DrawString(text)
}

// Placeholder returns the all-gray no-data image at full size.
func (r *Renderer) Placeholder() []byte {
	img := image.NewPaletted(image.Rect(0, 0, r.width, Height), palette)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		slog.Error("render: placeholder encode failed", "err", err)
		return nil
	}
	return buf.Bytes()
}
