// Package summary renders the catalog summary image and persists it
// atomically at a well-known path.
package summary

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"countrycatalog/internal/catalog/models"
)

const (
	Width  = 800
	Height = 600

	timestampLayout = "2006-01-02 15:04:05"
	textMargin      = 20
	minTextSize     = 10
)

var (
	colorBackground = color.RGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}
	colorTitle      = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorTotal      = color.RGBA{R: 0x4a, G: 0xde, B: 0x80, A: 0xff}
	colorHeading    = color.RGBA{R: 0x60, G: 0xa5, B: 0xfa, A: 0xff}
	colorRow        = color.RGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}
	colorFooter     = color.RGBA{R: 0x9c, G: 0xa3, B: 0xaf, A: 0xff}
)

// Snapshot is the catalog state a summary is rendered from.
type Snapshot struct {
	Total       int
	Top         []*models.Country
	GeneratedAt time.Time
}

// Renderer draws and persists the summary image.
type Renderer struct {
	path   string
	logger *slog.Logger
}

// NewRenderer creates a renderer writing to path.
func NewRenderer(path string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{path: path, logger: logger}
}

// Path is where the summary image is written.
func (r *Renderer) Path() string {
	return r.path
}

// Render draws snap and replaces the image at Path. Readers of Path see
// either the previous image or the new one, never a partial file.
func (r *Renderer) Render(ctx context.Context, snap Snapshot) error {
	img, err := Compose(snap)
	if err != nil {
		return fmt.Errorf("compose summary image: %w", err)
	}
	if err := writeAtomic(r.path, img); err != nil {
		return fmt.Errorf("write summary image: %w", err)
	}
	r.logger.InfoContext(ctx, "summary image written",
		"path", r.path,
		"total_countries", snap.Total,
	)
	return nil
}

type textLine struct {
	text string
	midY int
	size int
	c    color.Color
}

// Compose draws the fixed summary layout.
func Compose(snap Snapshot) (*image.RGBA, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	lines := []textLine{
		{"Country GDP Summary", 50, 36, colorTitle},
		{fmt.Sprintf("Total Countries: %d", snap.Total), 120, 28, colorTotal},
		{"Top 5 by Estimated GDP", 180, 24, colorHeading},
	}
	for i, row := range RankedLines(snap.Top) {
		lines = append(lines, textLine{row, 230 + i*40, 20, colorRow})
	}
	lines = append(lines, textLine{"Generated: " + snap.GeneratedAt.Format(timestampLayout), 550, 18, colorFooter})

	for _, l := range lines {
		if err := drawCentered(canvas, l.text, l.midY, l.size, l.c); err != nil {
			return nil, err
		}
	}
	return canvas, nil
}

var goRegular = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// newFace returns Go Regular at size pixels. At 72 DPI points equal pixels.
// Faces keep internal buffers and are not shared between goroutines.
func newFace(size int) (font.Face, error) {
	f, err := goRegular()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create %dpx face: %w", size, err)
	}
	return face, nil
}

// drawCentered renders text at its native size, centered horizontally and
// vertically on midY. Lines wider than the canvas margins are set smaller.
func drawCentered(dst *image.RGBA, text string, midY, size int, c color.Color) error {
	face, err := newFace(size)
	if err != nil {
		return err
	}
	w := font.MeasureString(face, text).Ceil()
	for w > Width-2*textMargin && size > minTextSize {
		_ = face.Close()
		size--
		if face, err = newFace(size); err != nil {
			return err
		}
		w = font.MeasureString(face, text).Ceil()
	}
	defer face.Close()

	m := face.Metrics()
	baseline := midY + (m.Ascent-m.Descent).Ceil()/2
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P((Width-w)/2, baseline),
	}
	d.DrawString(text)
	return nil
}

func writeAtomic(path string, img image.Image) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".summary-*.png")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err = png.Encode(tmp, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
