package video

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/sync/errgroup"

	"github.com/aranel/songsmith/internal/lyrics"
)

const (
	frameWidth  = 1280
	frameHeight = 720

	// One frame per second of audio; the muxer plays them back at 1 fps.
	FrameRate = 1
)

// Renderer draws the frame sequence for a song.
type Renderer struct {
	Width  int
	Height int
}

// NewRenderer returns a renderer at the standard 720p frame size.
func NewRenderer() *Renderer {
	return &Renderer{Width: frameWidth, Height: frameHeight}
}

// sectionAt returns the lyric section covering second t, or nil
// between sections.
func sectionAt(sheet lyrics.Sheet, t int) (int, *lyrics.Section) {
	for i := range sheet.Sections {
		s := &sheet.Sections[i]
		if t >= s.Start && t < s.End {
			return i, s
		}
	}
	return 0, nil
}

// RenderFrames writes one PNG per second of the song into dir, named
// frame_0001.png onward. Frames render in parallel; the first error
// cancels the rest.
func (r *Renderer) RenderFrames(ctx context.Context, sheet lyrics.Sheet, musicStyle string, durationSec int, dir string) error {
	if durationSec <= 0 {
		return fmt.Errorf("nothing to render: duration %ds", durationSec)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating frames directory: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for t := 0; t < durationSec; t++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			idx, section := sectionAt(sheet, t)
			scene := SceneFor(musicStyle, idx)

			line := ""
			if section != nil {
				line = section.Lyrics
			}

			path := filepath.Join(dir, fmt.Sprintf("frame_%04d.png", t+1))
			return r.renderFrame(path, scene, sheet.Title, line)
		})
	}
	return g.Wait()
}

// renderFrame draws one backdrop gradient with the title and the
// current lyric line.
func (r *Renderer) renderFrame(path string, scene Scene, title, line string) error {
	dc := gg.NewContext(r.Width, r.Height)

	// Vertical gradient across the scene's three palette colors.
	grad := gg.NewLinearGradient(0, 0, 0, float64(r.Height))
	for i, c := range scene.Colors {
		grad.AddColorStop(float64(i)/2, toRGBA(c))
	}
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(r.Width), float64(r.Height))
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)

	// Title along the top, lyric line centered.
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(title, float64(r.Width)/2, 60, 0.5, 0.5)
	if line != "" {
		dc.SetRGBA(0, 0, 0, 0.4)
		w, h := dc.MeasureString(line)
		dc.DrawRectangle(float64(r.Width)/2-w/2-20, float64(r.Height)/2-h-10, w+40, h*2+20)
		dc.Fill()
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(line, float64(r.Width)/2, float64(r.Height)/2, 0.5, 0.5)
	}

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("saving frame %s: %w", filepath.Base(path), err)
	}
	return nil
}

func toRGBA(c Color) color.RGBA {
	return color.RGBA{
		R: uint8(c.R * 255),
		G: uint8(c.G * 255),
		B: uint8(c.B * 255),
		A: 255,
	}
}
