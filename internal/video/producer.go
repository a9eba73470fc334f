package video

import (
	"context"
	"fmt"
	"os"

	"github.com/aranel/songsmith/internal/lyrics"
)

// Producer renders the frame sequence for a track and muxes it with
// the audio artifact into the final MP4.
type Producer struct {
	renderer *Renderer
}

// NewProducer creates a Producer with the default renderer.
func NewProducer() *Producer {
	return &Producer{renderer: NewRenderer()}
}

// Produce writes the MP4 at outPath. Frames are rendered into a
// temporary directory that is removed afterwards.
func (p *Producer) Produce(ctx context.Context, sheet lyrics.Sheet, musicStyle string, durationSec int, audioPath, outPath string) error {
	framesDir, err := os.MkdirTemp("", "songsmith-frames-")
	if err != nil {
		return fmt.Errorf("creating frames directory: %w", err)
	}
	defer os.RemoveAll(framesDir)

	if err := p.renderer.RenderFrames(ctx, sheet, musicStyle, durationSec, framesDir); err != nil {
		return err
	}
	return Mux(ctx, framesDir, audioPath, outPath)
}
