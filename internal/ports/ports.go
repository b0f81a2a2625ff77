package ports

import (
	"context"

	"github.com/blazecut/blazecut/internal/types"
)

// Toolchain reports whether the external media binaries were found at startup.
type Toolchain interface {
	Available() bool
	Statuses() []types.ToolStatus
}

type Prober interface {
	Probe(ctx context.Context, inPath string) (types.MediaMetadata, error)
}

type FrameExtractor interface {
	ExtractFrame(ctx context.Context, inPath string, at float64, opts types.FrameOptions, outPath string) error
	ExtractThumbnail(ctx context.Context, inPath string, opts types.ThumbnailOptions, outPath string) error
}
