package types

type MediaMetadata struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	Codec    string  `json:"codec"`
	Bitrate  int64   `json:"bitrate"`
	Format   string  `json:"format,omitempty"`
}

type SamplingRequest struct {
	Path    string       `json:"path"`
	Count   int          `json:"count"`
	Options FrameOptions `json:"options"`
}

// FrameOptions tunes a single still-frame extraction. Zero values mean
// "use the default" and are filled in by WithDefaults.
type FrameOptions struct {
	Quality int    `json:"quality,omitempty"`
	Format  string `json:"format,omitempty"`
	Width   int    `json:"width,omitempty"`
}

const (
	DefaultFrameQuality = 2
	DefaultFrameFormat  = "jpg"
	DefaultFrameCount   = 10

	// ffmpeg -q:v scale: 1 is best, 31 worst.
	MinFrameQuality = 1
	MaxFrameQuality = 31
)

func (o FrameOptions) WithDefaults() FrameOptions {
	if o.Quality <= 0 {
		o.Quality = DefaultFrameQuality
	}
	if o.Format == "" {
		o.Format = DefaultFrameFormat
	}
	if o.Width < 0 {
		o.Width = 0
	}
	return o
}

type ThumbnailOptions struct {
	Seek    string `json:"seek"`
	Width   int    `json:"width"`
	Quality int    `json:"quality"`
}

const (
	DefaultThumbnailSeek  = "15%"
	DefaultThumbnailWidth = 320
)

func (o ThumbnailOptions) WithDefaults() ThumbnailOptions {
	if o.Seek == "" {
		o.Seek = DefaultThumbnailSeek
	}
	if o.Width <= 0 {
		o.Width = DefaultThumbnailWidth
	}
	if o.Quality <= 0 {
		o.Quality = DefaultFrameQuality
	}
	return o
}

type SampledFrame struct {
	Index    int     `json:"index"`
	Position float64 `json:"position"`
	Path     string  `json:"path"`
}

type ToolStatus struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}
