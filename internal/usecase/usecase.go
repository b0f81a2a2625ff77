package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/blazecut/blazecut/internal/appdata"
	"github.com/blazecut/blazecut/internal/domain/sampling"
	"github.com/blazecut/blazecut/internal/logging"
	"github.com/blazecut/blazecut/internal/metrics"
	"github.com/blazecut/blazecut/internal/ports"
	"github.com/blazecut/blazecut/internal/types"
)

const (
	KeyframesDirName  = "blazecut_keyframes"
	ThumbnailsDirName = "blazecut_thumbnails"
)

var (
	ErrToolMissing     = errors.New("required external tool not installed")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOutsideTempRoot = errors.New("directory is outside the temp root")
	errEmptyPath       = fmt.Errorf("%w: path is empty", ErrInvalidArgument)
)

type Deps struct {
	Tools  ports.Toolchain
	Probe  ports.Prober
	Frames ports.FrameExtractor
	Log    *zerolog.Logger
	Now    func() time.Time
}

// Settings carries the configured defaults the commands fall back to.
type Settings struct {
	TempRoot     string
	AppDataDir   string
	DefaultCount int
	Frame        types.FrameOptions
	Thumbnail    types.ThumbnailOptions
}

type Usecase struct {
	d   Deps
	s   Settings
	log zerolog.Logger
}

func New(d Deps, s Settings) Usecase {
	if d.Now == nil {
		d.Now = time.Now
	}
	if s.TempRoot == "" {
		s.TempRoot = os.TempDir()
	}
	if s.DefaultCount < 1 {
		s.DefaultCount = types.DefaultFrameCount
	}
	s.Frame = s.Frame.WithDefaults()
	s.Thumbnail = s.Thumbnail.WithDefaults()
	return Usecase{d: d, s: s, log: logging.OrNop(d.Log)}
}

func (u Usecase) KeyframesDir() string {
	return filepath.Join(u.s.TempRoot, KeyframesDirName)
}

func (u Usecase) ThumbnailsDir() string {
	return filepath.Join(u.s.TempRoot, ThumbnailsDirName)
}

func (u Usecase) DefaultCount() int {
	return u.s.DefaultCount
}

func (u Usecase) Tools() []types.ToolStatus {
	if u.d.Tools == nil {
		return nil
	}
	return u.d.Tools.Statuses()
}

func (u Usecase) requireTools() error {
	if u.d.Tools == nil || !u.d.Tools.Available() {
		return ErrToolMissing
	}
	return nil
}

func (u Usecase) AnalyzeVideo(ctx context.Context, path string) (md types.MediaMetadata, err error) {
	defer u.observe("analyze_video", time.Now(), &err)

	if strings.TrimSpace(path) == "" {
		return types.MediaMetadata{}, errEmptyPath
	}
	if err := u.requireTools(); err != nil {
		return types.MediaMetadata{}, err
	}
	u.log.Info().Str("path", path).Msg("analyzing video")
	return u.d.Probe.Probe(ctx, path)
}

// ExtractKeyFrames samples count evenly spaced frames and returns their paths.
func (u Usecase) ExtractKeyFrames(ctx context.Context, path string, count int, opts types.FrameOptions) ([]string, error) {
	frames, err := u.SampleFrames(ctx, types.SamplingRequest{Path: path, Count: count, Options: opts})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Path)
	}
	return out, nil
}

// SampleFrames writes one still per computed position into the shared
// keyframes directory. Any failed extraction aborts the batch and no paths are
// returned. Concurrent calls share that directory and may overwrite each
// other's files.
func (u Usecase) SampleFrames(ctx context.Context, req types.SamplingRequest) (frames []types.SampledFrame, err error) {
	defer u.observe("extract_key_frames", time.Now(), &err)

	if strings.TrimSpace(req.Path) == "" {
		return nil, errEmptyPath
	}
	if req.Count < 1 || req.Count > sampling.MaxCount {
		return nil, fmt.Errorf("%w: count must be between 1 and %d, got %d", ErrInvalidArgument, sampling.MaxCount, req.Count)
	}
	if q := req.Options.Quality; q != 0 && (q < types.MinFrameQuality || q > types.MaxFrameQuality) {
		return nil, fmt.Errorf("%w: quality must be between %d and %d, got %d",
			ErrInvalidArgument, types.MinFrameQuality, types.MaxFrameQuality, q)
	}
	if req.Options.Width < 0 {
		return nil, fmt.Errorf("%w: width must be >= 0, got %d", ErrInvalidArgument, req.Options.Width)
	}
	opts := u.frameOptions(req.Options)
	if opts.Format != "jpg" && opts.Format != "png" {
		return nil, fmt.Errorf("%w: unsupported frame format %q", ErrInvalidArgument, opts.Format)
	}
	if err := u.requireTools(); err != nil {
		return nil, err
	}

	md, err := u.d.Probe.Probe(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	positions, err := sampling.UniformPositions(md.Duration, req.Count)
	if err != nil {
		return nil, fmt.Errorf("sample positions for %s: %w", req.Path, err)
	}

	dir := u.KeyframesDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create keyframes dir: %w", err)
	}

	u.log.Info().
		Str("path", req.Path).
		Int("count", req.Count).
		Float64("duration", md.Duration).
		Str("dir", dir).
		Msg("extracting key frames")

	frames = make([]types.SampledFrame, 0, len(positions))
	for i, pos := range positions {
		out := filepath.Join(dir, sampling.FrameName(i+1, opts.Format))
		if err := u.d.Frames.ExtractFrame(ctx, req.Path, pos, opts, out); err != nil {
			return nil, err
		}
		frames = append(frames, types.SampledFrame{Index: i + 1, Position: pos, Path: out})
	}
	metrics.FramesExtractedTotal.Add(float64(len(frames)))
	return frames, nil
}

func (u Usecase) GenerateThumbnail(ctx context.Context, path string) (out string, err error) {
	defer u.observe("generate_thumbnail", time.Now(), &err)

	if strings.TrimSpace(path) == "" {
		return "", errEmptyPath
	}
	if err := u.requireTools(); err != nil {
		return "", err
	}

	dir := u.ThumbnailsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create thumbnails dir: %w", err)
	}
	out = filepath.Join(dir, fmt.Sprintf("thumb_%d.jpg", u.d.Now().UnixMilli()))

	u.log.Info().Str("path", path).Str("out", out).Msg("generating thumbnail")
	if err := u.d.Frames.ExtractThumbnail(ctx, path, u.s.Thumbnail, out); err != nil {
		return "", err
	}
	return out, nil
}

func (u Usecase) CheckAppDataDirectory(_ context.Context) (dir string, err error) {
	defer u.observe("check_app_data_directory", time.Now(), &err)

	dir, err = appdata.Resolve(u.s.AppDataDir)
	if err != nil {
		return "", err
	}
	return appdata.Ensure(dir)
}

// CleanupTempFiles removes the contents of dir on a best-effort basis. A
// missing directory and individual removal failures are not errors; failures
// are logged at warn level. dir must resolve, after following symlinks, to a
// directory inside the temp root.
func (u Usecase) CleanupTempFiles(_ context.Context, dir string) (err error) {
	defer u.observe("cleanup_temp_files", time.Now(), &err)

	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("%w: dir is empty", ErrInvalidArgument)
	}
	abs, err := u.insideTempRoot(dir)
	if err != nil {
		return err
	}

	entries, readErr := os.ReadDir(abs)
	if readErr != nil {
		if !errors.Is(readErr, os.ErrNotExist) {
			u.log.Warn().Err(readErr).Str("dir", abs).Msg("cleanup: read dir")
		}
		return nil
	}

	removed := 0
	for _, e := range entries {
		p := filepath.Join(abs, e.Name())
		if rmErr := os.RemoveAll(p); rmErr != nil {
			u.log.Warn().Err(rmErr).Str("path", p).Msg("cleanup: remove")
			continue
		}
		removed++
	}
	u.log.Info().Str("dir", abs).Int("removed", removed).Int("entries", len(entries)).Msg("temp files cleaned")
	return nil
}

// insideTempRoot returns the symlink-resolved form of dir. A dir that does
// not exist yet is compared lexically against the unresolved root.
func (u Usecase) insideTempRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	root, err := filepath.Abs(u.s.TempRoot)
	if err != nil {
		return "", fmt.Errorf("temp root: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	switch {
	case err == nil:
		abs = resolved
		if r, err := filepath.EvalSymlinks(root); err == nil {
			root = r
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return "", fmt.Errorf("resolve %s: %w", abs, err)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideTempRoot, abs)
	}
	return abs, nil
}

func (u Usecase) frameOptions(o types.FrameOptions) types.FrameOptions {
	if o.Quality <= 0 {
		o.Quality = u.s.Frame.Quality
	}
	if o.Format == "" {
		o.Format = u.s.Frame.Format
	}
	o.Format = strings.ToLower(strings.TrimSpace(o.Format))
	if o.Format == "jpeg" {
		o.Format = "jpg"
	}
	if o.Width == 0 {
		o.Width = u.s.Frame.Width
	}
	return o.WithDefaults()
}

func (u Usecase) observe(command string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	metrics.CommandsTotal.WithLabelValues(command, metrics.StatusOf(err)).Inc()
	metrics.CommandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
	if err != nil {
		u.log.Error().Err(err).Str("command", command).Msg("command failed")
	}
}
