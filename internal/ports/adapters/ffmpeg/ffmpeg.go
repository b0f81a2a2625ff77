package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/blazecut/blazecut/internal/metrics"
	"github.com/blazecut/blazecut/internal/types"
)

var (
	ErrExec          = errors.New("tool execution failed")
	ErrNonZeroExit   = errors.New("non-zero exit")
	ErrParse         = errors.New("output parse failed")
	ErrNoVideoStream = errors.New("no video stream found")
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
	log     zerolog.Logger
}

func New(ffmpegPath, ffprobePath string, log *zerolog.Logger) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	l := zerolog.Nop()
	if log != nil {
		l = log.With().Str("component", "ffmpeg").Logger()
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, log: l}
}

func (a *Adapter) ExtractFrame(ctx context.Context, inPath string, at float64, opts types.FrameOptions, outPath string) error {
	opts = opts.WithDefaults()
	args := []string{
		"-y",
		"-ss", fmtSeconds(at),
		"-i", inPath,
		"-vframes", "1",
	}
	if opts.Width > 0 {
		args = append(args, "-vf", scaleFilter(opts.Width))
	}
	args = append(args,
		"-q:v", strconv.Itoa(opts.Quality),
		"-f", "image2",
		outPath,
	)
	if err := a.runCombined(ctx, "extract_frame", args); err != nil {
		return fmt.Errorf("ffmpeg extract frame at %ss: %w", fmtSeconds(at), err)
	}
	return nil
}

// ExtractThumbnail passes opts.Seek to -ss verbatim, so a relative value such
// as "15%" reaches ffmpeg unchanged.
func (a *Adapter) ExtractThumbnail(ctx context.Context, inPath string, opts types.ThumbnailOptions, outPath string) error {
	opts = opts.WithDefaults()
	args := []string{
		"-y",
		"-ss", opts.Seek,
		"-i", inPath,
		"-vframes", "1",
		"-vf", scaleFilter(opts.Width),
		"-q:v", strconv.Itoa(opts.Quality),
		"-f", "image2",
		outPath,
	}
	if err := a.runCombined(ctx, "thumbnail", args); err != nil {
		return fmt.Errorf("ffmpeg generate thumbnail: %w", err)
	}
	return nil
}

func (a *Adapter) runCombined(ctx context.Context, op string, args []string) error {
	a.log.Debug().Str("op", op).Strs("args", args).Msg("running ffmpeg")
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	metrics.ToolInvocationsTotal.WithLabelValues("ffmpeg", op, metrics.StatusOf(err)).Inc()
	if err != nil {
		return classifyRunError(ctx, err, b)
	}
	return nil
}

// classifyRunError separates "could not start" from "ran and failed". The
// tool's own output is appended in the second case.
func classifyRunError(ctx context.Context, err error, output []byte) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ErrExec, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out := strings.TrimSpace(string(output))
		if out == "" {
			return fmt.Errorf("%w (%v)", ErrNonZeroExit, exitErr)
		}
		return fmt.Errorf("%w (%v)\n%s", ErrNonZeroExit, exitErr, out)
	}
	return fmt.Errorf("%w: %w", ErrExec, err)
}

func runSeparate(ctx context.Context, bin string, args []string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', -1, 64)
}

func scaleFilter(width int) string {
	return "scale=" + strconv.Itoa(width) + ":-1"
}
