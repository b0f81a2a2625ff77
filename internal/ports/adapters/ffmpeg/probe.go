package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/blazecut/blazecut/internal/metrics"
	"github.com/blazecut/blazecut/internal/types"
)

const unknownCodec = "unknown"

// probeOutput is the subset of `ffprobe -print_format json -show_format
// -show_streams` that metadata extraction reads. Field types are lenient: a
// value of the wrong JSON type decodes to its zero value instead of failing
// the whole document.
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType  lenientString `json:"codec_type"`
	CodecName  lenientString `json:"codec_name"`
	Width      lenientInt    `json:"width"`
	Height     lenientInt    `json:"height"`
	RFrameRate lenientString `json:"r_frame_rate"`
}

type probeFormat struct {
	FormatName lenientString `json:"format_name"`
	Duration   lenientString `json:"duration"`
	BitRate    lenientString `json:"bit_rate"`
}

func (a *Adapter) Probe(ctx context.Context, inPath string) (types.MediaMetadata, error) {
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"--",
		inPath,
	}
	a.log.Debug().Str("path", inPath).Msg("probing media")

	stdout, stderr, err := runSeparate(ctx, a.ffprobe, args)
	metrics.ToolInvocationsTotal.WithLabelValues("ffprobe", "probe", metrics.StatusOf(err)).Inc()
	if err != nil {
		var exitErr *exec.ExitError
		if ctx.Err() == nil && errors.As(err, &exitErr) {
			return types.MediaMetadata{}, fmt.Errorf("ffprobe: probe failed: %w (%v): %s",
				ErrNonZeroExit, exitErr, strings.TrimSpace(string(stderr)))
		}
		return types.MediaMetadata{}, fmt.Errorf("ffprobe: %w", classifyRunError(ctx, err, nil))
	}

	md, err := decodeProbe(stdout)
	if err != nil {
		return types.MediaMetadata{}, fmt.Errorf("ffprobe %s: %w", inPath, err)
	}
	a.log.Debug().
		Str("path", inPath).
		Float64("duration", md.Duration).
		Int("width", md.Width).
		Int("height", md.Height).
		Float64("fps", md.FPS).
		Str("codec", md.Codec).
		Int64("bitrate", md.Bitrate).
		Msg("media probed")
	return md, nil
}

func decodeProbe(b []byte) (types.MediaMetadata, error) {
	var out probeOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return types.MediaMetadata{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	video, ok := out.firstVideo()
	if !ok {
		return types.MediaMetadata{}, ErrNoVideoStream
	}
	return types.MediaMetadata{
		Duration: out.Format.durationSeconds(),
		Width:    int(video.Width),
		Height:   int(video.Height),
		FPS:      ParseFrameRate(string(video.RFrameRate)),
		Codec:    video.codec(),
		Bitrate:  out.Format.bitRate(),
		Format:   string(out.Format.FormatName),
	}, nil
}

func (o probeOutput) firstVideo() (probeStream, bool) {
	for _, s := range o.Streams {
		if s.CodecType == "video" {
			return s, true
		}
	}
	return probeStream{}, false
}

func (s probeStream) codec() string {
	if c := strings.TrimSpace(string(s.CodecName)); c != "" {
		return c
	}
	return unknownCodec
}

// durationSeconds returns the container duration, 0 when absent or unparsable.
func (f probeFormat) durationSeconds() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(f.Duration)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// bitRate returns the container bitrate in bits/s, 0 when absent or unparsable.
func (f probeFormat) bitRate() int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(string(f.BitRate)), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// ParseFrameRate converts an ffprobe rational such as "30000/1001" to frames
// per second. Anything other than exactly two numeric parts with a positive
// denominator yields 0.
func ParseFrameRate(s string) float64 {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return 0
	}
	num, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return 0
	}
	den, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || math.IsInf(den, 0) || !(den > 0) {
		return 0
	}
	return num / den
}

type lenientInt int

func (n *lenientInt) UnmarshalJSON(b []byte) error {
	*n = 0
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	if v < 0 || v > math.MaxInt32 || v != math.Trunc(v) {
		return nil
	}
	*n = lenientInt(v)
	return nil
}

// lenientString keeps JSON strings as-is and renders JSON numbers as their
// literal text. Every other type decodes to "".
type lenientString string

func (s *lenientString) UnmarshalJSON(b []byte) error {
	*s = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch {
	case b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = lenientString(v)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*s = lenientString(b)
	}
	return nil
}
