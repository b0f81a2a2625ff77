package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/blazecut/blazecut/internal/types"
)

const versionTimeout = 10 * time.Second

// Toolchain is the result of resolving ffmpeg and ffprobe once at startup.
type Toolchain struct {
	FFmpeg  types.ToolStatus
	FFprobe types.ToolStatus
}

// Discover looks both binaries up on PATH (or takes the configured path) and
// runs `<bin> -version` to confirm they start. It never fails; availability is
// reported through the returned statuses.
func Discover(ctx context.Context, ffmpegCmd, ffprobeCmd string) Toolchain {
	return Toolchain{
		FFmpeg:  checkBinary(ctx, "ffmpeg", ffmpegCmd),
		FFprobe: checkBinary(ctx, "ffprobe", ffprobeCmd),
	}
}

func (t Toolchain) Available() bool {
	return t.FFmpeg.Available && t.FFprobe.Available
}

func (t Toolchain) Statuses() []types.ToolStatus {
	return []types.ToolStatus{t.FFmpeg, t.FFprobe}
}

// Adapter builds an adapter bound to the resolved binary paths.
func (t Toolchain) Adapter(log *zerolog.Logger) *Adapter {
	return New(resolvedOrCommand(t.FFmpeg), resolvedOrCommand(t.FFprobe), log)
}

func resolvedOrCommand(s types.ToolStatus) string {
	if s.Path != "" {
		return s.Path
	}
	return s.Command
}

func checkBinary(ctx context.Context, name, command string) types.ToolStatus {
	command = strings.TrimSpace(command)
	if command == "" {
		command = name
	}
	status := types.ToolStatus{Name: name, Command: command}

	path, err := exec.LookPath(command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", command)
		return status
	}
	status.Path = path

	vctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(vctx, path, "-version").CombinedOutput()
	if err != nil {
		status.Detail = fmt.Sprintf("%s -version: %v", command, err)
		return status
	}
	status.Version = firstLine(out)
	status.Available = true
	return status
}

func firstLine(b []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(b))
	if sc.Scan() {
		return strings.TrimSpace(sc.Text())
	}
	return ""
}
