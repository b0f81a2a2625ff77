package pipeline

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/blazecut/blazecut/internal/bridge"
	"github.com/blazecut/blazecut/internal/config"
	"github.com/blazecut/blazecut/internal/logging"
	"github.com/blazecut/blazecut/internal/metrics"
	"github.com/blazecut/blazecut/internal/ports"
	"github.com/blazecut/blazecut/internal/ports/adapters/ffmpeg"
	"github.com/blazecut/blazecut/internal/types"
	"github.com/blazecut/blazecut/internal/usecase"
)

// App is the wired backend: the command use case plus the toolchain that was
// resolved for it.
type App struct {
	Usecase usecase.Usecase
	Tools   ffmpeg.Toolchain
}

// Build resolves the external tools once and wires adapters into the use
// case. A missing tool is not a build error; commands that need it fail with
// usecase.ErrToolMissing.
func Build(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (App, error) {
	if cfg == nil {
		return App{}, errors.New("pipeline: nil config")
	}
	l := logging.OrNop(log)

	tools := ffmpeg.Discover(ctx, cfg.Tools.FFmpeg, cfg.Tools.FFprobe)
	for _, st := range tools.Statuses() {
		metrics.SetToolAvailable(st.Name, st.Available)
		if st.Available {
			l.Debug().Str("tool", st.Name).Str("path", st.Path).Str("version", st.Version).Msg("tool resolved")
			continue
		}
		l.Warn().Str("tool", st.Name).Str("command", st.Command).Str("detail", st.Detail).Msg("tool unavailable")
	}

	adapter := tools.Adapter(log)
	uc := usecase.New(usecase.Deps{
		Tools:  tools,
		Probe:  adapter,
		Frames: adapter,
		Log:    log,
	}, SettingsFromConfig(cfg))

	return App{Usecase: uc, Tools: tools}, nil
}

func SettingsFromConfig(cfg *config.Config) usecase.Settings {
	return usecase.Settings{
		TempRoot:     cfg.Paths.TempRoot,
		AppDataDir:   cfg.Paths.AppDataDir,
		DefaultCount: cfg.Keyframes.Count,
		Frame: types.FrameOptions{
			Quality: cfg.Keyframes.Quality,
			Format:  cfg.Keyframes.Format,
			Width:   cfg.Keyframes.Width,
		},
		Thumbnail: types.ThumbnailOptions{
			Seek:    cfg.Thumbnail.Seek,
			Width:   cfg.Thumbnail.Width,
			Quality: cfg.Thumbnail.Quality,
		},
	}
}

// ensure adapters implement ports
var _ ports.Prober = (*ffmpeg.Adapter)(nil)
var _ ports.FrameExtractor = (*ffmpeg.Adapter)(nil)
var _ ports.Toolchain = ffmpeg.Toolchain{}
var _ bridge.Commands = usecase.Usecase{}
