package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/blazecut/blazecut/internal/bridge"
	"github.com/blazecut/blazecut/internal/config"
	"github.com/blazecut/blazecut/internal/types"
	"github.com/blazecut/blazecut/internal/usecase"
)

func newAnalyzeCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <video>",
		Short: "Print duration, resolution, frame rate, codec and bitrate of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.ensureApp(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := c.commandCtx(cmd)
			defer cancel()

			md, err := app.Usecase.AnalyzeVideo(ctx, args[0])
			if err != nil {
				return err
			}
			return c.emit(cmd, md, []string{"Field", "Value"}, func() [][]string {
				return [][]string{
					{"Duration", formatSeconds(md.Duration)},
					{"Resolution", fmt.Sprintf("%dx%d", md.Width, md.Height)},
					{"FPS", strconv.FormatFloat(md.FPS, 'f', 3, 64)},
					{"Codec", md.Codec},
					{"Bitrate", strconv.FormatInt(md.Bitrate, 10)},
					{"Format", md.Format},
				}
			}, nil)
		},
	}
}

func newKeyframesCommand(c *commandContext) *cobra.Command {
	var (
		count   int
		quality int
		format  string
		width   int
	)
	cmd := &cobra.Command{
		Use:   "keyframes <video>",
		Short: "Extract evenly spaced still frames into the temp keyframes directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.ensureApp(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("count") {
				count = app.Usecase.DefaultCount()
			}
			ctx, cancel := c.commandCtx(cmd)
			defer cancel()

			frames, err := app.Usecase.SampleFrames(ctx, types.SamplingRequest{
				Path:    args[0],
				Count:   count,
				Options: types.FrameOptions{Quality: quality, Format: format, Width: width},
			})
			if err != nil {
				return err
			}
			return c.emit(cmd, frames, []string{"#", "Position (s)", "Path"}, func() [][]string {
				rows := make([][]string, 0, len(frames))
				for _, f := range frames {
					rows = append(rows, []string{strconv.Itoa(f.Index), formatSeconds(f.Position), f.Path})
				}
				return rows
			}, []columnAlignment{alignRight, alignRight, alignLeft})
		},
	}
	cmd.Flags().IntVar(&count, "count", types.DefaultFrameCount, "Number of frames to extract (config default applies when unset)")
	cmd.Flags().IntVar(&quality, "quality", 0, "JPEG quality passed to -q:v, 1 best to 31 worst (0 uses config)")
	cmd.Flags().StringVar(&format, "format", "", "Output image format: jpg or png (empty uses config)")
	cmd.Flags().IntVar(&width, "width", 0, "Scale frames to this width keeping aspect (0 keeps source size)")
	return cmd
}

func newThumbnailCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "thumbnail <video>",
		Short: "Write a thumbnail image into the temp thumbnails directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.ensureApp(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := c.commandCtx(cmd)
			defer cancel()

			out, err := app.Usecase.GenerateThumbnail(ctx, args[0])
			if err != nil {
				return err
			}
			return c.emitPath(cmd, out)
		},
	}
}

func newAppDirCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "appdir",
		Short: "Create the application data directory if needed and check it is writable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.ensureApp(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := c.commandCtx(cmd)
			defer cancel()

			dir, err := app.Usecase.CheckAppDataDirectory(ctx)
			if err != nil {
				return err
			}
			return c.emitPath(cmd, dir)
		},
	}
}

func newCleanupCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup [dir]",
		Short: "Remove the contents of a temp output directory (defaults to the keyframes dir)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.ensureApp(cmd)
			if err != nil {
				return err
			}
			dir := app.Usecase.KeyframesDir()
			if len(args) == 1 {
				dir = args[0]
			}
			ctx, cancel := c.commandCtx(cmd)
			defer cancel()

			if err := app.Usecase.CleanupTempFiles(ctx, dir); err != nil {
				return err
			}
			return c.emitPath(cmd, dir)
		},
	}
}

func newToolsCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Report whether ffmpeg and ffprobe are installed; exits non-zero when either is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.ensureApp(cmd)
			if err != nil {
				return err
			}
			statuses := app.Usecase.Tools()
			err = c.emit(cmd, statuses, []string{"Tool", "Available", "Path", "Version / Detail"}, func() [][]string {
				rows := make([][]string, 0, len(statuses))
				for _, s := range statuses {
					info := s.Version
					if !s.Available {
						info = s.Detail
					}
					rows = append(rows, []string{s.Name, yesNo(s.Available), s.Path, info})
				}
				return rows
			}, nil)
			if err != nil {
				return err
			}
			if !app.Tools.Available() {
				return usecase.ErrToolMissing
			}
			return nil
		},
	}
}

func newServeCommand(c *commandContext) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the loopback HTTP command bridge for the editor UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.ensureApp(cmd)
			if err != nil {
				return err
			}
			cfg := c.config
			addr := cfg.Server.Listen
			if listen != "" {
				addr = listen
			}
			srv := bridge.New(app.Usecase, bridge.Options{
				CommandTimeout: time.Duration(cfg.CommandTimeoutSeconds) * time.Second,
				Log:            &c.log,
			})
			return srv.ListenAndServe(cmd.Context(), addr, cfg.Server.AllowedHosts)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address, host:port (default from config, "+config.DefaultListen+")")
	return cmd
}

func newConfigCommand(c *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:         "sample",
		Short:       "Print a commented sample configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), config.SampleConfig())
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:         "validate",
		Short:       "Load and validate the configuration, then print where it came from",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, path, exists, err := config.Load(c.configFlag)
			if err != nil {
				return err
			}
			if !exists {
				path = "(defaults; no file at " + path + ")"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "configuration valid: %s\n", path)
			return err
		},
	})
	return cmd
}

// emitPath prints a bare path on a terminal and a JSON string otherwise.
func (c *commandContext) emitPath(cmd *cobra.Command, p string) error {
	if !c.wantTable(cmd) {
		return writeJSON(cmd, p)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), p)
	return err
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
