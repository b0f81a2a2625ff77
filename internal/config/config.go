package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/blazecut/blazecut/internal/domain/sampling"
	"github.com/blazecut/blazecut/internal/types"
)

//go:embed sample_config.toml
var sampleConfig string

// SampleConfig returns the commented default configuration file.
func SampleConfig() string {
	return sampleConfig
}

type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

type Paths struct {
	TempRoot   string `toml:"temp_root"`
	AppDataDir string `toml:"app_data_dir"`
}

type Keyframes struct {
	Count   int    `toml:"count"`
	Quality int    `toml:"quality"`
	Format  string `toml:"format"`
	Width   int    `toml:"width"`
}

type Thumbnail struct {
	Seek    string `toml:"seek"`
	Width   int    `toml:"width"`
	Quality int    `toml:"quality"`
}

type Server struct {
	Listen       string   `toml:"listen"`
	AllowedHosts []string `toml:"allowed_hosts"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config holds every tunable of the backend.
//
// Sections:
//   - Tools: ffmpeg/ffprobe command names or paths
//   - Paths: temp root for frame output and the app-data directory
//   - Keyframes: defaults for uniform frame sampling
//   - Thumbnail: seek, width and quality of generated thumbnails
//   - Server: command bridge listen address and host allow-list
//   - Logging: level and format
type Config struct {
	CommandTimeoutSeconds int       `toml:"command_timeout_seconds"`
	Tools                 Tools     `toml:"tools"`
	Paths                 Paths     `toml:"paths"`
	Keyframes             Keyframes `toml:"keyframes"`
	Thumbnail             Thumbnail `toml:"thumbnail"`
	Server                Server    `toml:"server"`
	Logging               Logging   `toml:"logging"`
}

const (
	DefaultListen = "127.0.0.1:4317"
	envConfigPath = "BLAZECUT_CONFIG"
)

func Default() Config {
	return Config{
		Tools: Tools{FFmpeg: "ffmpeg", FFprobe: "ffprobe"},
		Keyframes: Keyframes{
			Count:   10,
			Quality: 2,
			Format:  "jpg",
		},
		Thumbnail: Thumbnail{
			Seek:    "15%",
			Width:   320,
			Quality: 2,
		},
		Server:  Server{Listen: DefaultListen},
		Logging: Logging{Level: "info", Format: "console"},
	}
}

// DefaultConfigPath returns ~/.config/blazecut/config.toml.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/blazecut/config.toml")
}

// Load resolves, parses, overrides from the environment, and validates the
// configuration. A missing file is not an error; defaults apply. It returns
// the config, the path that was considered, and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

// ApplyEnv overlays environment variables on top of file values.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Tools.FFmpeg, "BLAZECUT_FFMPEG")
	set(&c.Tools.FFprobe, "BLAZECUT_FFPROBE")
	set(&c.Paths.TempRoot, "BLAZECUT_TEMP_DIR")
	set(&c.Paths.AppDataDir, "BLAZECUT_APP_DATA_DIR")
	set(&c.Server.Listen, "BLAZECUT_LISTEN")
	set(&c.Logging.Level, "LOG_LEVEL")
	set(&c.Logging.Format, "LOG_FORMAT")

	if hosts := strings.TrimSpace(getenv("BLAZECUT_ALLOWED_HOSTS")); hosts != "" {
		c.Server.AllowedHosts = strings.Split(hosts, ",")
	}
	if v := strings.TrimSpace(getenv("BLAZECUT_COMMAND_TIMEOUT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CommandTimeoutSeconds = n
		}
	}
	switch strings.ToLower(strings.TrimSpace(getenv("DEBUG"))) {
	case "1", "true", "yes", "on":
		c.Logging.Level = "debug"
	}
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.TempRoot, err = expandPath(c.Paths.TempRoot); err != nil {
		return fmt.Errorf("temp_root: %w", err)
	}
	if c.Paths.AppDataDir, err = expandPath(c.Paths.AppDataDir); err != nil {
		return fmt.Errorf("app_data_dir: %w", err)
	}
	if c.Paths.TempRoot == "" {
		c.Paths.TempRoot = os.TempDir()
	}
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	c.Keyframes.Format = strings.ToLower(strings.TrimSpace(c.Keyframes.Format))
	if c.Keyframes.Format == "jpeg" {
		c.Keyframes.Format = "jpg"
	}
	c.Thumbnail.Seek = strings.TrimSpace(c.Thumbnail.Seek)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	return nil
}

func (c Config) Validate() error {
	if c.Tools.FFmpeg == "" {
		return errors.New("tools.ffmpeg is empty")
	}
	if c.Tools.FFprobe == "" {
		return errors.New("tools.ffprobe is empty")
	}
	if c.CommandTimeoutSeconds < 0 {
		return fmt.Errorf("command_timeout_seconds must be >= 0")
	}
	if c.Keyframes.Count < 1 || c.Keyframes.Count > sampling.MaxCount {
		return fmt.Errorf("keyframes.count must be between 1 and %d", sampling.MaxCount)
	}
	if err := validateQuality("keyframes.quality", c.Keyframes.Quality); err != nil {
		return err
	}
	if !ValidFrameFormat(c.Keyframes.Format) {
		return fmt.Errorf("keyframes.format: unsupported value %q", c.Keyframes.Format)
	}
	if c.Keyframes.Width < 0 {
		return fmt.Errorf("keyframes.width must be >= 0")
	}
	if c.Thumbnail.Seek == "" {
		return errors.New("thumbnail.seek is empty")
	}
	if c.Thumbnail.Width <= 0 {
		return fmt.Errorf("thumbnail.width must be > 0")
	}
	if err := validateQuality("thumbnail.quality", c.Thumbnail.Quality); err != nil {
		return err
	}
	if strings.TrimSpace(c.Server.Listen) == "" {
		return errors.New("server.listen is empty")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error", "off", "disabled":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// ValidFrameFormat reports whether ffmpeg's image2 muxer is asked for a
// format this backend names files for.
func ValidFrameFormat(f string) bool {
	switch f {
	case "jpg", "png":
		return true
	}
	return false
}

// validateQuality bounds ffmpeg's -q:v scale.
func validateQuality(name string, q int) error {
	if q < types.MinFrameQuality || q > types.MaxFrameQuality {
		return fmt.Errorf("%s must be between %d and %d", name, types.MinFrameQuality, types.MaxFrameQuality)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv(envConfigPath))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	projectPath, err := filepath.Abs("blazecut.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}
