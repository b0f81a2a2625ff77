package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var envKeys = []string{
	"BLAZECUT_CONFIG", "BLAZECUT_FFMPEG", "BLAZECUT_FFPROBE", "BLAZECUT_TEMP_DIR",
	"BLAZECUT_APP_DATA_DIR", "BLAZECUT_LISTEN", "BLAZECUT_ALLOWED_HOSTS",
	"BLAZECUT_COMMAND_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT", "DEBUG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatalf("expected missing file")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Tools.FFmpeg != "ffmpeg" || cfg.Tools.FFprobe != "ffprobe" {
		t.Fatalf("unexpected tool defaults: %+v", cfg.Tools)
	}
	if cfg.Paths.TempRoot != os.TempDir() {
		t.Fatalf("expected temp root %q, got %q", os.TempDir(), cfg.Paths.TempRoot)
	}
	if cfg.Keyframes.Count != 10 || cfg.Thumbnail.Seek != "15%" || cfg.Thumbnail.Width != 320 {
		t.Fatalf("unexpected sampling defaults: %+v %+v", cfg.Keyframes, cfg.Thumbnail)
	}
	if cfg.Server.Listen != DefaultListen {
		t.Fatalf("unexpected listen default: %q", cfg.Server.Listen)
	}
}

func TestLoad_FileValues(t *testing.T) {
	clearEnv(t)
	tmp := t.TempDir()
	path := writeConfig(t, `
command_timeout_seconds = 90

[tools]
ffmpeg = "/opt/ffmpeg/bin/ffmpeg"

[paths]
temp_root = "`+filepath.ToSlash(tmp)+`"

[keyframes]
count = 4
format = "JPEG"
width = 640

[logging]
level = "DEBUG"
format = "json"
`)

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatalf("expected file to exist")
	}
	if cfg.CommandTimeoutSeconds != 90 {
		t.Fatalf("unexpected timeout: %d", cfg.CommandTimeoutSeconds)
	}
	if cfg.Tools.FFmpeg != "/opt/ffmpeg/bin/ffmpeg" || cfg.Tools.FFprobe != "ffprobe" {
		t.Fatalf("unexpected tools: %+v", cfg.Tools)
	}
	if cfg.Paths.TempRoot != filepath.Clean(tmp) {
		t.Fatalf("unexpected temp root: %q", cfg.Paths.TempRoot)
	}
	if cfg.Keyframes.Count != 4 || cfg.Keyframes.Format != "jpg" || cfg.Keyframes.Width != 640 {
		t.Fatalf("unexpected keyframes: %+v", cfg.Keyframes)
	}
	if cfg.Keyframes.Quality != 2 {
		t.Fatalf("expected default quality to survive partial section, got %d", cfg.Keyframes.Quality)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[tools]
ffprobe = "/from/file/ffprobe"

[server]
listen = "127.0.0.1:9000"
`)
	t.Setenv("BLAZECUT_FFPROBE", "/from/env/ffprobe")
	t.Setenv("BLAZECUT_LISTEN", "localhost:7000")
	t.Setenv("BLAZECUT_ALLOWED_HOSTS", "desktop.local,ui.local")
	t.Setenv("DEBUG", "true")

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tools.FFprobe != "/from/env/ffprobe" {
		t.Fatalf("expected env ffprobe, got %q", cfg.Tools.FFprobe)
	}
	if cfg.Server.Listen != "localhost:7000" {
		t.Fatalf("expected env listen, got %q", cfg.Server.Listen)
	}
	if strings.Join(cfg.Server.AllowedHosts, ",") != "desktop.local,ui.local" {
		t.Fatalf("unexpected allowed hosts: %v", cfg.Server.AllowedHosts)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected DEBUG to force debug level, got %q", cfg.Logging.Level)
	}
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[thumbnail]\nwidth = 480\n")
	t.Setenv("BLAZECUT_CONFIG", path)

	cfg, resolved, exists, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to be used, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Thumbnail.Width != 480 {
		t.Fatalf("unexpected thumbnail width: %d", cfg.Thumbnail.Width)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[keyframes]\ncuont = 3\n")
	if _, _, _, err := Load(path); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
}

func TestLoad_RejectsMalformedTOML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[keyframes\ncount = 3\n")
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"defaults ok", func(*Config) {}, ""},
		{"empty ffmpeg", func(c *Config) { c.Tools.FFmpeg = "" }, "tools.ffmpeg"},
		{"empty ffprobe", func(c *Config) { c.Tools.FFprobe = "" }, "tools.ffprobe"},
		{"negative timeout", func(c *Config) { c.CommandTimeoutSeconds = -1 }, "command_timeout_seconds"},
		{"zero count", func(c *Config) { c.Keyframes.Count = 0 }, "keyframes.count"},
		{"count above max", func(c *Config) { c.Keyframes.Count = 1001 }, "keyframes.count"},
		{"quality too high", func(c *Config) { c.Keyframes.Quality = 32 }, "keyframes.quality"},
		{"bad format", func(c *Config) { c.Keyframes.Format = "gif" }, "keyframes.format"},
		{"negative width", func(c *Config) { c.Keyframes.Width = -1 }, "keyframes.width"},
		{"empty seek", func(c *Config) { c.Thumbnail.Seek = "" }, "thumbnail.seek"},
		{"zero thumb width", func(c *Config) { c.Thumbnail.Width = 0 }, "thumbnail.width"},
		{"thumb quality", func(c *Config) { c.Thumbnail.Quality = 0 }, "thumbnail.quality"},
		{"empty listen", func(c *Config) { c.Server.Listen = " " }, "server.listen"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantSub == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("expected error containing %q, got %v", tt.wantSub, err)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	got, err := expandPath("~/blazecut/tmp")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != filepath.Join(home, "blazecut", "tmp") {
		t.Fatalf("unexpected expansion: %q", got)
	}
	if got, _ := expandPath("  "); got != "" {
		t.Fatalf("expected empty path to stay empty, got %q", got)
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, SampleConfig())
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	def := Default()
	if cfg.Keyframes != def.Keyframes || cfg.Thumbnail != def.Thumbnail {
		t.Fatalf("sample config drifted from defaults: %+v %+v", cfg.Keyframes, cfg.Thumbnail)
	}
}
