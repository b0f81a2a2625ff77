//go:build integration

package itest

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blazecut/blazecut/internal/bridge"
	"github.com/blazecut/blazecut/internal/config"
	"github.com/blazecut/blazecut/internal/pipeline"
	"github.com/blazecut/blazecut/internal/types"
)

func buildApp(ctx context.Context, t *testing.T) pipeline.App {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.TempRoot = t.TempDir()
	cfg.Paths.AppDataDir = filepath.Join(t.TempDir(), "appdata")
	// ffmpeg's -ss takes a time duration; relative seeks are not part of its
	// syntax, so the real-tool run uses an absolute offset.
	cfg.Thumbnail.Seek = "1"

	app, err := pipeline.Build(ctx, &cfg, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !app.Tools.Available() {
		t.Fatalf("ffmpeg and ffprobe are required for itest: %+v", app.Tools.Statuses())
	}
	return app
}

func TestE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	app := buildApp(ctx, t)
	in := makeFixture(t, t.TempDir(), 4)
	uc := app.Usecase

	md, err := uc.AnalyzeVideo(ctx, in)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	wantDur, err := probeDurationSeconds(in)
	if err != nil {
		t.Fatalf("cross-check duration: %v", err)
	}
	if math.Abs(md.Duration-wantDur) > 1e-6 {
		t.Fatalf("duration = %v, ffprobe says %v", md.Duration, wantDur)
	}
	if md.Width != 320 || md.Height != 240 || md.FPS != 25 || md.Codec != "h264" {
		t.Fatalf("unexpected metadata %+v", md)
	}
	if md.Bitrate <= 0 || !strings.Contains(md.Format, "mp4") {
		t.Fatalf("unexpected container fields %+v", md)
	}

	paths, err := uc.ExtractKeyFrames(ctx, in, 4, types.FrameOptions{Width: 160})
	if err != nil {
		t.Fatalf("extract key frames: %v", err)
	}
	if len(paths) != 4 {
		t.Fatalf("got %d frames, want 4", len(paths))
	}
	for i, p := range paths {
		if filepath.Dir(p) != uc.KeyframesDir() {
			t.Fatalf("frame %d outside keyframes dir: %s", i, p)
		}
		info, err := os.Stat(p)
		if err != nil || info.Size() == 0 {
			t.Fatalf("frame %d missing or empty: %v", i, err)
		}
	}

	thumb, err := uc.GenerateThumbnail(ctx, in)
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	if info, err := os.Stat(thumb); err != nil || info.Size() == 0 {
		t.Fatalf("thumbnail missing or empty: %v", err)
	}

	dir, err := uc.CheckAppDataDirectory(ctx)
	if err != nil {
		t.Fatalf("app data dir: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("app data dir not created: %v", err)
	}

	if err := uc.CleanupTempFiles(ctx, uc.KeyframesDir()); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	entries, err := os.ReadDir(uc.KeyframesDir())
	if err != nil {
		t.Fatalf("keyframes dir removed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("cleanup left %d entries", len(entries))
	}
}

func TestE2E_Bridge(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	app := buildApp(ctx, t)
	in := makeFixture(t, t.TempDir(), 2)

	srv := httptest.NewServer(bridge.New(app.Usecase, bridge.Options{}).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/invoke/"+bridge.CmdExtractKeyFrames, "application/json",
		strings.NewReader(`{"path":"`+in+`","count":2}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if _, err := os.Stat(filepath.Join(app.Usecase.KeyframesDir(), "frame_2.jpg")); err != nil {
		t.Fatalf("frame_2.jpg missing: %v", err)
	}

	resp, err = http.Post(srv.URL+"/invoke/"+bridge.CmdAnalyzeVideo, "application/json",
		strings.NewReader(`{"path":"`+filepath.Join(t.TempDir(), "missing.mp4")+`"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("missing input status = %d, want 500", resp.StatusCode)
	}
}
