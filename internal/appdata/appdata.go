package appdata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	AppName   = "blazecut"
	probeFile = ".write_probe"
)

// Resolve returns override when set, otherwise <user config dir>/blazecut,
// which follows each platform's convention (XDG on Linux, Application
// Support on macOS, %AppData% on Windows).
func Resolve(override string) (string, error) {
	if override != "" {
		return filepath.Abs(override)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve app data base: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Ensure creates dir if needed and proves it is writable by creating and
// removing a probe file. It returns the absolute directory path.
func Ensure(dir string) (string, error) {
	if dir == "" {
		return "", errors.New("app data dir is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("app data dir %q: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("create app data dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat app data dir: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("app data dir %s is not a directory", abs)
	}

	probe := filepath.Join(abs, probeFile)
	if err := os.WriteFile(probe, []byte("ok\n"), 0o644); err != nil {
		return "", fmt.Errorf("app data dir not writable: %w", err)
	}
	_ = os.Remove(probe)
	return abs, nil
}
