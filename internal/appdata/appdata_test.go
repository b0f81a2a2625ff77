package appdata

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestEnsure_CreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", AppName)

	got, err := Ensure(dir)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if got != dir {
		t.Fatalf("expected %q, got %q", dir, got)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, probeFile)); !os.IsNotExist(err) {
		t.Fatalf("expected probe file to be removed, stat err=%v", err)
	}
}

func TestEnsure_Idempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		if _, err := Ensure(dir); err != nil {
			t.Fatalf("ensure #%d: %v", i+1, err)
		}
	}
}

func TestEnsure_PathIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Ensure(file); err == nil {
		t.Fatalf("expected error when path is a file")
	}
}

func TestEnsure_ReadOnlyDir(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	_, err := Ensure(dir)
	if err == nil || !strings.Contains(err.Error(), "not writable") {
		t.Fatalf("expected not writable error, got %v", err)
	}
}

func TestEnsure_Empty(t *testing.T) {
	if _, err := Ensure(""); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}

func TestResolve(t *testing.T) {
	override := t.TempDir()
	got, err := Resolve(override)
	if err != nil || got != override {
		t.Fatalf("Resolve(override) = %q, %v", got, err)
	}

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(override, "xdg"))
	t.Setenv("HOME", override)
	got, err = Resolve("")
	if err != nil {
		t.Fatalf("resolve default: %v", err)
	}
	if filepath.Base(got) != AppName {
		t.Fatalf("expected path ending in %q, got %q", AppName, got)
	}
}
