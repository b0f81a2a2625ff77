//go:build integration

package itest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const modulePath = "github.com/blazecut/blazecut"

// mustRepoRoot walks up from the test's working directory to the go.mod that
// declares this module, so `go run ./cmd/blazecut` resolves from there.
func mustRepoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	root, err := moduleRoot(wd)
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	return root
}

func moduleRoot(dir string) (string, error) {
	for start := dir; ; {
		name, err := moduleName(filepath.Join(dir, "go.mod"))
		if err == nil && name == modulePath {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod for %s above %s", modulePath, start)
		}
		dir = parent
	}
}

func moduleName(goMod string) (string, error) {
	f, err := os.Open(goMod)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(sc.Text()), "module "); ok {
			return strings.Trim(strings.TrimSpace(rest), `"`), nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%s: no module directive", goMod)
}
