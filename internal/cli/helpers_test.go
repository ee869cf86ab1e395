package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv is an isolated pantry installation.
type testEnv struct {
	t         *testing.T
	configDir string
	dataDir   string
}

// result captures one CLI invocation.
type result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	t.Setenv("PANTRY_CONFIG_DIR", "")
	t.Setenv("PANTRY_DATA_DIR", "")
	t.Setenv("PANTRY_LOG_LEVEL", "")
	return &testEnv{
		t:         t,
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

// run executes pantry with the environment's directories.
func (e *testEnv) run(stdin string, args ...string) result {
	e.t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))

	code := run(context.Background(), root, &stderr)
	return result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: code}
}

// mustRun runs pantry and fails the test on a non-zero exit.
func (e *testEnv) mustRun(args ...string) result {
	e.t.Helper()
	r := e.run("", args...)
	if r.ExitCode != 0 {
		e.t.Fatalf("pantry %v exited %d\nstdout: %s\nstderr: %s", args, r.ExitCode, r.Stdout, r.Stderr)
	}
	return r
}

// product runs "show --json" and decodes the result.
func (e *testEnv) product(id string) map[string]any {
	e.t.Helper()
	r := e.mustRun("--json", "show", id)
	var out map[string]any
	if err := json.Unmarshal([]byte(r.Stdout), &out); err != nil {
		e.t.Fatalf("decode show output: %v\n%s", err, r.Stdout)
	}
	return out
}
