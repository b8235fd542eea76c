package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"--version"}, strings.NewReader(""), &stdout, &stderr); code != 0 {
		t.Fatalf("run() exit code = %d, want 0", code)
	}
	if !strings.HasPrefix(stdout.String(), "FDS MCP") {
		t.Errorf("run() --version output = %q", stdout.String())
	}
}

func TestRun_InvalidDirectory(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := []string{"--dir", filepath.Join(t.TempDir(), "absent")}
	if code := run(context.Background(), args, strings.NewReader(""), &stdout, &stderr); code != 1 {
		t.Errorf("run() exit code = %d, want 1", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("run() wrote to stdout: %q", stdout.String())
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	if code := run(ctx, []string{"--dir", t.TempDir()}, strings.NewReader(""), &stdout, &stderr); code != 0 {
		t.Errorf("run() exit code = %d, want 0\n%s", code, stderr.String())
	}
}
