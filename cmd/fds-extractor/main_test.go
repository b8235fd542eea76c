package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a3tai/fds-extractor/internal/report"
	"github.com/a3tai/fds-extractor/internal/testpdf"
)

const testVersion = "1.2.3"

// sheets writes a small batch of sheets and a mapping table
func sheets(t *testing.T) (input, mapping string) {
	t.Helper()
	root := t.TempDir()
	input = filepath.Join(root, "sheets")

	testpdf.Write(t, filepath.Join(input, "H225-ProductX.pdf"), []string{"H225 Highly flammable liquid and vapour"})
	testpdf.Write(t, filepath.Join(input, "nested", "B12_acid.pdf"), []string{"H314 Causes severe skin burns"})
	testpdf.Write(t, filepath.Join(input, "unlabeled.pdf"), []string{"H2250 is not a hazard code"})
	if err := os.WriteFile(filepath.Join(input, "X_test.pdf"), nil, 0o644); err != nil {
		t.Fatalf("Failed to write empty sheet: %v", err)
	}

	mapping = filepath.Join(root, "clp_codes.csv")
	table := "term,category,flag\nH225,Flammable,1\nH314,Corrosive,1\n"
	if err := os.WriteFile(mapping, []byte(table), 0o644); err != nil {
		t.Fatalf("Failed to write mapping: %v", err)
	}
	return input, mapping
}

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	version, buildTime, gitCommit = testVersion, "2024-12-01_10:30:00", "abc123"
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	var buf bytes.Buffer
	printVersion(&buf)

	output := buf.String()
	for _, expected := range []string{
		"FDS Extractor",
		"Version: " + testVersion,
		"Build Time: 2024-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"--version"}, &stdout, &stderr); code != 0 {
		t.Fatalf("run() exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "FDS Extractor") {
		t.Errorf("run() --version output = %q", stdout.String())
	}
}

func TestRun_SetupErrors(t *testing.T) {
	input, mapping := sheets(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no arguments", args: nil},
		{name: "missing input folder", args: []string{filepath.Join(input, "absent"), mapping}},
		{name: "missing mapping file", args: []string{input, filepath.Join(input, "absent.csv")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), tt.args, &stdout, &stderr); code != 1 {
				t.Errorf("run() exit code = %d, want 1", code)
			}
			if stdout.Len() != 0 {
				t.Errorf("run() wrote to stdout before processing: %q", stdout.String())
			}
			if !strings.Contains(stderr.String(), "Error:") {
				t.Errorf("run() stderr = %q, want an error message", stderr.String())
			}
		})
	}
}

func TestRun_JSONMapped(t *testing.T) {
	input, mapping := sheets(t)

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{input, mapping}, &stdout, &stderr); code != 0 {
		t.Fatalf("run() exit code = %d, stderr:\n%s", code, stderr.String())
	}

	if err := report.ValidateJSON(stdout.Bytes()); err != nil {
		t.Fatalf("run() output does not match schema: %v", err)
	}

	var records []struct {
		PDF    string   `json:"pdf"`
		Code   string   `json:"code"`
		Labels []string `json:"labels"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &records); err != nil {
		t.Fatalf("run() output is not JSON: %v", err)
	}

	want := []struct {
		name   string
		code   string
		labels []string
	}{
		{name: "H225-ProductX.pdf", code: "H225", labels: []string{"Flammable"}},
		{name: "X_test.pdf", code: "X", labels: []string{}},
		{name: "B12_acid.pdf", code: "B12", labels: []string{"Corrosive"}},
		{name: "unlabeled.pdf", code: "???", labels: []string{}},
	}
	if len(records) != len(want) {
		t.Fatalf("run() returned %d records, want %d", len(records), len(want))
	}
	for i, w := range want {
		if filepath.Base(records[i].PDF) != w.name || records[i].Code != w.code {
			t.Errorf("record %d = %s/%s, want %s/%s", i, records[i].PDF, records[i].Code, w.name, w.code)
		}
		if strings.Join(records[i].Labels, ",") != strings.Join(w.labels, ",") {
			t.Errorf("record %d labels = %v, want %v", i, records[i].Labels, w.labels)
		}
	}

	if !strings.Contains(stderr.String(), "run_id=") {
		t.Errorf("run() logs missing run_id:\n%s", stderr.String())
	}
}

func TestRun_CSVRaw(t *testing.T) {
	input, mapping := sheets(t)
	out := filepath.Join(t.TempDir(), "out")

	args := []string{"--format=csv", "--mode=raw", "--workers=3", "--output", out, input, mapping}
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), args, &stdout, &stderr); code != 0 {
		t.Fatalf("run() exit code = %d, stderr:\n%s", code, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("run() csv mode wrote to stdout: %q", stdout.String())
	}

	first, err := os.ReadFile(filepath.Join(out, report.LabelsFile))
	if err != nil {
		t.Fatalf("labels.csv not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(first)), "\n")
	if len(lines) != 3 || lines[0] != "pdf,code,label" {
		t.Errorf("labels.csv = %q", first)
	}
	if !strings.HasSuffix(lines[1], "H225-ProductX.pdf,H225,H225") {
		t.Errorf("labels.csv first row = %q", lines[1])
	}

	detail, err := os.ReadFile(filepath.Join(out, report.DetailFile))
	if err != nil {
		t.Fatalf("detailed_labels.csv not written: %v", err)
	}
	if !strings.Contains(string(detail), "H241,H241") {
		t.Errorf("detailed_labels.csv header should keep the duplicate H241 column")
	}

	// Reruns are byte-identical
	if code := run(context.Background(), args, &stdout, &stderr); code != 0 {
		t.Fatalf("second run() exit code = %d", code)
	}
	second, err := os.ReadFile(filepath.Join(out, report.LabelsFile))
	if err != nil {
		t.Fatalf("labels.csv not written: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("labels.csv differs between runs")
	}
}

func TestRun_Cancelled(t *testing.T) {
	input, mapping := sheets(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	if code := run(ctx, []string{input, mapping}, &stdout, &stderr); code != 1 {
		t.Errorf("run() exit code = %d, want 1", code)
	}
}
