package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestTranscribeMockIsIdempotent(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	if err := os.MkdirAll(in, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(in, "ep1.mp3"), "fake")
	writeFile(t, filepath.Join(in, "EP2.WAV"), "fake")
	writeFile(t, filepath.Join(in, "notes.txt"), "skip me")
	cfgPath := filepath.Join(dir, "none.toml")
	reportPath := filepath.Join(dir, "run.xlsx")

	stdout, err := execute(t, "transcribe", "-c", cfgPath, "-i", in, "-o", out, "--engine", "mock", "--report", reportPath)
	if err != nil {
		t.Fatalf("first run: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "2 processed, 0 skipped, 0 failed") {
		t.Fatalf("summary missing:\n%s", stdout)
	}
	first, err := os.ReadFile(filepath.Join(out, "ep1.json"))
	if err != nil {
		t.Fatalf("transcript not written: %v", err)
	}
	if strings.Contains(string(first), "tokens") || !strings.Contains(string(first), `"end_time": "01:02:05.500"`) {
		t.Fatalf("unexpected transcript:\n%s", first)
	}
	if _, err := os.Stat(filepath.Join(out, "EP2.json")); err != nil {
		t.Fatalf("second transcript missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "notes.json")); err == nil {
		t.Fatal("non-audio file was transcribed")
	}
	if _, err := os.Stat(reportPath); err != nil {
		t.Fatalf("report missing: %v", err)
	}

	stdout, err = execute(t, "transcribe", "-c", cfgPath, "-i", in, "-o", out, "--engine", "mock")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !strings.Contains(stdout, "0 processed, 2 skipped, 0 failed") {
		t.Fatalf("expected all skipped:\n%s", stdout)
	}
	second, _ := os.ReadFile(filepath.Join(out, "ep1.json"))
	if !bytes.Equal(first, second) {
		t.Fatal("transcript changed on rerun")
	}
}

func TestTranscribeMissingInputDir(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	dir := t.TempDir()
	_, err := execute(t, "transcribe", "-c", filepath.Join(dir, "none.toml"),
		"-i", filepath.Join(dir, "missing"), "-o", filepath.Join(dir, "out"), "--engine", "mock")
	if err == nil {
		t.Fatal("expected error for missing input directory")
	}
}

func TestTranscribeUnknownEngine(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "transcribe", "-c", filepath.Join(dir, "none.toml"), "--engine", "vosk")
	if err == nil || !strings.Contains(err.Error(), "vosk") {
		t.Fatalf("err = %v", err)
	}
}

func TestGraphFromJSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	dir := t.TempDir()
	input := filepath.Join(dir, "docs.json")
	writeFile(t, input, `[{
		"nodes": [{"id": "Alice", "type": "Person"}, {"id": "Acme", "type": "Company"}, {"id": "Bob", "type": "Person"}],
		"relationships": [
			{"source": "Alice", "target": "Acme", "type": "WORKS_AT"},
			{"source": "Alice", "target": "Carol", "type": "KNOWS"}
		]
	}]`)
	output := filepath.Join(dir, "graph.html")

	stdout, err := execute(t, "graph", "-c", filepath.Join(dir, "none.toml"), "-i", input, "-o", output)
	if err != nil {
		t.Fatalf("graph: %v\n%s", err, stdout)
	}
	page, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("page not written: %v", err)
	}
	if !strings.Contains(string(page), `"id":"Alice"`) || strings.Contains(string(page), "Bob") {
		t.Fatalf("unexpected page content")
	}
	if !strings.Contains(stdout, "dropped relationships") {
		t.Fatalf("summary missing:\n%s", stdout)
	}
}

func TestGraphEmptyDocuments(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	dir := t.TempDir()
	input := filepath.Join(dir, "docs.json")
	writeFile(t, input, `[]`)
	_, err := execute(t, "graph", "-c", filepath.Join(dir, "none.toml"), "-i", input, "-o", filepath.Join(dir, "g.html"))
	if err == nil {
		t.Fatal("expected error for empty document list")
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "conf", "podcasts.toml")
	stdout, err := execute(t, "config", "init", "-p", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(stdout, target) {
		t.Fatalf("output = %q", stdout)
	}
	if _, err := execute(t, "config", "init", "-p", target); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
	if _, err := execute(t, "config", "init", "-p", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}
