package transcripts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podcast-insights-go/internal/types"
)

func TestBaseName(t *testing.T) {
	cases := map[string]string{
		"/data/podcasts/Episode 01.mp3": "Episode 01",
		"show.final.WAV":                "show.final",
		"noext":                         "noext",
		"dir/.hidden.flac":              ".hidden",
	}
	for in, want := range cases {
		if got := BaseName(in); got != want {
			t.Fatalf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEncodeKeepsNonASCIIAndHTML(t *testing.T) {
	data, err := Encode([]types.TranscriptSegment{{ID: 1, Text: " café <b> & naïve", StartTime: "00:00:00.000", EndTime: "00:00:01.000"}})
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, "café <b> & naïve") {
		t.Fatalf("expected literal text, got %s", s)
	}
	if !strings.HasPrefix(s, "[\n  {\n    \"id\": 1,") {
		t.Fatalf("expected two-space indentation, got %s", s)
	}
	if strings.HasSuffix(s, "\n") {
		t.Fatal("expected no trailing newline")
	}
}

func TestEncodeEmptyIsArray(t *testing.T) {
	data, err := Encode(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Fatalf("expected [], got %s", data)
	}
}

func TestDirStoreWriteAndHas(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	store, err := NewDirStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := store.Has("ep1")
	if err != nil || ok {
		t.Fatalf("expected missing record, got %v %v", ok, err)
	}
	if err := store.Write("ep1", []types.TranscriptSegment{{ID: 1, Text: "hi"}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	ok, err = store.Has("ep1")
	if err != nil || !ok {
		t.Fatalf("expected record present, got %v %v", ok, err)
	}
	if store.Location("ep1") != filepath.Join(dir, "ep1.json") {
		t.Fatalf("unexpected location %q", store.Location("ep1"))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the record, temp files left behind: %v", entries)
	}
}

func TestDirStoreRefusesOverwrite(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.Location("ep1"), []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}
	err = store.Write("ep1", nil)
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	got, _ := os.ReadFile(store.Location("ep1"))
	if string(got) != "original" {
		t.Fatalf("record was overwritten: %q", got)
	}
}

func TestDirStoreLockIsExclusive(t *testing.T) {
	dir := t.TempDir()
	a, _ := NewDirStore(dir)
	b, _ := NewDirStore(dir)
	unlock, err := a.Lock()
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := b.Lock(); err == nil {
		t.Fatal("expected second lock to fail")
	}
	if err := unlock(); err != nil {
		t.Fatal(err)
	}
	unlock2, err := b.Lock()
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	_ = unlock2()
}

func TestMemStore(t *testing.T) {
	m := NewMemStore()
	if ok, _ := m.Has("a"); ok {
		t.Fatal("expected empty store")
	}
	if err := m.Write("a", []types.TranscriptSegment{{ID: 1}}); err != nil {
		t.Fatal(err)
	}
	if ok, _ := m.Has("a"); !ok {
		t.Fatal("expected record")
	}
	if err := m.Write("a", nil); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	m.Put("b", []byte("[]"))
	if len(m.Keys()) != 2 {
		t.Fatalf("unexpected keys %v", m.Keys())
	}
}
