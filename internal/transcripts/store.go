// Package transcripts persists transcript records, one JSON array per audio base name.
//
// The presence of a record is the only completion marker: Has(key) == true
// means the file was fully transcribed in some earlier run and must not be
// touched again.
package transcripts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"podcast-insights-go/internal/types"
)

// ErrExists is returned when a record for the key is already present.
var ErrExists = errors.New("transcript record already exists")

// Store is the completion-marker lookup plus the single write of a record.
type Store interface {
	Has(key string) (bool, error)
	Write(key string, segs []types.TranscriptSegment) error
	Location(key string) string
}

// BaseName is the cache key of an audio file: its file name without extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Encode renders a record as indented JSON without escaping non-ASCII or HTML characters.
func Encode(segs []types.TranscriptSegment) ([]byte, error) {
	if segs == nil {
		segs = []types.TranscriptSegment{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(segs); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DirStore keeps records as <dir>/<key>.json.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) (*DirStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("transcript output dir not set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure output dir: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

func (s *DirStore) Dir() string { return s.dir }

func (s *DirStore) Location(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *DirStore) Has(key string) (bool, error) {
	_, err := os.Stat(s.Location(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat record: %w", err)
}

// Write stores the record through a temp file and a rename, so a crash never
// leaves a partial record behind that would later count as complete.
func (s *DirStore) Write(key string, segs []types.TranscriptSegment) error {
	data, err := Encode(segs)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	dst := s.Location(key)
	if ok, err := s.Has(key); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%s: %w", dst, ErrExists)
	}
	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp record: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod record: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// Lock takes an advisory lock on the output directory for the length of a run.
func (s *DirStore) Lock() (unlock func() error, err error) {
	lock := flock.New(filepath.Join(s.dir, ".transcribe.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another transcription run is using %s", s.dir)
	}
	return lock.Unlock, nil
}

// MemStore keeps encoded records in memory.
type MemStore struct {
	mu      sync.Mutex
	records map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{records: map[string][]byte{}}
}

func (m *MemStore) Location(key string) string { return "mem://" + key + ".json" }

func (m *MemStore) Has(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[key]
	return ok, nil
}

func (m *MemStore) Write(key string, segs []types.TranscriptSegment) error {
	data, err := Encode(segs)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[key]; ok {
		return fmt.Errorf("%s: %w", key, ErrExists)
	}
	m.records[key] = data
	return nil
}

// Get returns the stored bytes for key.
func (m *MemStore) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.records[key]
	return b, ok
}

// Put seeds a record, e.g. to simulate output from an earlier run.
func (m *MemStore) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = data
}

// Keys lists stored keys in no particular order.
func (m *MemStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.records))
	for k := range m.records {
		out = append(out, k)
	}
	return out
}
