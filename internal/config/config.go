// Package config loads podcasts settings from a TOML file, a .env file and the environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

type Transcribe struct {
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
	Engine    string `toml:"engine"`
	KeepGoing bool   `toml:"keep_going"`
}

// Whisper configures the local faster-whisper helper.
type Whisper struct {
	Python      string `toml:"python"`
	Model       string `toml:"model"`
	Device      string `toml:"device"`
	ComputeType string `toml:"compute_type"`
	Language    string `toml:"language"`
	BeamSize    int    `toml:"beam_size"`
}

// HTTP configures an OpenAI-compatible transcription server.
type HTTP struct {
	BaseURL         string `toml:"base_url"`
	APIKey          string `toml:"api_key"`
	Model           string `toml:"model"`
	Language        string `toml:"language"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	MaxRetrySeconds int    `toml:"max_retry_seconds"`
}

type Graph struct {
	Input  string `toml:"input"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

type Neo4j struct {
	URI            string `toml:"uri"`
	User           string `toml:"user"`
	Password       string `toml:"password"`
	Database       string `toml:"database"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxPoolSize    int    `toml:"max_pool_size"`
	Limit          int    `toml:"limit"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values.
//
//   - Transcribe: input/output directories and engine choice
//   - Whisper, HTTP: engine settings
//   - Graph, Neo4j: graph document source and render target
//   - Logging: level and format
type Config struct {
	Transcribe Transcribe `toml:"transcribe"`
	Whisper    Whisper    `toml:"whisper"`
	HTTP       HTTP       `toml:"http"`
	Graph      Graph      `toml:"graph"`
	Neo4j      Neo4j      `toml:"neo4j"`
	Logging    Logging    `toml:"logging"`
}

const (
	EngineWhisper = "whisper"
	EngineHTTP    = "http"
	EngineMock    = "mock"
)

func Default() Config {
	return Config{
		Transcribe: Transcribe{
			InputDir:  "podcasts",
			OutputDir: "podcasts_transcription",
			Engine:    EngineWhisper,
		},
		Whisper: Whisper{
			Python:      "python3",
			Model:       "distil-small.en",
			Device:      "auto",
			ComputeType: "auto",
			BeamSize:    5,
		},
		HTTP: HTTP{
			Model:           "whisper-1",
			TimeoutSeconds:  600,
			MaxRetrySeconds: 30,
		},
		Graph: Graph{
			Input:  "graph_documents.json",
			Format: "auto",
			Output: "knowledge_graph.html",
		},
		Neo4j: Neo4j{
			User:           "neo4j",
			TimeoutSeconds: 10,
			MaxPoolSize:    50,
			Limit:          5000,
		},
		Logging: Logging{Level: "info"},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/podcasts/config.toml")
}

// Load reads .env (when present), then the TOML file at path, then applies
// environment overrides. A missing file is not an error; exists reports it.
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	_ = godotenv.Load()

	c := Default()
	resolved, exists, err = resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&c); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	c.applyEnv()
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, "", false, err
	}
	return &c, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("podcasts.toml")
	if err != nil {
		return "", false, err
	}
	for _, p := range []string{projectPath, defaultPath} {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true, nil
		}
	}
	return defaultPath, false, nil
}

// ErrConfigExists is returned by CreateSample when the target exists and overwrite is off.
var ErrConfigExists = errors.New("config file already exists")

// CreateSample writes the annotated sample configuration and returns the
// absolute path written. An empty path means DefaultConfigPath.
func CreateSample(path string, overwrite bool) (string, error) {
	target, err := DefaultConfigPath()
	if strings.TrimSpace(path) != "" {
		target, err = expandPath(strings.TrimSpace(path))
	}
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(target, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return target, fmt.Errorf("%w at %s", ErrConfigExists, target)
	}
	if err != nil {
		return "", fmt.Errorf("open config: %w", err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		f.Close()
		return "", fmt.Errorf("write sample config: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write sample config: %w", err)
	}
	return target, nil
}

// ExpandPath resolves ~ and makes the path absolute.
func ExpandPath(p string) (string, error) {
	return expandPath(p)
}

func expandPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}
