package config

import (
	"errors"
	"fmt"
	"strings"
)

func (c *Config) normalize() {
	c.Transcribe.Engine = strings.ToLower(strings.TrimSpace(c.Transcribe.Engine))
	c.Graph.Format = strings.ToLower(strings.TrimSpace(c.Graph.Format))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.HTTP.BaseURL = strings.TrimRight(strings.TrimSpace(c.HTTP.BaseURL), "/")
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Transcribe.InputDir) == "" {
		return errors.New("transcribe.input_dir must be set")
	}
	if strings.TrimSpace(c.Transcribe.OutputDir) == "" {
		return errors.New("transcribe.output_dir must be set")
	}
	switch c.Transcribe.Engine {
	case EngineWhisper, EngineMock:
	case EngineHTTP:
		if c.HTTP.BaseURL == "" {
			return errors.New("http.base_url must be set when transcribe.engine is \"http\"")
		}
	default:
		return fmt.Errorf("unknown transcribe.engine %q (want whisper, http or mock)", c.Transcribe.Engine)
	}
	if c.Whisper.BeamSize < 0 {
		return fmt.Errorf("whisper.beam_size must be non-negative, got %d", c.Whisper.BeamSize)
	}
	switch c.Graph.Format {
	case "", "auto", "json", "xlsx", "neo4j":
	default:
		return fmt.Errorf("unknown graph.format %q", c.Graph.Format)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	return nil
}
