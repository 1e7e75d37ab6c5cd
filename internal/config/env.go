package config

import (
	"os"
	"strconv"
	"strings"
)

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envBool(k string) (bool, bool) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func envInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// applyEnv lets environment variables override file values.
func (c *Config) applyEnv() {
	c.Transcribe.InputDir = envOr("PODCASTS_INPUT_DIR", c.Transcribe.InputDir)
	c.Transcribe.OutputDir = envOr("PODCASTS_OUTPUT_DIR", c.Transcribe.OutputDir)
	c.Transcribe.Engine = envOr("TRANSCRIBE_ENGINE", c.Transcribe.Engine)
	if mock, ok := envBool("USE_MOCK_TRANSCRIBE"); ok && mock {
		c.Transcribe.Engine = EngineMock
	}

	c.Whisper.Python = envOr("WHISPER_PYTHON", c.Whisper.Python)
	c.Whisper.Model = envOr("WHISPER_MODEL", c.Whisper.Model)
	c.Whisper.Device = envOr("WHISPER_DEVICE", c.Whisper.Device)
	c.Whisper.ComputeType = envOr("WHISPER_COMPUTE_TYPE", c.Whisper.ComputeType)

	c.HTTP.BaseURL = envOr("TRANSCRIBE_BASE_URL", c.HTTP.BaseURL)
	c.HTTP.APIKey = envOr("TRANSCRIBE_API_KEY", envOr("OPENAI_API_KEY", c.HTTP.APIKey))
	c.HTTP.Model = envOr("TRANSCRIBE_MODEL", c.HTTP.Model)
	c.HTTP.TimeoutSeconds = envInt("TRANSCRIBE_TIMEOUT_SECONDS", c.HTTP.TimeoutSeconds)

	c.Graph.Input = envOr("GRAPH_INPUT", c.Graph.Input)
	c.Graph.Format = envOr("GRAPH_FORMAT", c.Graph.Format)
	c.Graph.Output = envOr("GRAPH_OUTPUT", c.Graph.Output)

	c.Neo4j.URI = envOr("NEO4J_URI", c.Neo4j.URI)
	c.Neo4j.User = envOr("NEO4J_USER", c.Neo4j.User)
	c.Neo4j.Password = envOr("NEO4J_PASSWORD", c.Neo4j.Password)
	c.Neo4j.Database = envOr("NEO4J_DATABASE", c.Neo4j.Database)
	c.Neo4j.TimeoutSeconds = envInt("NEO4J_TIMEOUT_SECONDS", c.Neo4j.TimeoutSeconds)
	c.Neo4j.MaxPoolSize = envInt("NEO4J_MAX_POOL_SIZE", c.Neo4j.MaxPoolSize)

	c.Logging.Level = envOr("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = envOr("LOG_FORMAT", c.Logging.Format)
}
