package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"podcast-insights-go/internal/logger"
	"podcast-insights-go/internal/types"
)

// HTTPConfig points the engine at an OpenAI-compatible transcription server
// (whisper.cpp server, faster-whisper-server, LocalAI, OpenAI).
type HTTPConfig struct {
	BaseURL  string
	APIKey   string
	Model    string
	Language string
	Timeout  time.Duration
	MaxRetry time.Duration
}

// HTTPEngine posts audio to /v1/audio/transcriptions and asks for verbose_json,
// which carries per-segment timings.
type HTTPEngine struct {
	cfg        HTTPConfig
	httpClient *http.Client
	log        *logger.Logger
}

type verboseResponse struct {
	Task     string          `json:"task"`
	Language string          `json:"language"`
	Duration float64         `json:"duration"`
	Text     string          `json:"text"`
	Segments []types.Segment `json:"segments"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func NewHTTPEngine(cfg HTTPConfig, log *logger.Logger) (*HTTPEngine, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("transcription base url not set")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	if cfg.MaxRetry <= 0 {
		cfg.MaxRetry = 30 * time.Second
	}
	if log == nil {
		log = logger.Discard()
	}
	return &HTTPEngine{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.Component("transcription.http"),
	}, nil
}

func (e *HTTPEngine) Transcribe(ctx context.Context, audioPath string) (Segments, types.TranscriptionInfo, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, types.TranscriptionInfo{}, fmt.Errorf("read audio: %w", err)
	}
	endpoint := strings.TrimRight(e.cfg.BaseURL, "/") + "/v1/audio/transcriptions"
	log := e.log.WithField("audio", audioPath).WithField("endpoint", endpoint)
	log.Info("posting audio for transcription")

	build := func() (*http.Request, error) {
		var b bytes.Buffer
		w := multipart.NewWriter(&b)
		fw, err := w.CreateFormFile("file", filepath.Base(audioPath))
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(audio); err != nil {
			return nil, err
		}
		_ = w.WriteField("model", e.cfg.Model)
		_ = w.WriteField("response_format", "verbose_json")
		_ = w.WriteField("timestamp_granularities[]", "segment")
		if e.cfg.Language != "" {
			_ = w.WriteField("language", e.cfg.Language)
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &b)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
		if e.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
		}
		return req, nil
	}

	var resp verboseResponse
	if err := e.doJSON(ctx, build, &resp); err != nil {
		return nil, types.TranscriptionInfo{}, err
	}
	info := types.TranscriptionInfo{
		// verbose_json carries no language probability; it stays zero.
		Language: resp.Language,
		Duration: time.Duration(resp.Duration * float64(time.Second)),
	}
	segs := resp.Segments
	if len(segs) == 0 && strings.TrimSpace(resp.Text) != "" {
		// Servers without segment support still return the full text.
		segs = []types.Segment{{Start: 0, End: resp.Duration, Text: resp.Text}}
	}
	log.WithField("segments", len(segs)).Debug("transcription response decoded")
	return FromSlice(segs), info, nil
}

// doJSON retries transport errors and 5xx responses with exponential backoff.
// 4xx responses are permanent.
func (e *HTTPEngine) doJSON(ctx context.Context, build func() (*http.Request, error), target any) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = e.cfg.MaxRetry
	var lastErr error
	op := func() error {
		req, err := build()
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		resp, err := e.httpClient.Do(req)
		if err != nil {
			lastErr = err
			e.log.WithError(err).Warn("transcription request failed")
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %d %s", resp.StatusCode, errorMessage(body))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("request rejected: %d %s", resp.StatusCode, errorMessage(body))
			return backoff.Permanent(lastErr)
		}
		if len(body) == 0 {
			lastErr = fmt.Errorf("empty body")
			return lastErr
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, truncate(string(body), 512))
			return backoff.Permanent(lastErr)
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return lastErr
	}
	return nil
}

func errorMessage(body []byte) string {
	var ae apiError
	if json.Unmarshal(body, &ae) == nil && ae.Error.Message != "" {
		return ae.Error.Message
	}
	return truncate(strings.TrimSpace(string(body)), 512)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
