package transcription

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"podcast-insights-go/internal/logger"
	"podcast-insights-go/internal/types"
)

//go:embed assets/faster_whisper_stream.py
var whisperScript []byte

const (
	DefaultWhisperModel = "distil-small.en"
	DefaultPython       = "python3"
	maxStreamLine       = 8 << 20
)

// WhisperConfig drives the local faster-whisper helper. ComputeType "auto"
// lets the helper choose float16 on CUDA and int8 on CPU.
type WhisperConfig struct {
	Python      string
	Model       string
	Device      string
	ComputeType string
	Language    string
	BeamSize    int
}

// WhisperEngine runs faster-whisper in a python subprocess and reads one JSON
// message per line from its stdout while the audio is being decoded.
type WhisperEngine struct {
	cfg     WhisperConfig
	log     *logger.Logger
	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewWhisperEngine(cfg WhisperConfig, log *logger.Logger) *WhisperEngine {
	if cfg.Python == "" {
		cfg.Python = DefaultPython
	}
	if cfg.Model == "" {
		cfg.Model = DefaultWhisperModel
	}
	if cfg.Device == "" {
		cfg.Device = "auto"
	}
	if cfg.ComputeType == "" {
		cfg.ComputeType = "auto"
	}
	if log == nil {
		log = logger.Discard()
	}
	return &WhisperEngine{cfg: cfg, log: log.Component("transcription.whisper"), command: exec.CommandContext}
}

// WithCommand swaps the process constructor (for testing).
func (e *WhisperEngine) WithCommand(fn func(ctx context.Context, name string, args ...string) *exec.Cmd) {
	e.command = fn
}

func (e *WhisperEngine) args(scriptPath, audioPath string) []string {
	args := []string{scriptPath,
		"--audio", audioPath,
		"--model", e.cfg.Model,
		"--device", e.cfg.Device,
		"--compute-type", e.cfg.ComputeType,
	}
	if e.cfg.Language != "" {
		args = append(args, "--language", e.cfg.Language)
	}
	if e.cfg.BeamSize > 0 {
		args = append(args, "--beam-size", strconv.Itoa(e.cfg.BeamSize))
	}
	return args
}

func (e *WhisperEngine) Transcribe(ctx context.Context, audioPath string) (Segments, types.TranscriptionInfo, error) {
	script, err := os.CreateTemp("", "podcasts-faster-whisper-*.py")
	if err != nil {
		return nil, types.TranscriptionInfo{}, fmt.Errorf("write helper script: %w", err)
	}
	scriptPath := script.Name()
	if _, err := script.Write(whisperScript); err != nil {
		script.Close()
		os.Remove(scriptPath)
		return nil, types.TranscriptionInfo{}, fmt.Errorf("write helper script: %w", err)
	}
	script.Close()

	cmd := e.command(ctx, e.cfg.Python, e.args(scriptPath, audioPath)...)
	cmd.Env = os.Environ()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		os.Remove(scriptPath)
		return nil, types.TranscriptionInfo{}, fmt.Errorf("helper stdout: %w", err)
	}
	e.log.WithField("audio", audioPath).WithField("model", e.cfg.Model).Info("starting faster-whisper")
	if err := cmd.Start(); err != nil {
		os.Remove(scriptPath)
		return nil, types.TranscriptionInfo{}, fmt.Errorf("start faster-whisper: %w", err)
	}

	p := &helperProcess{cmd: cmd, stderr: &stderr, scriptPath: scriptPath}
	dec := newStreamDecoder(stdout)
	info, err := dec.info()
	if err != nil {
		return nil, types.TranscriptionInfo{}, p.fail(err)
	}

	consumed := false
	seq := func(yield func(types.Segment, error) bool) {
		if consumed {
			yield(types.Segment{}, errConsumed)
			return
		}
		consumed = true
		for {
			seg, err := dec.segment()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				yield(types.Segment{}, p.fail(err))
				return
			}
			if !yield(seg, nil) {
				p.kill()
				return
			}
		}
		if err := p.wait(); err != nil {
			yield(types.Segment{}, err)
		}
	}
	return seq, info, nil
}

type helperProcess struct {
	cmd        *exec.Cmd
	stderr     *bytes.Buffer
	scriptPath string
	done       bool
}

func (p *helperProcess) wait() error {
	if p.done {
		return nil
	}
	p.done = true
	defer os.Remove(p.scriptPath)
	if err := p.cmd.Wait(); err != nil {
		return fmt.Errorf("faster-whisper: %w: %s", err, lastLines(p.stderr.String(), 5))
	}
	return nil
}

func (p *helperProcess) kill() {
	if p.done {
		return
	}
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.wait()
}

// fail stops the helper and folds its stderr into err.
func (p *helperProcess) fail(err error) error {
	p.kill()
	if tail := lastLines(p.stderr.String(), 5); tail != "" {
		return fmt.Errorf("%w: %s", err, tail)
	}
	return err
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// streamMessage is one line of helper output.
type streamMessage struct {
	Type                string         `json:"type"`
	Language            string         `json:"language"`
	LanguageProbability float64        `json:"language_probability"`
	Duration            float64        `json:"duration"`
	DurationAfterVAD    float64        `json:"duration_after_vad"`
	Segment             *types.Segment `json:"segment"`
	Error               string         `json:"error"`
}

type streamDecoder struct {
	sc *bufio.Scanner
}

func newStreamDecoder(r io.Reader) *streamDecoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxStreamLine)
	return &streamDecoder{sc: sc}
}

// next returns the next JSON message, skipping stray non-JSON output.
func (d *streamDecoder) next() (streamMessage, error) {
	for d.sc.Scan() {
		line := bytes.TrimSpace(d.sc.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var msg streamMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return streamMessage{}, fmt.Errorf("decode helper output: %w", err)
		}
		if msg.Type == "error" {
			return streamMessage{}, fmt.Errorf("faster-whisper: %s", msg.Error)
		}
		return msg, nil
	}
	if err := d.sc.Err(); err != nil {
		return streamMessage{}, fmt.Errorf("read helper output: %w", err)
	}
	return streamMessage{}, io.EOF
}

func (d *streamDecoder) info() (types.TranscriptionInfo, error) {
	msg, err := d.next()
	if errors.Is(err, io.EOF) {
		return types.TranscriptionInfo{}, errors.New("faster-whisper exited before reporting info")
	}
	if err != nil {
		return types.TranscriptionInfo{}, err
	}
	if msg.Type != "info" {
		return types.TranscriptionInfo{}, fmt.Errorf("expected info message, got %q", msg.Type)
	}
	return types.TranscriptionInfo{
		Language:            msg.Language,
		LanguageProbability: msg.LanguageProbability,
		Duration:            seconds(msg.Duration),
		DurationAfterVAD:    seconds(msg.DurationAfterVAD),
	}, nil
}

func (d *streamDecoder) segment() (types.Segment, error) {
	msg, err := d.next()
	if err != nil {
		return types.Segment{}, err
	}
	if msg.Type != "segment" || msg.Segment == nil {
		return types.Segment{}, fmt.Errorf("expected segment message, got %q", msg.Type)
	}
	return *msg.Segment, nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
