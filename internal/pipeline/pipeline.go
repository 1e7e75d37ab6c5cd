// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"podcast-insights-go/internal/logger"
	"podcast-insights-go/internal/timecode"
	"podcast-insights-go/internal/transcription"
	"podcast-insights-go/internal/transcripts"
	"podcast-insights-go/internal/types"
)

// AudioExtensions are matched case-insensitively.
var AudioExtensions = []string{".mp3", ".wav", ".m4a", ".flac"}

type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

type FileResult struct {
	Path     string        `json:"path"`
	Key      string        `json:"key"`
	Status   Status        `json:"status"`
	Segments int           `json:"segments"`
	Language string        `json:"language,omitempty"`
	Audio    time.Duration `json:"audio_duration"`
	Elapsed  time.Duration `json:"elapsed"`
	Output   string        `json:"output,omitempty"`
	Err      error         `json:"-"`
}

type Report struct {
	Files []FileResult `json:"files"`
}

func (r Report) Count(s Status) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == s {
			n++
		}
	}
	return n
}

type Options struct {
	// KeepGoing continues with the next file after an engine failure instead of stopping the run.
	KeepGoing bool
	Log       *logger.Logger
}

// Discover lists the audio files directly inside dir, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsAudio(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func IsAudio(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range AudioExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// Run transcribes each input in order, skipping inputs whose record already
// exists. A record is written only after the engine's stream is exhausted.
func Run(ctx context.Context, inputs []string, store transcripts.Store, engine transcription.Engine, opts Options) (Report, error) {
	log := opts.Log
	if log == nil {
		log = logger.Discard()
	}
	log = log.Component("pipeline")

	var report Report
	for _, path := range inputs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := processFile(ctx, path, store, engine, log)
		report.Files = append(report.Files, res)
		if res.Status == StatusFailed {
			if !opts.KeepGoing {
				return report, res.Err
			}
			log.WithError(res.Err).WithField("audio", path).Warn("continuing after failed file")
		}
	}
	log.WithFields(logrus.Fields{
		"processed": report.Count(StatusProcessed),
		"skipped":   report.Count(StatusSkipped),
		"failed":    report.Count(StatusFailed),
	}).Info("transcription run complete")
	return report, nil
}

func processFile(ctx context.Context, path string, store transcripts.Store, engine transcription.Engine, log *logger.Logger) FileResult {
	start := time.Now()
	key := transcripts.BaseName(path)
	res := FileResult{Path: path, Key: key, Output: store.Location(key)}
	flog := log.WithField("audio", path).WithField("output", res.Output)

	done, err := store.Has(key)
	if err != nil {
		res.Status, res.Err = StatusFailed, fmt.Errorf("check %s: %w", key, err)
		return res
	}
	if done {
		flog.Info("transcription already exists, skipping")
		res.Status = StatusSkipped
		return res
	}

	segs, info, err := engine.Transcribe(ctx, path)
	if err != nil {
		res.Status, res.Err = StatusFailed, fmt.Errorf("transcribe %s: %w", path, err)
		res.Elapsed = time.Since(start)
		return res
	}
	res.Language, res.Audio = info.Language, info.Duration
	flog.WithFields(logrus.Fields{
		"language":             info.Language,
		"language_probability": info.LanguageProbability,
		"duration_sec":         info.Duration.Seconds(),
	}).Info("transcribing")

	records := make([]types.TranscriptSegment, 0)
	if segs == nil {
		segs = transcription.FromSlice(nil)
	}
	for seg, err := range segs {
		if err != nil {
			res.Status, res.Err = StatusFailed, fmt.Errorf("transcribe %s: %w", path, err)
			res.Elapsed = time.Since(start)
			return res
		}
		rec := Normalize(seg)
		flog.Debugf("[%s -> %s] %s", rec.StartTime, rec.EndTime, rec.Text)
		records = append(records, rec)
	}

	if err := store.Write(key, records); err != nil {
		res.Status, res.Err = StatusFailed, fmt.Errorf("save %s: %w", key, err)
		res.Elapsed = time.Since(start)
		return res
	}
	res.Status = StatusProcessed
	res.Segments = len(records)
	res.Elapsed = time.Since(start)
	flog.WithField("segments", len(records)).WithField("duration_ms", res.Elapsed.Milliseconds()).Info("transcription segments saved")
	return res
}

// Normalize converts an engine segment to its persisted form: token ids are
// dropped and clock strings are derived from the offsets.
func Normalize(seg types.Segment) types.TranscriptSegment {
	return types.TranscriptSegment{
		ID:               seg.ID,
		Seek:             seg.Seek,
		Start:            seg.Start,
		End:              seg.End,
		Text:             seg.Text,
		AvgLogprob:       seg.AvgLogprob,
		CompressionRatio: seg.CompressionRatio,
		NoSpeechProb:     seg.NoSpeechProb,
		Words:            seg.Words,
		Temperature:      seg.Temperature,
		StartTime:        timecode.Format(seg.Start),
		EndTime:          timecode.Format(seg.End),
	}
}
