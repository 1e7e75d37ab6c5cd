package types

import "time"

// Word is a word-level timing, present only when the engine was asked for it.
type Word struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Word        string  `json:"word"`
	Probability float64 `json:"probability"`
}

// Segment is one span of recognized speech as produced by a transcription engine.
type Segment struct {
	ID               int     `json:"id"`
	Seek             int     `json:"seek"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Text             string  `json:"text"`
	Tokens           []int   `json:"tokens,omitempty"`
	AvgLogprob       float64 `json:"avg_logprob"`
	CompressionRatio float64 `json:"compression_ratio"`
	NoSpeechProb     float64 `json:"no_speech_prob"`
	Words            []Word  `json:"words"`
	Temperature      float64 `json:"temperature"`
}

// TranscriptSegment is the persisted form of a Segment: token ids are dropped
// and the offsets are also carried as HH:MM:SS.mmm clock strings.
type TranscriptSegment struct {
	ID               int     `json:"id"`
	Seek             int     `json:"seek"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Text             string  `json:"text"`
	AvgLogprob       float64 `json:"avg_logprob"`
	CompressionRatio float64 `json:"compression_ratio"`
	NoSpeechProb     float64 `json:"no_speech_prob"`
	Words            []Word  `json:"words"`
	Temperature      float64 `json:"temperature"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
}

// TranscriptionInfo is the per-file summary an engine reports alongside its segments.
type TranscriptionInfo struct {
	Language            string        `json:"language"`
	LanguageProbability float64       `json:"language_probability"`
	Duration            time.Duration `json:"duration"`
	DurationAfterVAD    time.Duration `json:"duration_after_vad,omitempty"`
}
