// Package transcription adapts speech-recognition engines to a lazy segment stream.
//
// Engines are opaque: the pipeline only sees Engine.Transcribe, which returns
// summary info up front and a sequence that yields segments in recognition
// order. The sequence may do blocking work (decoding audio) while it is ranged
// over, and yields a non-nil error at most once, as its final element.
package transcription

import (
	"context"
	"errors"
	"iter"

	"podcast-insights-go/internal/types"
)

// Segments is a lazy, single-use stream of recognized segments.
type Segments = iter.Seq2[types.Segment, error]

// Engine turns one audio file into segments.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string) (Segments, types.TranscriptionInfo, error)
}

// EngineFunc lets a plain function act as an Engine.
type EngineFunc func(ctx context.Context, audioPath string) (Segments, types.TranscriptionInfo, error)

func (f EngineFunc) Transcribe(ctx context.Context, audioPath string) (Segments, types.TranscriptionInfo, error) {
	return f(ctx, audioPath)
}

var errConsumed = errors.New("segment stream already consumed")

// FromSlice wraps already materialized segments as a stream.
func FromSlice(segs []types.Segment) Segments {
	return func(yield func(types.Segment, error) bool) {
		for _, s := range segs {
			if !yield(s, nil) {
				return
			}
		}
	}
}

// Collect drains a stream. It stops at the first error.
func Collect(segs Segments) ([]types.Segment, error) {
	out := make([]types.Segment, 0)
	for s, err := range segs {
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}
