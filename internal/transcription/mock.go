package transcription

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"podcast-insights-go/internal/types"
)

// MockEngine returns a fixed transcript for any input. Enabled with USE_MOCK_TRANSCRIBE=true.
type MockEngine struct{}

func (MockEngine) Transcribe(ctx context.Context, audioPath string) (Segments, types.TranscriptionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.TranscriptionInfo{}, err
	}
	name := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	segs := []types.Segment{
		{ID: 1, Seek: 0, Start: 0, End: 4.2, Text: " MOCK TRANSCRIPT for " + name + ".", Tokens: []int{50364, 20784, 51214}, AvgLogprob: -0.21, CompressionRatio: 1.1, NoSpeechProb: 0.01},
		{ID: 2, Seek: 0, Start: 4.2, End: 9.84, Text: " Welcome back to the show, café talk & more.", Tokens: []int{51214, 3014, 51496}, AvgLogprob: -0.3, CompressionRatio: 1.2, NoSpeechProb: 0.02},
		{ID: 3, Seek: 984, Start: 9.84, End: 3725.5, Text: " That's all for today.", Tokens: []int{50364, 663}, AvgLogprob: -0.25, CompressionRatio: 1.0, NoSpeechProb: 0.01},
	}
	info := types.TranscriptionInfo{Language: "en", LanguageProbability: 1, Duration: 3726 * time.Second}
	return FromSlice(segs), info, nil
}
