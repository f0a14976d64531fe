package recognizer

import (
	"context"
	"encoding/json"
	"fmt"
)

// Frames per chunk fed to the recognizer; 8000 bytes at 16-bit mono.
const ChunkFrames = 4000

// Word is one recognized word with its timing and confidence.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Conf  float64 `json:"conf"`
}

// Utterance is one bounded segment of recognized speech. The JSON tags
// mirror the Vosk result payload so it unmarshals directly.
type Utterance struct {
	Text  string `json:"text"`
	Words []Word `json:"result"`
}

// Recognizer turns a normalized waveform file into an ordered sequence
// of utterances.
type Recognizer interface {
	Recognize(ctx context.Context, wavPath string) ([]Utterance, error)
	Close() error
}

func parseUtterance(raw []byte) (Utterance, error) {
	var u Utterance
	if err := json.Unmarshal(raw, &u); err != nil {
		return Utterance{}, fmt.Errorf("failed to parse recognizer result: %w", err)
	}
	return u, nil
}
