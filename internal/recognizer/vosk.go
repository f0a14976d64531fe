package recognizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	vosk "github.com/alphacep/vosk-api/go"

	"github.com/ruslanvt/call-transcriber/internal/media"
)

// VoskRecognizer runs a local Vosk model. The model is loaded once at
// startup and shared across requests; a fresh recognizer instance is
// built per file, so no locking is needed.
type VoskRecognizer struct {
	model *vosk.VoskModel
}

func NewVosk(modelPath string) (*VoskRecognizer, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model not found at %s: %w", modelPath, err)
	}
	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	return &VoskRecognizer{model: model}, nil
}

func (r *VoskRecognizer) Recognize(ctx context.Context, wavPath string) ([]Utterance, error) {
	wf, err := media.OpenWav(wavPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open waveform: %w", err)
	}
	defer wf.Close()

	rec, err := vosk.NewRecognizer(r.model, float64(wf.SampleRate()))
	if err != nil {
		return nil, fmt.Errorf("failed to create recognizer: %w", err)
	}
	defer rec.Free()
	rec.SetWords(1)

	var utterances []Utterance
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := wf.ReadFrames(ChunkFrames)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read waveform: %w", err)
		}

		if rec.AcceptWaveform(data) != 0 {
			u, err := parseUtterance([]byte(rec.Result()))
			if err != nil {
				return nil, err
			}
			utterances = append(utterances, u)
		}
	}

	// Trailing partial recognition after the last chunk.
	final, err := parseUtterance([]byte(rec.FinalResult()))
	if err != nil {
		return nil, err
	}
	utterances = append(utterances, final)

	return utterances, nil
}

func (r *VoskRecognizer) Close() error {
	r.model.Free()
	return nil
}
