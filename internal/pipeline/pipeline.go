// Package pipeline runs the per-request transcription sequence:
// acquire -> normalize -> recognize -> compose. Each request works in its
// own scratch directory, so concurrent requests never share files.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ruslanvt/call-transcriber/internal/fetch"
	"github.com/ruslanvt/call-transcriber/internal/metrics"
	"github.com/ruslanvt/call-transcriber/internal/recognizer"
	"github.com/ruslanvt/call-transcriber/internal/transcript"
)

// Fetcher resolves an input reference into a local file.
type Fetcher interface {
	Fetch(ctx context.Context, ref, dst string) (string, error)
}

// Transcoder converts arbitrary audio into the recognizer's waveform format.
type Transcoder interface {
	ToWav(ctx context.Context, src, dst string) error
}

type Config struct {
	ScratchDir string
	Backend    string
	// EmptyOnError degrades recognition failures to an empty transcript
	// instead of failing the request. Off by default.
	EmptyOnError bool
}

type Pipeline struct {
	cfg        Config
	fetcher    Fetcher
	transcoder Transcoder
	rec        recognizer.Recognizer
	composer   *transcript.Composer
	log        *logrus.Logger
}

func New(cfg Config, fetcher Fetcher, transcoder Transcoder, rec recognizer.Recognizer, composer *transcript.Composer, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		fetcher:    fetcher,
		transcoder: transcoder,
		rec:        rec,
		composer:   composer,
		log:        log,
	}
}

// Run processes one reference end to end and returns the composed
// transcript. Stages run strictly in sequence.
func (p *Pipeline) Run(ctx context.Context, ref string) (*transcript.Result, error) {
	requestID := uuid.NewString()
	m := metrics.NewRequestMetrics(requestID, p.cfg.Backend)
	log := p.log.WithField("request_id", requestID)

	ws, err := fetch.NewWorkspace(p.cfg.ScratchDir)
	if err != nil {
		return nil, stageErr(StageAcquire, err)
	}
	defer ws.Close()

	start := time.Now()
	src, err := p.fetcher.Fetch(ctx, ref, ws.Path(fetch.Base(ref)))
	if err != nil {
		return nil, stageErr(StageAcquire, err)
	}
	m.RecordAcquire(time.Since(start))

	start = time.Now()
	wav := ws.Path("input.wav")
	if err := p.transcoder.ToWav(ctx, src, wav); err != nil {
		return nil, stageErr(StageNormalize, err)
	}
	m.RecordNormalize(time.Since(start))

	start = time.Now()
	utterances, err := p.rec.Recognize(ctx, wav)
	if err != nil {
		if !p.cfg.EmptyOnError {
			return nil, stageErr(StageRecognize, err)
		}
		log.WithError(err).Warn("recognition failed, returning empty transcript")
		utterances = nil
	}
	m.RecordRecognize(time.Since(start), len(utterances))

	result := p.composer.Compose(utterances)
	m.RecordTurns(len(result.Dialog))
	m.Finalize()

	log.WithFields(m.Fields()).Info("request processed")
	return &result, nil
}
