package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslanvt/call-transcriber/internal/recognizer"
	"github.com/ruslanvt/call-transcriber/internal/transcript"
)

type fakeFetcher struct {
	err error
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref, dst string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if err := os.WriteFile(dst, []byte("mp3"), 0644); err != nil {
		return "", err
	}
	return dst, nil
}

type fakeTranscoder struct {
	err     error
	lastDst string
}

func (f *fakeTranscoder) ToWav(ctx context.Context, src, dst string) error {
	if f.err != nil {
		return f.err
	}
	f.lastDst = dst
	return os.WriteFile(dst, []byte("wav"), 0644)
}

type fakeRecognizer struct {
	utterances []recognizer.Utterance
	err        error
}

func (f *fakeRecognizer) Recognize(ctx context.Context, wavPath string) ([]recognizer.Utterance, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.utterances, nil
}

func (f *fakeRecognizer) Close() error { return nil }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestPipeline(t *testing.T, cfg Config, fetcher *fakeFetcher, transcoder *fakeTranscoder, rec *fakeRecognizer) *Pipeline {
	t.Helper()
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = t.TempDir()
	}
	composer := transcript.NewComposer(transcript.KeywordClassifier{Trigger: "день"}, 0.6)
	return New(cfg, fetcher, transcoder, rec, composer, quietLogger())
}

func TestRunSuccess(t *testing.T) {
	rec := &fakeRecognizer{utterances: []recognizer.Utterance{
		{Text: "добрый день", Words: []recognizer.Word{{Start: 0, End: 1.5, Conf: 0.9}}},
	}}
	transcoder := &fakeTranscoder{}

	p := newTestPipeline(t, Config{}, &fakeFetcher{}, transcoder, rec)
	result, err := p.Run(context.Background(), "http://example.com/call.mp3")
	require.NoError(t, err)

	require.Len(t, result.Dialog, 1)
	assert.Equal(t, transcript.SourceReceiver, result.Dialog[0].Source)
	assert.Equal(t, 1.5, result.ResultDuration.Receiver)

	// The request workspace is gone after the run.
	_, statErr := os.Stat(filepath.Dir(transcoder.lastDst))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunAcquisitionFailure(t *testing.T) {
	p := newTestPipeline(t, Config{},
		&fakeFetcher{err: errors.New("connection refused")},
		&fakeTranscoder{}, &fakeRecognizer{})

	_, err := p.Run(context.Background(), "http://example.com/call.mp3")
	require.Error(t, err)

	var stageErr *Error
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageAcquire, stageErr.Stage)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRunNormalizationFailure(t *testing.T) {
	p := newTestPipeline(t, Config{}, &fakeFetcher{},
		&fakeTranscoder{err: errors.New("ffmpeg: invalid data")},
		&fakeRecognizer{})

	_, err := p.Run(context.Background(), "http://example.com/call.mp3")

	var stageErr *Error
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageNormalize, stageErr.Stage)
}

func TestRunRecognitionFailure(t *testing.T) {
	p := newTestPipeline(t, Config{}, &fakeFetcher{}, &fakeTranscoder{},
		&fakeRecognizer{err: errors.New("decoder crashed")})

	_, err := p.Run(context.Background(), "http://example.com/call.mp3")

	var stageErr *Error
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageRecognize, stageErr.Stage)
}

func TestRunRecognitionFailureDegradesWhenConfigured(t *testing.T) {
	p := newTestPipeline(t, Config{EmptyOnError: true}, &fakeFetcher{}, &fakeTranscoder{},
		&fakeRecognizer{err: errors.New("decoder crashed")})

	result, err := p.Run(context.Background(), "http://example.com/call.mp3")
	require.NoError(t, err)

	assert.Empty(t, result.Dialog)
	assert.Equal(t, transcript.Durations{}, result.ResultDuration)
}

func TestRunCleansUpWorkspaceOnFailure(t *testing.T) {
	scratch := t.TempDir()
	p := newTestPipeline(t, Config{ScratchDir: scratch}, &fakeFetcher{},
		&fakeTranscoder{err: errors.New("boom")}, &fakeRecognizer{})

	_, err := p.Run(context.Background(), "http://example.com/call.mp3")
	require.Error(t, err)

	entries, readErr := os.ReadDir(scratch)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}
