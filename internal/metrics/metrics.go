package metrics

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RequestMetrics tracks timings and sizes across one request's pipeline.
type RequestMetrics struct {
	RequestID     string
	Backend       string
	StartTime     time.Time
	EndTime       time.Time
	AcquireTime   time.Duration
	NormalizeTime time.Duration
	RecognizeTime time.Duration
	Utterances    int
	Turns         int
	mu            sync.Mutex
}

func NewRequestMetrics(requestID, backend string) *RequestMetrics {
	return &RequestMetrics{
		RequestID: requestID,
		Backend:   backend,
		StartTime: time.Now(),
	}
}

func (m *RequestMetrics) RecordAcquire(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AcquireTime = d
}

func (m *RequestMetrics) RecordNormalize(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NormalizeTime = d
}

func (m *RequestMetrics) RecordRecognize(d time.Duration, utterances int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecognizeTime = d
	m.Utterances = utterances
}

func (m *RequestMetrics) RecordTurns(turns int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Turns = turns
}

func (m *RequestMetrics) Finalize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
}

// Fields renders the metrics as structured log fields.
func (m *RequestMetrics) Fields() logrus.Fields {
	m.mu.Lock()
	defer m.mu.Unlock()

	end := m.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	return logrus.Fields{
		"request_id":     m.RequestID,
		"backend":        m.Backend,
		"total_ms":       end.Sub(m.StartTime).Milliseconds(),
		"acquire_ms":     m.AcquireTime.Milliseconds(),
		"normalize_ms":   m.NormalizeTime.Milliseconds(),
		"recognize_ms":   m.RecognizeTime.Milliseconds(),
		"utterances":     m.Utterances,
		"dialogue_turns": m.Turns,
	}
}
