// Package transcript turns raw recognizer output into a speaker-attributed
// dialogue with per-speaker talk-time totals.
package transcript

import (
	"math"
	"strings"

	"github.com/ruslanvt/call-transcriber/internal/recognizer"
)

// Source is one of the two inferred sides of a two-party call.
type Source string

const (
	SourceReceiver    Source = "receiver"
	SourceTransmitter Source = "transmitter"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Turn is one derived turn in the output transcript.
type Turn struct {
	Source      Source  `json:"source"`
	Text        string  `json:"text"`
	Duration    float64 `json:"duration"`
	RaisedVoice bool    `json:"raised_voice"`
	Gender      Gender  `json:"gender"`
}

// Durations holds per-source talk time in seconds, rounded to 2 decimals.
type Durations struct {
	Receiver    float64 `json:"receiver"`
	Transmitter float64 `json:"transmitter"`
}

// Result is the response payload for one transcription request.
type Result struct {
	Dialog         []Turn    `json:"dialog"`
	ResultDuration Durations `json:"result_duration"`
}

// SpeakerClassifier assigns an utterance to one side of the call. The
// default is a lexical keyword heuristic; the interface exists so it can
// be swapped for acoustic diarization without touching the composer.
type SpeakerClassifier interface {
	Classify(text string) Source
}

// KeywordClassifier marks an utterance as the receiver's when its
// lowercased text contains the trigger word (greeting detection). There
// is no acoustic diarization behind this.
type KeywordClassifier struct {
	Trigger string
}

func (c KeywordClassifier) Classify(text string) Source {
	if c.Trigger != "" && strings.Contains(strings.ToLower(text), strings.ToLower(c.Trigger)) {
		return SourceReceiver
	}
	return SourceTransmitter
}

// Composer maps utterances to dialogue turns.
type Composer struct {
	classifier SpeakerClassifier
	// Words recognized with confidence below this are treated as a
	// raised-voice signal. This is a confidence proxy, not an acoustic
	// energy measurement.
	raisedThreshold float64
}

func NewComposer(classifier SpeakerClassifier, raisedThreshold float64) *Composer {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	if raisedThreshold == 0 {
		raisedThreshold = 0.6
	}
	return &Composer{classifier: classifier, raisedThreshold: raisedThreshold}
}

// Compose processes utterances in recognition order. Utterances with
// empty trimmed text are skipped; turns are never merged or reordered.
func (c *Composer) Compose(utterances []recognizer.Utterance) Result {
	result := Result{Dialog: []Turn{}}
	var receiver, transmitter float64

	for _, u := range utterances {
		text := strings.TrimSpace(u.Text)
		if text == "" {
			continue
		}

		source := c.classifier.Classify(text)
		gender := GenderFemale
		if source == SourceReceiver {
			gender = GenderMale
		}

		raised := false
		var duration float64
		for _, w := range u.Words {
			if w.Conf < c.raisedThreshold {
				raised = true
			}
			duration += w.End - w.Start
		}

		result.Dialog = append(result.Dialog, Turn{
			Source:      source,
			Text:        text,
			Duration:    round2(duration),
			RaisedVoice: raised,
			Gender:      gender,
		})

		// Totals accumulate unrounded; rounding happens once at the end.
		if source == SourceReceiver {
			receiver += duration
		} else {
			transmitter += duration
		}
	}

	result.ResultDuration = Durations{
		Receiver:    round2(receiver),
		Transmitter: round2(transmitter),
	}
	return result
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
