package recognizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gorilla/websocket"

	"github.com/ruslanvt/call-transcriber/internal/media"
)

// ServerRecognizer streams audio to a remote Vosk WebSocket server
// instead of running the model in-process. One connection per file; the
// server replies to every chunk with either a partial or a final result.
type ServerRecognizer struct {
	serverURL string
}

func NewServer(serverURL string) *ServerRecognizer {
	return &ServerRecognizer{serverURL: serverURL}
}

// serverResult is the Vosk server reply. Partial-only replies carry no
// text and no words.
type serverResult struct {
	Text    string `json:"text"`
	Words   []Word `json:"result"`
	Partial string `json:"partial"`
}

func (r *ServerRecognizer) Recognize(ctx context.Context, wavPath string) ([]Utterance, error) {
	wf, err := media.OpenWav(wavPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open waveform: %w", err)
	}
	defer wf.Close()

	url := fmt.Sprintf("%s?sample_rate=%d", r.serverURL, wf.SampleRate())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Vosk server: %w", err)
	}
	defer conn.Close()

	cfg := fmt.Sprintf(`{"config": {"sample_rate": %d, "words": true}}`, wf.SampleRate())
	if err := conn.WriteMessage(websocket.TextMessage, []byte(cfg)); err != nil {
		return nil, fmt.Errorf("failed to configure Vosk server: %w", err)
	}

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

		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			return nil, fmt.Errorf("failed to send audio to Vosk server: %w", err)
		}

		result, final, err := readResult(conn)
		if err != nil {
			return nil, err
		}
		if final {
			utterances = append(utterances, Utterance{Text: result.Text, Words: result.Words})
		}
	}

	// EOF makes the server flush the trailing partial as a final result.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"eof": 1}`)); err != nil {
		return nil, fmt.Errorf("failed to send EOF to Vosk server: %w", err)
	}
	result, _, err := readResult(conn)
	if err != nil {
		return nil, err
	}
	utterances = append(utterances, Utterance{Text: result.Text, Words: result.Words})

	return utterances, nil
}

// readResult reads one server reply and reports whether it was a final
// (utterance boundary) result rather than a running partial.
func readResult(conn *websocket.Conn) (serverResult, bool, error) {
	_, message, err := conn.ReadMessage()
	if err != nil {
		return serverResult{}, false, fmt.Errorf("failed to read Vosk server result: %w", err)
	}

	var result serverResult
	if err := json.Unmarshal(message, &result); err != nil {
		return serverResult{}, false, fmt.Errorf("failed to parse Vosk server result: %w", err)
	}

	// Finals carry a "text" key (possibly empty on silence); partials
	// carry only "partial". Key presence is what matters, not the value.
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(message, &keys); err != nil {
		return serverResult{}, false, fmt.Errorf("failed to parse Vosk server result: %w", err)
	}
	_, final := keys["text"]
	return result, final, nil
}

func (r *ServerRecognizer) Close() error {
	return nil
}
