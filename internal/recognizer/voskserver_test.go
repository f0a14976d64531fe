package recognizer

import (
	"bytes"
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestWav builds a PCM mono 16-bit WAV with the given frame count.
func writeTestWav(t *testing.T, sampleRate, frames int) string {
	t.Helper()

	data := make([]byte, frames*2)
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	path := filepath.Join(t.TempDir(), "test.wav")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestServerRecognizer(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var gotConfig string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		chunks := 0
		for {
			kind, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			switch {
			case kind == websocket.TextMessage && strings.Contains(string(message), "config"):
				gotConfig = string(message)
			case kind == websocket.TextMessage && strings.Contains(string(message), "eof"):
				// Trailing partial flushed as the last final result.
				conn.WriteMessage(websocket.TextMessage, []byte(
					`{"text": "алло", "result": [{"word": "алло", "start": 2, "end": 2.3, "conf": 0.4}]}`))
			case kind == websocket.BinaryMessage:
				chunks++
				if chunks == 1 {
					conn.WriteMessage(websocket.TextMessage, []byte(
						`{"text": "добрый день", "result": [{"word": "день", "start": 0, "end": 1.5, "conf": 0.9}]}`))
				} else {
					conn.WriteMessage(websocket.TextMessage, []byte(`{"partial": "ал"}`))
				}
			}
		}
	}))
	defer ts.Close()

	wav := writeTestWav(t, 16000, 3*ChunkFrames)
	rec := NewServer("ws" + strings.TrimPrefix(ts.URL, "http"))

	utterances, err := rec.Recognize(context.Background(), wav)
	require.NoError(t, err)

	assert.Contains(t, gotConfig, `"sample_rate": 16000`)
	require.Len(t, utterances, 2)
	assert.Equal(t, "добрый день", utterances[0].Text)
	require.Len(t, utterances[0].Words, 1)
	assert.Equal(t, 0.9, utterances[0].Words[0].Conf)
	assert.Equal(t, "алло", utterances[1].Text)
}

func TestServerRecognizerUnreachable(t *testing.T) {
	rec := NewServer("ws://127.0.0.1:1")
	_, err := rec.Recognize(context.Background(), writeTestWav(t, 16000, ChunkFrames))
	assert.Error(t, err)
}
