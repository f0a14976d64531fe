package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Transcoder converts arbitrary input audio into the mono 16kHz 16-bit
// PCM WAV the recognizer requires, by shelling out to ffmpeg.
type Transcoder struct {
	bin string
}

func NewTranscoder(bin string) *Transcoder {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Transcoder{bin: bin}
}

// Probe verifies the ffmpeg binary is present and executable. Called once
// at startup so a missing binary fails fast instead of on the first request.
func (t *Transcoder) Probe() error {
	if err := exec.Command(t.bin, "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg not available at %q: %w", t.bin, err)
	}
	return nil
}

// ToWav transcodes src into a mono/16kHz/s16le WAV at dst, overwriting
// any existing output.
func (t *Transcoder) ToWav(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, t.bin,
		"-y", "-i", src,
		"-ac", "1", "-ar", "16000",
		"-acodec", "pcm_s16le",
		"-f", "wav",
		dst,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.Bytes()))
	}
	return nil
}

// lastLine extracts the final non-empty stderr line, which is where
// ffmpeg puts the actual reason for a failure.
func lastLine(out []byte) string {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	if len(lines) == 0 {
		return ""
	}
	return string(bytes.TrimSpace(lines[len(lines)-1]))
}
