package media

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// WavFile reads PCM frames from a RIFF/WAVE file. Only uncompressed PCM
// is supported, which is all ffmpeg produces with the flags we use.
type WavFile struct {
	f             *os.File
	sampleRate    int
	channels      int
	bitsPerSample int
	dataRemaining uint32
}

// OpenWav opens a WAV file and walks its chunks until the data chunk,
// leaving the reader positioned at the first audio frame.
func OpenWav(path string) (*WavFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	w, err := readHeader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func readHeader(f *os.File) (*WavFile, error) {
	var riff [12]byte
	if _, err := io.ReadFull(f, riff[:]); err != nil {
		return nil, fmt.Errorf("failed to read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a WAV file")
	}

	w := &WavFile{f: f}
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(f, chunk[:]); err != nil {
			return nil, fmt.Errorf("failed to read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			var fmtChunk [16]byte
			if _, err := io.ReadFull(f, fmtChunk[:]); err != nil {
				return nil, fmt.Errorf("failed to read fmt chunk: %w", err)
			}
			if format := binary.LittleEndian.Uint16(fmtChunk[0:2]); format != 1 {
				return nil, fmt.Errorf("unsupported WAV format %d (want PCM)", format)
			}
			w.channels = int(binary.LittleEndian.Uint16(fmtChunk[2:4]))
			w.sampleRate = int(binary.LittleEndian.Uint32(fmtChunk[4:8]))
			w.bitsPerSample = int(binary.LittleEndian.Uint16(fmtChunk[14:16]))
			if size > 16 {
				if _, err := f.Seek(int64(size-16), io.SeekCurrent); err != nil {
					return nil, err
				}
			}
		case "data":
			if w.sampleRate == 0 {
				return nil, fmt.Errorf("data chunk before fmt chunk")
			}
			w.dataRemaining = size
			return w, nil
		default:
			// LIST, INFO and friends
			if _, err := f.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, err
			}
		}
	}
}

func (w *WavFile) SampleRate() int { return w.sampleRate }

// FrameSize is the byte width of one frame across all channels.
func (w *WavFile) FrameSize() int {
	return w.channels * w.bitsPerSample / 8
}

// ReadFrames reads up to n frames into a freshly sized slice. It returns
// io.EOF once the data chunk is exhausted.
func (w *WavFile) ReadFrames(n int) ([]byte, error) {
	if w.dataRemaining == 0 {
		return nil, io.EOF
	}
	want := uint32(n * w.FrameSize())
	if want > w.dataRemaining {
		want = w.dataRemaining
	}
	buf := make([]byte, want)
	read, err := io.ReadFull(w.f, buf)
	w.dataRemaining -= uint32(read)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		// Header promised more data than the file holds; take what we got.
		w.dataRemaining = 0
		if read == 0 {
			return nil, io.EOF
		}
		return buf[:read], nil
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (w *WavFile) Close() error {
	return w.f.Close()
}
