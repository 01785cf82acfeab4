// Package wavfile streams a local WAV file as paced PCM chunks, so a
// recording can stand in for the microphone during streaming sessions.
package wavfile

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"transcribe-cli/internal/observability/logging"
)

// Info is the format of an opened WAV file.
type Info struct {
	SampleRateHz int
	Channels     int
	BitDepth     int
}

// Source reads PCM from a WAV file and delivers it in chunks at the
// file's real-time rate, mirroring how a live microphone would feed
// the transcription stream.
type Source struct {
	f       *os.File
	decoder *wav.Decoder
	info    Info
	frames  int
	chunks  chan []byte
}

// Open validates the file and prepares a chunked source. chunkFrames
// is the number of sample frames per chunk.
func Open(path string, chunkFrames int) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	d := wav.NewDecoder(f)
	d.ReadInfo()
	if !d.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}
	if d.WavAudioFormat != 1 {
		f.Close()
		return nil, fmt.Errorf("%s: only PCM WAV is supported (format %d)", path, d.WavAudioFormat)
	}
	if d.BitDepth != 16 {
		f.Close()
		return nil, fmt.Errorf("%s: only 16-bit WAV is supported (%d-bit)", path, d.BitDepth)
	}

	return &Source{
		f:       f,
		decoder: d,
		info: Info{
			SampleRateHz: int(d.SampleRate),
			Channels:     int(d.NumChans),
			BitDepth:     int(d.BitDepth),
		},
		frames: chunkFrames,
		chunks: make(chan []byte, 4),
	}, nil
}

// Info returns the file's format.
func (s *Source) Info() Info {
	return s.info
}

// Chunks returns the channel of PCM chunks. It closes at end of file
// or when Run stops.
func (s *Source) Chunks() <-chan []byte {
	return s.chunks
}

// Run decodes and paces chunks until EOF or ctx cancellation. It
// closes the chunk channel on return.
func (s *Source) Run(ctx context.Context) error {
	defer close(s.chunks)

	interval := time.Duration(s.frames) * time.Second / time.Duration(s.info.SampleRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	buf := &audio.IntBuffer{Data: make([]int, s.frames*s.info.Channels)}
	logger := logging.WithComponent("wavfile")

	for {
		n, err := s.decoder.PCMBuffer(buf)
		if err != nil {
			return fmt.Errorf("decode PCM: %w", err)
		}
		if n == 0 {
			logger.Debug().Msg("End of WAV file")
			return nil
		}

		chunk := make([]byte, n*2)
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint16(chunk[i*2:], uint16(int16(buf.Data[i])))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case s.chunks <- chunk:
		}

		// Pace to real time like a live capture.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close releases the underlying file.
func (s *Source) Close() error {
	return s.f.Close()
}
