// Package capture reads PCM audio from the microphone via miniaudio
// (malgo). The device callback slices incoming samples into fixed-size
// chunks and hands them to the consumer over a channel; OS-level device
// handling stays inside the library.
package capture

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"

	"transcribe-cli/internal/observability/logging"
	"transcribe-cli/internal/observability/metrics"
)

// Config describes the capture format.
type Config struct {
	SampleRateHz int
	Channels     int
	ChunkFrames  int
	DeviceName   string // substring match; empty selects the default device
}

// DefaultConfig matches the streaming session default: 16kHz mono
// S16LE in 1024-frame chunks.
func DefaultConfig() Config {
	return Config{
		SampleRateHz: 16000,
		Channels:     1,
		ChunkFrames:  1024,
	}
}

const bytesPerSample = 2 // S16LE

// Stream is an open capture device delivering PCM chunks.
type Stream struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	chunks chan []byte
	m      *metrics.Metrics

	mu      sync.Mutex
	pending []byte
	closed  bool
}

// NewStream initializes the audio backend and opens the capture device
// described by cfg. The device does not record until Start.
func NewStream(cfg Config) (*Stream, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}

	s := &Stream{
		ctx:    mctx,
		chunks: make(chan []byte, 32),
		m:      metrics.Default,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRateHz)
	deviceConfig.Alsa.NoMMap = 1

	if cfg.DeviceName != "" {
		id, err := findDevice(mctx, cfg.DeviceName)
		if err != nil {
			s.teardownContext()
			return nil, err
		}
		deviceConfig.Capture.DeviceID = id.Pointer()
	}

	chunkBytes := cfg.ChunkFrames * cfg.Channels * bytesPerSample

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			s.onSamples(input, chunkBytes)
		},
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, callbacks)
	if err != nil {
		s.teardownContext()
		return nil, fmt.Errorf("init capture device: %w", err)
	}
	s.device = device

	logger := logging.WithComponent("capture")
	logger.Debug().
		Int("sampleRateHz", cfg.SampleRateHz).
		Int("channels", cfg.Channels).
		Int("chunkBytes", chunkBytes).
		Msg("Capture device initialized")
	return s, nil
}

// Start begins recording.
func (s *Stream) Start() error {
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("start capture device: %w", err)
	}
	return nil
}

// Chunks returns the channel of captured PCM chunks. It is closed by
// Close after the device stops.
func (s *Stream) Chunks() <-chan []byte {
	return s.chunks
}

// Close stops the device and releases the audio backend.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// Uninit stops the device; the data callback will not fire again.
	s.device.Uninit()
	s.teardownContext()
	close(s.chunks)
	return nil
}

// onSamples runs on the audio thread. It must never block: when the
// consumer lags, whole chunks are dropped and counted rather than
// stalling the device.
func (s *Stream) onSamples(input []byte, chunkBytes int) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, input...)

	var ready [][]byte
	for len(s.pending) >= chunkBytes {
		chunk := make([]byte, chunkBytes)
		copy(chunk, s.pending[:chunkBytes])
		s.pending = s.pending[chunkBytes:]
		ready = append(ready, chunk)
	}
	s.mu.Unlock()

	for _, chunk := range ready {
		select {
		case s.chunks <- chunk:
			s.m.RecordCapture(len(chunk))
		default:
			s.m.RecordCaptureDrop()
		}
	}
}

func (s *Stream) teardownContext() {
	_ = s.ctx.Uninit()
	s.ctx.Free()
}

// findDevice resolves a capture device whose name contains the given
// substring (case-insensitive).
func findDevice(mctx *malgo.AllocatedContext, name string) (malgo.DeviceID, error) {
	infos, err := mctx.Devices(malgo.Capture)
	if err != nil {
		return malgo.DeviceID{}, fmt.Errorf("enumerate capture devices: %w", err)
	}
	needle := strings.ToLower(name)
	for _, info := range infos {
		if strings.Contains(strings.ToLower(info.Name()), needle) {
			return info.ID, nil
		}
	}
	return malgo.DeviceID{}, fmt.Errorf("no capture device matching %q", name)
}
