package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gen2brain/malgo"
)

// DeviceInfo describes one capture device.
type DeviceInfo struct {
	Name      string
	IsDefault bool
}

// Devices lists the available capture devices.
func Devices() ([]DeviceInfo, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	infos, err := mctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("enumerate capture devices: %w", err)
	}

	out := make([]DeviceInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, DeviceInfo{
			Name:      info.Name(),
			IsDefault: info.IsDefault != 0,
		})
	}
	return out, nil
}

// Levels summarizes the signal observed during a level check.
type Levels struct {
	Peak float64 // 0..1, max absolute sample
	RMS  float64 // 0..1, root mean square
}

// Silent reports whether the recording looks like a dead input.
func (l Levels) Silent() bool {
	return l.Peak < 0.001
}

// LevelCheck records from the configured device for the given duration
// and returns the observed signal levels. Used by the miccheck command
// to verify the input chain end to end.
func LevelCheck(ctx context.Context, cfg Config, d time.Duration) (Levels, error) {
	stream, err := NewStream(cfg)
	if err != nil {
		return Levels{}, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return Levels{}, err
	}

	deadline := time.After(d)
	var sumSquares float64
	var peak float64
	var samples int64

	for {
		select {
		case <-ctx.Done():
			return Levels{}, ctx.Err()
		case <-deadline:
			if samples == 0 {
				return Levels{}, nil
			}
			return Levels{
				Peak: peak,
				RMS:  math.Sqrt(sumSquares / float64(samples)),
			}, nil
		case chunk, ok := <-stream.Chunks():
			if !ok {
				return Levels{}, fmt.Errorf("capture stream ended early")
			}
			for i := 0; i+1 < len(chunk); i += 2 {
				sample := float64(int16(binary.LittleEndian.Uint16(chunk[i:]))) / math.MaxInt16
				if a := math.Abs(sample); a > peak {
					peak = a
				}
				sumSquares += sample * sample
				samples++
			}
		}
	}
}
