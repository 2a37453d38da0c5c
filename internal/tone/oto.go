package tone

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto permits a single audio context per process, fixed to one sample
// rate. The first Play call wins; later rate changes need a restart.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoRate int
	otoErr  error
)

func audioContext(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatFloat32LE,
		})
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx = ctx
		otoRate = sampleRate
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if sampleRate != otoRate {
		return nil, fmt.Errorf("audio context is fixed at %d Hz, requested %d", otoRate, sampleRate)
	}
	return otoCtx, nil
}

// OutputDevice plays sample blocks on the default audio output.
type OutputDevice struct{}

// NewOutputDevice returns the hardware-backed playback device.
func NewOutputDevice() *OutputDevice {
	return &OutputDevice{}
}

// Play streams blocks until the channel closes and playback drains, or
// until ctx is cancelled, in which case the player is closed immediately.
func (d *OutputDevice) Play(ctx context.Context, sampleRate int, blocks <-chan []float32) error {
	audio, err := audioContext(sampleRate)
	if err != nil {
		return fmt.Errorf("audio device: %w", err)
	}

	player := audio.NewPlayer(&blockReader{ctx: ctx, blocks: blocks})
	player.Play()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = player.Close()
			return ctx.Err()
		case <-ticker.C:
			if !player.IsPlaying() {
				if err := player.Close(); err != nil {
					return fmt.Errorf("close player: %w", err)
				}
				return nil
			}
		}
	}
}

// blockReader adapts the block channel to the io.Reader the player pulls
// from, converting samples to little-endian float32 bytes.
type blockReader struct {
	ctx    context.Context
	blocks <-chan []float32
	buf    []byte
}

func (r *blockReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		select {
		case block, ok := <-r.blocks:
			if !ok {
				return 0, io.EOF
			}
			r.buf = encodeBlock(block)
		case <-r.ctx.Done():
			return 0, io.EOF
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func encodeBlock(block []float32) []byte {
	out := make([]byte, 4*len(block))
	for i, sample := range block {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(sample))
	}
	return out
}
