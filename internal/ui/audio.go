package ui

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// ringSize must hold a few emulator audio buffers to absorb the jitter
// between the emulation rate and the audio device pull rate.
const ringSize = 8192

// AudioPlayer bridges the emulator's push-style audio callback to oto's
// pull-style player through a ring buffer of float32 samples.
type AudioPlayer struct {
	ctx    *oto.Context
	player *oto.Player

	mu   sync.Mutex
	ring [ringSize]float32
	r, w int
	n    int
	last float32 // repeated on underflow to avoid clicks
}

// NewAudioPlayer opens a mono float32 audio stream at the given sample
// rate.
func NewAudioPlayer(sampleRate int) (*AudioPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	a := &AudioPlayer{ctx: ctx}
	a.player = ctx.NewPlayer(a)
	return a, nil
}

// Start begins playback.
func (a *AudioPlayer) Start() {
	a.player.Play()
}

// Close stops playback.
func (a *AudioPlayer) Close() error {
	return a.player.Close()
}

// PushSamples queues emulator samples; it matches the system's audio
// callback signature. When the ring is full the oldest samples are
// dropped.
func (a *AudioPlayer) PushSamples(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range samples {
		if a.n == ringSize {
			a.r = (a.r + 1) % ringSize
			a.n--
		}
		a.ring[a.w] = s
		a.w = (a.w + 1) % ringSize
		a.n++
	}
}

// Read implements io.Reader for the oto player: little-endian float32
// mono samples.
func (a *AudioPlayer) Read(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	numSamples := len(p) / 4
	for i := 0; i < numSamples; i++ {
		if a.n > 0 {
			a.last = a.ring[a.r]
			a.r = (a.r + 1) % ringSize
			a.n--
		}
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(a.last))
	}
	return numSamples * 4, nil
}
