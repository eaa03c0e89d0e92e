package beeper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleRate(t *testing.T) {
	var b Beeper
	b.Init(2457600, 44100, 0.5)

	// one emulated second must produce one host second of samples
	samples := 0
	for i := 0; i < 2457600; i++ {
		if b.Tick() {
			samples++
		}
	}
	assert.InDelta(t, 44100, samples, 1)
}

func TestToggle(t *testing.T) {
	var b Beeper
	b.Init(1000, 500, 0.5)

	for !b.Tick() {
	}
	assert.Equal(t, float32(-0.5), b.Sample, "silent output is the negative rail")

	b.Toggle()
	for !b.Tick() {
	}
	assert.Equal(t, float32(0.5), b.Sample)

	b.Toggle()
	for !b.Tick() {
	}
	assert.Equal(t, float32(-0.5), b.Sample)
}

func TestReset(t *testing.T) {
	var b Beeper
	b.Init(1000, 500, 0.5)
	b.Toggle()
	b.Reset()

	for !b.Tick() {
	}
	assert.Equal(t, float32(-0.5), b.Sample, "reset silences the output")
}

func TestInitPanicsOnBadFrequency(t *testing.T) {
	var b Beeper
	assert.Panics(t, func() { b.Init(0, 44100, 0.5) })
	assert.Panics(t, func() { b.Init(2457600, 0, 0.5) })
}
