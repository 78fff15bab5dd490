package led

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/pixelgenie/internal/pixel"
)

// Sim is a driver for running without hardware. It logs a compact summary
// of each frame (first LED and the average) at debug level.
type Sim struct {
	mu    sync.Mutex
	count uint64
	log   zerolog.Logger
}

func NewSim() *Sim {
	return &Sim{log: log.Logger.With().Str("component", "sim").Logger()}
}

func (s *Sim) SendPixels(channel uint8, buf []pixel.RGB) bool {
	s.mu.Lock()
	s.count++
	n := s.count
	s.mu.Unlock()

	if e := s.log.Debug(); e.Enabled() {
		var avg pixel.RGB
		for _, c := range buf {
			avg = pixel.RGB{R: avg.R + c.R, G: avg.G + c.G, B: avg.B + c.B}
		}
		first := pixel.RGB{}
		if len(buf) > 0 {
			avg = avg.Scale(1 / float64(len(buf)))
			first = buf[0]
		}
		e.Uint64("frame", n).
			Uint8("channel", channel).
			Int("leds", len(buf)).
			Floats64("avg", []float64{avg.R, avg.G, avg.B}).
			Floats64("first", []float64{first.R, first.G, first.B}).
			Msg("frame")
	}
	return true
}

// Frames returns how many frames were accepted.
func (s *Sim) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Sim) Close() error { return nil }
