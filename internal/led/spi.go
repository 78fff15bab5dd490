package led

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/coreman2200/pixelgenie/internal/pixel"
)

// DefaultFreq is the WS2812 bit rate.
const DefaultFreq = 800 * physic.KiloHertz

// SPI drives a WS281x strip directly from a local SPI port through
// periph's NRZ encoder. It is the alternative to streaming over OPC when
// the LEDs hang off the same board. The OPC channel is ignored.
type SPI struct {
	mu     sync.Mutex
	dev    *nrzled.Dev
	closer func() error
	count  int
	raw    []byte
	log    zerolog.Logger
}

// OpenSPI initializes the host drivers and opens the named SPI port ("" for
// the first one available).
func OpenSPI(name string, count int, freq physic.Frequency) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", name, err)
	}
	s, err := NewSPI(p, count, freq)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	s.closer = p.Close
	return s, nil
}

// NewSPI wraps an already opened port.
func NewSPI(p spi.Port, count int, freq physic.Frequency) (*SPI, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	if freq == 0 {
		freq = DefaultFreq
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      freq,
	})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &SPI{
		dev:   d,
		count: count,
		raw:   make([]byte, 0, count*3),
		log:   log.Logger.With().Str("component", "spi").Str("dev", d.String()).Logger(),
	}, nil
}

// SendPixels writes the first count LEDs of buf; missing LEDs are sent dark.
func (s *SPI) SendPixels(_ uint8, buf []pixel.RGB) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return false
	}
	if len(buf) > s.count {
		buf = buf[:s.count]
	}
	s.raw = pixel.Bytes(s.raw[:0], buf)
	for len(s.raw) < s.count*3 {
		s.raw = append(s.raw, 0)
	}
	if _, err := s.dev.Write(s.raw); err != nil {
		s.log.Debug().Err(err).Msg("spi write")
		return false
	}
	return true
}

// Close blanks the strip and releases the port.
func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return nil
	}
	err := s.dev.Halt()
	s.dev = nil
	if s.closer != nil {
		if cerr := s.closer(); err == nil {
			err = cerr
		}
	}
	return err
}
