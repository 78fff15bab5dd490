package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/pixelgenie/internal/effect"
	"github.com/coreman2200/pixelgenie/internal/mapper"
	"github.com/coreman2200/pixelgenie/internal/pixel"
)

// DefaultInterval is 20 frames per second.
const DefaultInterval = 50 * time.Millisecond

var ErrUnknownEffect = errors.New("render: unknown effect")

// Driver is an LED output. SendPixels reports whether the frame left the
// process; a false result drops the frame.
type Driver interface {
	SendPixels(channel uint8, pixels []pixel.RGB) bool
}

// Options tune a Loop. Zero values pick the defaults.
type Options struct {
	Interval   time.Duration
	Channel    uint8
	ColorScale float64 // multiplier from effect output (0..1) to wire values; default 255
	TimeScale  float64 // default 1
	WhiteCap   float64 // see WhiteCap; 0 disables
	Logger     *zerolog.Logger
}

// Stats is a point-in-time view of the loop for health reporting.
type Stats struct {
	FrameID uint64  `json:"frame_id"`
	Dropped uint64  `json:"dropped"`
	Active  string  `json:"active"`
	UptimeS float64 `json:"uptime_s"`
}

// Loop renders the active effect over every mapped LED on a fixed cadence
// and hands each frame to the driver.
type Loop struct {
	mapper   *mapper.Mapper
	registry *effect.Registry
	drv      Driver
	opts     Options
	log      zerolog.Logger

	mu      sync.RWMutex
	active  string
	frameID uint64
	dropped uint64
	t0      time.Time
}

func NewLoop(m *mapper.Mapper, reg *effect.Registry, drv Driver, active string, opts Options) (*Loop, error) {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.ColorScale == 0 {
		opts.ColorScale = 255
	}
	if opts.TimeScale == 0 {
		opts.TimeScale = 1
	}
	l := &Loop{
		mapper:   m,
		registry: reg,
		drv:      drv,
		opts:     opts,
		log:      log.Logger,
		t0:       time.Now(),
	}
	if opts.Logger != nil {
		l.log = *opts.Logger
	}
	l.log = l.log.With().Str("component", "render").Logger()
	if err := l.SetActive(active); err != nil {
		return nil, err
	}
	return l, nil
}

// SetActive selects the effect rendered from the next tick on.
func (l *Loop) SetActive(key string) error {
	if _, ok := l.registry.Effect(key); !ok {
		return fmt.Errorf("%w %q", ErrUnknownEffect, key)
	}
	l.mu.Lock()
	l.active = key
	l.mu.Unlock()
	return nil
}

func (l *Loop) Active() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Now returns seconds since the loop was created, scaled by TimeScale.
func (l *Loop) Now() float64 {
	return time.Since(l.t0).Seconds() * l.opts.TimeScale
}

// Tick renders and sends one frame at time t.
func (l *Loop) Tick(t float64) bool {
	key := l.Active()
	e, snap, ok := l.registry.Current(key)
	if !ok {
		l.log.Warn().Str("effect", key).Msg("active effect was removed")
		l.count(false)
		return false
	}

	frame := l.mapper.RenderFrame(e, snap, t, l.opts.ColorScale)
	WhiteCap(frame, l.opts.WhiteCap, l.opts.ColorScale)

	ok = l.drv != nil && l.drv.SendPixels(l.opts.Channel, frame)
	l.count(ok)
	return ok
}

func (l *Loop) count(sent bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frameID++
	if !sent {
		l.dropped++
	}
}

// Run ticks until ctx is cancelled. A failed send is not retried; the next
// tick simply tries again.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.opts.Interval)
	defer ticker.Stop()
	l.log.Info().Str("effect", l.Active()).Dur("interval", l.opts.Interval).Msg("render loop started")
	for {
		select {
		case <-ctx.Done():
			l.log.Info().Msg("render loop stopped")
			return
		case <-ticker.C:
			if !l.Tick(l.Now()) {
				l.log.Trace().Msg("frame dropped")
			}
		}
	}
}

func (l *Loop) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Stats{
		FrameID: l.frameID,
		Dropped: l.dropped,
		Active:  l.active,
		UptimeS: time.Since(l.t0).Seconds(),
	}
}
