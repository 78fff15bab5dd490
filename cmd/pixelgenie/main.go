package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/pixelgenie/internal/config"
	"github.com/coreman2200/pixelgenie/internal/control"
	"github.com/coreman2200/pixelgenie/internal/effect"
	"github.com/coreman2200/pixelgenie/internal/effect/scenes/grad"
	"github.com/coreman2200/pixelgenie/internal/effect/scenes/noise"
	"github.com/coreman2200/pixelgenie/internal/effect/scenes/solid"
	"github.com/coreman2200/pixelgenie/internal/led"
	"github.com/coreman2200/pixelgenie/internal/mapper"
	"github.com/coreman2200/pixelgenie/internal/opc"
	"github.com/coreman2200/pixelgenie/internal/render"
)

type output interface {
	render.Driver
	Close() error
}

func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "path to config.yaml")
		simOnly     = flag.Bool("sim-only", false, "force simulation (no OPC or SPI output)")
		layoutOut   = flag.String("layout-out", "", "write the LED layout as JSON to this path")
		writeConfig = flag.String("write-config", "", "write the default config to this path and exit")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	if *writeConfig != "" {
		if err := config.Save(*writeConfig, config.Default()); err != nil {
			log.Fatal().Err(err).Str("path", *writeConfig).Msg("write config")
		}
		log.Info().Str("path", *writeConfig).Msg("default config written")
		return
	}

	cfg, fromFile, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("config")
	}
	if !fromFile {
		log.Warn().Str("path", *configPath).Msg("config file not found; using defaults")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}
	if *layoutOut != "" {
		cfg.LayoutOut = *layoutOut
	}
	if *simOnly {
		cfg.Driver = "sim"
	}

	// ---- Layout ----
	m := mapper.New()
	for i, s := range cfg.Strips {
		if err := m.SetPositionsAlongSegment(s.Start, s.Count, s.From, s.To); err != nil {
			log.Fatal().Err(err).Int("strip", i).Msg("bad strip")
		}
	}
	if len(cfg.Offset) > 0 {
		off, err := mapper.Point(cfg.Offset)
		if err != nil {
			log.Fatal().Err(err).Msg("bad offset")
		}
		m.Translate(off)
	}
	log.Info().Int("strips", len(cfg.Strips)).Int("leds", m.Len()).Msg("layout built")
	if cfg.LayoutOut != "" {
		if err := writeLayout(m, cfg.LayoutOut); err != nil {
			log.Error().Err(err).Str("path", cfg.LayoutOut).Msg("write layout")
		} else {
			log.Info().Str("path", cfg.LayoutOut).Msg("layout written")
		}
	}

	// ---- Effects ----
	reg := effect.NewRegistry()
	for _, fx := range []struct {
		key string
		e   effect.Effect
	}{
		{"colorful_noise", noise.New(cfg.NoiseSeed)},
		{"single_color", solid.New()},
		{"gradient", grad.New()},
	} {
		if err := reg.Register(fx.key, fx.e); err != nil {
			log.Fatal().Err(err).Msg("register effect")
		}
	}

	// ---- Driver ----
	var (
		drv    output
		client *opc.Client
	)
	switch cfg.Driver {
	case "opc":
		client = opc.NewClient(cfg.OPCAddr,
			opc.WithLongConnection(cfg.LongConnection),
			opc.WithDialTimeout(cfg.DialTimeout),
			opc.WithWriteTimeout(cfg.WriteTimeout),
		)
		if client.CanConnect() {
			log.Info().Str("addr", cfg.OPCAddr).Msg("connected to OPC server")
		} else {
			log.Warn().Str("addr", cfg.OPCAddr).Msg("OPC server unreachable; will keep retrying")
		}
		client.SetInterpolation(cfg.Interpolation)
		drv = client

	case "spi":
		freq := physic.Frequency(cfg.SPI.FreqHz) * physic.Hertz
		s, err := led.OpenSPI(cfg.SPI.Port, m.Len(), freq)
		if err != nil {
			log.Warn().Err(err).Str("port", cfg.SPI.Port).Msg("SPI init failed; falling back to SIM")
			drv = led.NewSim()
		} else {
			drv = s
		}

	default:
		drv = led.NewSim()
	}

	loop, err := render.NewLoop(m, reg, drv, cfg.ActiveEffect, render.Options{
		Interval:   cfg.Interval,
		Channel:    uint8(cfg.Channel),
		ColorScale: cfg.ColorScale,
		TimeScale:  cfg.TimeScale,
		WhiteCap:   cfg.WhiteCap,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("render loop")
	}

	// ---- Control channel ----
	ctl := control.NewServer(reg, control.WithStatus(func() any {
		st := struct {
			render.Stats
			Driver    string `json:"driver"`
			Connected *bool  `json:"opc_connected,omitempty"`
		}{Stats: loop.Stats(), Driver: cfg.Driver}
		if client != nil {
			c := client.Connected()
			st.Connected = &c
		}
		return st
	}))

	mux := http.NewServeMux()
	mux.HandleFunc("/", ctl.HandleControlWS)
	mux.HandleFunc("/control", ctl.HandleControlWS)
	mux.HandleFunc("/health", ctl.HandleHealth)

	srv := &http.Server{
		Addr:        cfg.ControlAddr,
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go loop.Run(ctx)
	go func() {
		log.Info().Str("addr", cfg.ControlAddr).Str("driver", cfg.Driver).Str("effect", cfg.ActiveEffect).Msg("control server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("control server crashed")
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Info().Str("signal", s.String()).Msg("shutting down")

	cancel()
	_ = srv.Close()
	if err := drv.Close(); err != nil {
		log.Warn().Err(err).Msg("driver close")
	}
}

func writeLayout(m *mapper.Mapper, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.WriteLayout(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
