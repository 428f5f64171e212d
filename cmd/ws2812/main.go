package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/coreman2200/ws2812spi/internal/config"
	"github.com/coreman2200/ws2812spi/internal/monitor"
	"github.com/coreman2200/ws2812spi/model"
	"github.com/coreman2200/ws2812spi/spi"
	"github.com/coreman2200/ws2812spi/ws2812"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config.yaml")
		driver     = flag.String("driver", "", "driver: stream | prerendered | hosted | nrzled | console")
		pixels     = flag.Int("pixels", 0, "number of pixels")
		strips     = flag.Int("strips", 0, "strips the pixels are split into")
		serpentine = flag.Bool("serpentine", false, "every odd strip runs backwards")
		order      = flag.String("order", "", "color order (GRB, RGB, GRBW, ...)")
		fps        = flag.Int("fps", 0, "target frames per second")
		brightness = flag.Float64("brightness", 0, "global brightness 0..1")
		dev        = flag.String("dev", "", "SPI port name; empty selects the first")
		idleHigh   = flag.Bool("mosi-idle-high", false, "MOSI idles high on this controller")
		single     = flag.Bool("single", false, "send resets and data in one transaction")
		addr       = flag.String("addr", "", "monitor listen address, e.g. :8080")
		save       = flag.String("save", "", "write the effective config to this path and exit")
		verbose    = flag.Bool("v", false, "log every frame")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		} else {
			cfg = c
		}
	}

	// Flags given explicitly override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "driver":
			cfg.Driver = *driver
		case "pixels":
			cfg.NumPixels = *pixels
		case "strips":
			cfg.Layout.Strips = *strips
		case "serpentine":
			cfg.Layout.Serpentine = *serpentine
		case "order":
			cfg.ColorOrder = *order
		case "fps":
			cfg.FPS = *fps
		case "brightness":
			cfg.Brightness = *brightness
		case "dev":
			cfg.SPI.Dev = *dev
		case "mosi-idle-high":
			cfg.SPI.MOSIIdleHigh = *idleHigh
		case "single":
			cfg.SPI.ResetSingleTransaction = *single
		case "addr":
			cfg.Monitor.Addr = *addr
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if *save != "" {
		if err := config.Save(*save, cfg); err != nil {
			log.Fatal().Err(err).Str("path", *save).Msg("save config")
		}
		log.Info().Str("path", *save).Msg("config saved")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	var hub *monitor.Hub
	if cfg.Monitor.Addr != "" {
		hub = monitor.NewHub()
		go func() {
			if err := hub.Serve(ctx, cfg.Monitor.Addr); err != nil {
				log.Error().Err(err).Msg("monitor stopped")
			}
		}()
	}

	w, closer, err := open(cfg, hub)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Driver).Msg("driver init failed")
	}
	defer closer.Close()

	strip := max(1, cfg.Layout.Strips)
	chain := model.NewChain(strip, cfg.NumPixels/strip, cfg.Layout.Serpentine, model.Color{})
	fx := &rainbow{chain: chain, period: 5 * time.Second, brightness: cfg.Brightness}
	l := &spi.Looper{
		Writer: w,
		Frame:  fx.frame,
		FPS:    cfg.FPS,
		Pixels: chain.Len(),
		Logger: &log.Logger,
	}
	log.Info().
		Str("driver", cfg.Driver).
		Int("pixels", chain.Len()).
		Str("order", cfg.ColorOrder).
		Int("fps", cfg.FPS).
		Msg("running")
	if err := l.Start(ctx); err != nil {
		log.Error().Err(err).Msg("looper")
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// open builds the writer selected by cfg.Driver. SPI drivers fall back to the
// console when no port can be opened.
func open(cfg *config.Config, hub *monitor.Hub) (ws2812.Writer, io.Closer, error) {
	o, err := cfg.Opts()
	if err != nil {
		return nil, nil, err
	}
	lg := log.Logger.With().Str("component", "ws2812").Logger()
	o.Logger = &lg

	switch cfg.Driver {
	case config.DriverConsole:
		return spi.NewConsole(cfg.NumPixels), nopCloser{}, nil

	case config.DriverNRZ:
		if _, err := host.Init(); err != nil {
			return nil, nil, err
		}
		p, err := spireg.Open(cfg.SPI.Dev)
		if err != nil {
			log.Warn().Err(err).Str("dev", cfg.SPI.Dev).Msg("no SPI port; printing at the console")
			return spi.NewConsole(cfg.NumPixels), nopCloser{}, nil
		}
		r, err := spi.NewNRZ(p, cfg.NumPixels, o.Order)
		if err != nil {
			p.Close()
			return nil, nil, err
		}
		return r, p, nil
	}

	bus, err := spi.Open(cfg.SPI.Dev, cfg.Freq())
	if err != nil {
		log.Warn().Err(err).Str("dev", cfg.SPI.Dev).Msg("no SPI port; printing at the console")
		return spi.NewConsole(cfg.NumPixels), nopCloser{}, nil
	}
	log.Info().Str("bus", bus.String()).Int("max_tx", bus.MaxTxSize()).Msg("SPI connected")

	var t ws2812.Transferer = bus
	if hub != nil {
		to := o
		if cfg.Driver == config.DriverHosted {
			to.ResetSingleTransaction = true
		}
		t = monitor.NewTap(bus, &to, hub)
	}

	switch cfg.Driver {
	case config.DriverStream:
		if hub != nil {
			log.Warn().Msg("the monitor only taps transfer based drivers")
		}
		return ws2812.NewStream(bus, &o), bus, nil
	case config.DriverPrerendered:
		return ws2812.NewPrerendered(t, make([]byte, o.RequiredLen(cfg.NumPixels)), &o), bus, nil
	case config.DriverHosted:
		return ws2812.NewHosted(t, nil, &o), bus, nil
	}
	bus.Close()
	return nil, nil, errors.New("unknown driver " + cfg.Driver)
}
