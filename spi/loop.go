package spi

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/ws2812spi/model"
	"github.com/coreman2200/ws2812spi/ws2812"
)

const DFLT_FPS = 30

// FrameFunc returns the colors of the frame to show elapsed after start.
type FrameFunc func(elapsed time.Duration) model.Source

// Looper refreshes a chain at a fixed rate until its context is cancelled or
// an interrupt arrives. On exit it sends one blank frame of Pixels colors.
type Looper struct {
	Writer ws2812.Writer
	Frame  FrameFunc
	FPS    int
	Pixels int
	// Logger is optional.
	Logger *zerolog.Logger

	mu     sync.Mutex
	frames int
	errs   int
	last   error
}

func (l *Looper) refresh(ctx context.Context, sig <-chan os.Signal) {
	fps := l.FPS
	if fps <= 0 {
		fps = DFLT_FPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case t := <-ticker.C:
			err := l.Writer.Write(l.Frame(t.Sub(start)))
			l.mu.Lock()
			l.frames++
			if err != nil {
				l.errs++
				l.last = err
			}
			l.mu.Unlock()
			if err != nil {
				l.Logger.Warn().Err(err).Msg("frame dropped")
			}

		case s := <-sig:
			l.Logger.Info().Str("signal", s.String()).Msg("aborting")
			return

		case <-ctx.Done():
			return
		}
	}
}

// Start blocks until ctx is done or the process is interrupted. It returns
// the last write error seen, if any.
func (l *Looper) Start(ctx context.Context) error {
	if l.Logger == nil {
		nop := zerolog.Nop()
		l.Logger = &nop
	}
	ctx, cancel := context.WithCancel(ctx)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer func() {
		signal.Stop(c)
		cancel()
	}()

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.refresh(ctx, c)
	}()
	wg.Wait()

	if err := l.Writer.Write(model.Repeat(model.Color{}, l.Pixels)); err != nil {
		l.Logger.Error().Err(err).Msg("blank frame")
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.Logger.Info().Int("frames", l.frames).Int("errors", l.errs).Msg("looper stopped")
	return l.last
}

// Frames returns the number of frames written so far and how many failed.
func (l *Looper) Frames() (n, failed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames, l.errs
}
