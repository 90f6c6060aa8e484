package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/handpointer/internal/capture"
	"github.com/ayusman/handpointer/internal/detector"
	"github.com/ayusman/handpointer/internal/gesture"
)

// Run opens the camera and processes frames until ctx is cancelled, the
// preview asks to quit, the camera runs out of frames or the estimator
// becomes unavailable. The overlay animator and registered services run
// alongside and stop with it. Every open session is released before Run
// returns, whatever the reason.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.animator != nil {
		g.Go(func() error {
			return a.animator.Run(ctx)
		})
	}

	a.mu.RLock()
	services := a.services
	a.mu.RUnlock()
	for _, svc := range services {
		g.Go(func() error {
			if err := svc.run(ctx); err != nil {
				return fmt.Errorf("%s: %w", svc.name, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer a.controller.Release()
		return a.loop(ctx)
	})

	err := g.Wait()
	if errors.Is(err, ErrQuit) || errors.Is(err, capture.ErrNoMoreFrames) {
		return nil
	}
	return err
}

// loop is the paced frame loop. It owns the camera.
func (a *App) loop(ctx context.Context) error {
	if err := a.config.Camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := a.config.Camera.Close(); err != nil {
			a.logger.Warn("Error closing camera", zap.Error(err))
		}
		if err := a.config.Detector.Close(); err != nil {
			a.logger.Warn("Error closing detector", zap.Error(err))
		}
		if a.config.Preview != nil {
			if err := a.config.Preview.Close(); err != nil {
				a.logger.Warn("Error closing preview", zap.Error(err))
			}
		}
	}()

	a.banner()

	ticker := time.NewTicker(frameInterval(a.config.TargetFPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.processFrame(); err != nil {
				return err
			}
		}
	}
}

// processFrame reads, detects, interprets and displays one frame.
func (a *App) processFrame() error {
	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		if errors.Is(err, capture.ErrNoMoreFrames) {
			return err
		}
		a.logger.Warn("Error reading frame", zap.Error(err))
		return nil
	}
	defer frame.Close()

	size := gesture.FrameSize{Width: frame.Cols(), Height: frame.Rows()}

	hands, err := a.config.Detector.Detect(frame)
	if err != nil {
		if errors.Is(err, detector.ErrUnavailable) {
			return fmt.Errorf("hand detection: %w", err)
		}
		a.logger.Warn("Error detecting hands", zap.Error(err))
		hands = nil
	}

	snap := a.Process(hands, size, time.Now())

	if a.config.Preview != nil && !a.config.Preview.Show(frame, snap, a.ring.Current()) {
		a.logger.Info("Quit requested from preview")
		return ErrQuit
	}
	return nil
}

func (a *App) banner() {
	a.logger.Info("Hand pointer started",
		zap.Float64("target_fps", a.config.TargetFPS),
		zap.Bool("overlay", a.animator != nil),
		zap.Bool("preview", a.config.Preview != nil),
		zap.Bool("recording", a.config.Record && a.config.Store != nil))
	a.logger.Info("Pointer hand: index finger moves the cursor")
	a.logger.Info("Pointer hand: quick index+thumb pinch clicks, hold 0.35s to drag")
	a.logger.Info("Pointer hand: middle+thumb pinch right clicks")
	a.logger.Info("Scroll hand: index and middle extended together, move up or down to scroll")
}

func frameInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = DefaultTargetFPS
	}
	return time.Duration(float64(time.Second) / fps)
}
