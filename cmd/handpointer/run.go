package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/handpointer/internal/app"
	"github.com/ayusman/handpointer/internal/capture"
	"github.com/ayusman/handpointer/internal/config"
	"github.com/ayusman/handpointer/internal/detector"
	"github.com/ayusman/handpointer/internal/gesture"
	"github.com/ayusman/handpointer/internal/pointer"
	"github.com/ayusman/handpointer/internal/preview"
	"github.com/ayusman/handpointer/internal/server"
	"github.com/ayusman/handpointer/internal/store"
	"github.com/ayusman/handpointer/internal/tray"
)

func newRunCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Track hands from the webcam and drive the pointer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context())
		},
	}

	// Defaults mirror config.SetDefaults; viper falls back to them.
	flags := cmd.Flags()
	flags.Int("camera.device_id", 0, "camera device index")
	flags.Float64("camera.target_fps", gesture.NominalFPS, "frame loop rate")
	flags.Bool("camera.mirror", true, "flip frames horizontally")
	flags.String("backend.kind", config.BackendOS, "pointer backend (os, dry-run)")
	flags.Bool("preview.enabled", true, "show the debug preview window")
	flags.Bool("overlay.enabled", true, "show the click ring")
	flags.String("server.addr", "", "serve the debug API on this address, e.g. 127.0.0.1:8080")
	flags.Bool("record.enabled", false, "record detections for later replay")
	flags.Bool("tray.enabled", false, "show the system tray menu")

	return cmd
}

func (c *cli) run(ctx context.Context) error {
	cfg := c.cfg
	logger := c.logger

	backend, screenW, screenH := newBackend(cfg.Backend, logger)

	det, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:        cfg.Detector.MaxHands,
		MinConfidence:   cfg.Detector.MinConfidence,
		MinTrackingConf: cfg.Detector.MinTrackingConfidence,
		ScriptPath:      cfg.Detector.Script,
		PythonPath:      cfg.Detector.Python,
	}, logger)
	if err != nil {
		return fmt.Errorf("hand detector: %w", err)
	}

	cam := capture.NewCamera(capture.Config{
		DeviceID: cfg.Camera.DeviceID,
		Width:    cfg.Camera.Width,
		Height:   cfg.Camera.Height,
		FPS:      cfg.Camera.TargetFPS,
		Mirror:   cfg.Camera.Mirror,
	}, logger)

	var st *store.Store
	if cfg.Record.Enabled || cfg.Server.Addr != "" {
		st, err = c.openStore()
		if err != nil {
			det.Close()
			return err
		}
		defer st.Close()
	}

	var displays []preview.Display
	window := showWindow(cfg.Preview.Enabled, runtime.GOOS)
	if window {
		displays = append(displays, preview.NewWindow(cfg.Preview.Title))
	} else if cfg.Preview.Enabled {
		logger.Warn("Preview window is not supported on this platform, use server.addr for the stream",
			zap.String("os", runtime.GOOS))
	}
	var frames *preview.Frames
	if cfg.Server.Addr != "" {
		frames = preview.NewFrames()
		displays = append(displays, frames)
	}

	gestures := gesture.DefaultConfig()
	appCfg := app.Config{
		Camera:    cam,
		Detector:  det,
		Backend:   backend,
		Store:     st,
		Record:    cfg.Record.Enabled,
		Gesture:   gestures,
		TargetFPS: cfg.Camera.TargetFPS,
		Overlay:   ringVisible(cfg, window),
		Logger:    logger,
	}
	if len(displays) > 0 {
		appCfg.Preview = preview.New(preview.Annotator{
			ScreenW: screenW,
			ScreenH: screenH,
			Pointer: gestures.Pointer,
		}, displays...)
	}

	if cfg.Overlay.Enabled && !appCfg.Overlay {
		logger.Info("Click ring disabled: it is drawn only in the preview window and stream")
	}
	a := app.New(appCfg)

	if cfg.Server.Addr != "" {
		hub := server.NewStatusHub(logger)
		a.OnSnapshot(hub.Publish)

		srv := server.New(server.Config{
			Addr:    cfg.Server.Addr,
			Status:  a,
			Hub:     hub,
			Frames:  frames,
			Store:   st,
			ScreenW: screenW,
			ScreenH: screenH,
			Logger:  logger,
		})
		a.AddService("server", srv.Run)
	}

	if !cfg.Tray.Enabled {
		return a.Run(ctx)
	}

	t := tray.New()
	t.OnToggle(a.SetEnabled)
	a.OnSnapshot(t.Observe)
	return t.Run(ctx, a.Run)
}

// showWindow reports whether the preview window can be opened. highgui
// must be pumped from the main thread on macOS, and the frame loop runs on
// its own goroutine, so the window is only offered elsewhere.
func showWindow(enabled bool, goos string) bool {
	return enabled && goos != "darwin"
}

// ringVisible reports whether the click ring has anywhere to be drawn.
// There is no desktop overlay window: the ring is painted on the preview
// frame, which reaches the user through the window or the MJPEG stream.
func ringVisible(cfg *config.Config, window bool) bool {
	return cfg.Overlay.Enabled && (window || cfg.Server.Addr != "")
}

// newBackend returns the configured pointer backend and the screen size it
// drives.
func newBackend(cfg config.BackendConfig, logger *zap.Logger) (pointer.Backend, int, int) {
	if cfg.Kind == config.BackendDryRun {
		logger.Info("Dry-run backend: pointer actions are logged, not performed",
			zap.Int("screen_width", cfg.ScreenWidth),
			zap.Int("screen_height", cfg.ScreenHeight))
		return pointer.NewRecorder(cfg.ScreenWidth, cfg.ScreenHeight).WithLogger(logger), cfg.ScreenWidth, cfg.ScreenHeight
	}

	robot := pointer.NewRobotBackend()
	w, h := robot.ScreenSize()
	return robot, w, h
}
