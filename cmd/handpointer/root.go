package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ayusman/handpointer/internal/config"
	"github.com/ayusman/handpointer/internal/observability"
	"github.com/ayusman/handpointer/internal/store"
)

// Version is the application version.
// It is intended to be set at build time using ldflags:
// go build -ldflags "-X main.Version=1.0.0"
var Version = "0.1.0"

// cli carries state shared by every subcommand.
type cli struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.New()}

	root := &cobra.Command{
		Use:           "handpointer",
		Short:         "Control the mouse pointer with hand gestures",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initialize(cmd)
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.String("logger.level", "info", "log level (debug, info, warn, error)")
	flags.String("logger.format", "console", "log format (console, json)")
	flags.String("logger.log_file", "", "also write JSON logs to this rotated file")
	flags.String("record.db_path", "", "recordings database (default ~/.handpointer/handpointer.db)")

	root.AddCommand(newRunCmd(c), newReplayCmd(c), newRecordingsCmd(c))
	return root
}

// initialize binds flags, decodes the configuration and sets up logging.
func (c *cli) initialize(cmd *cobra.Command) error {
	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	cfg, err := config.NewConfigFromViper(c.v)
	if err != nil {
		observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "handpointer"})
		return err
	}
	observability.InitializeLogger(cfg.Logger)

	c.cfg = cfg
	c.logger = observability.GetLogger()
	c.logger.Debug("Starting handpointer", zap.String("version", Version))
	return nil
}

// openStore opens the recordings database, creating its directory.
func (c *cli) openStore() (*store.Store, error) {
	path := c.cfg.Record.DBPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate home directory: %w", err)
		}
		path = filepath.Join(home, ".handpointer", "handpointer.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	c.logger.Debug("Store opened", zap.String("path", st.Path()))
	return st, nil
}
