package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ayusman/handpointer/internal/app"
	"github.com/ayusman/handpointer/internal/gesture"
	"github.com/ayusman/handpointer/internal/pointer"
)

func newReplayCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "replay <recording-id>",
		Short: "Feed a recording through the gesture controller without moving the pointer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.replay(cmd.OutOrStdout(), args[0], asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full action log as JSON")

	return cmd
}

func (c *cli) replay(out io.Writer, id string, asJSON bool) error {
	st, err := c.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.Recordings().Get(id)
	if err != nil {
		return fmt.Errorf("recording %s: %w", id, err)
	}
	frames, err := st.Recordings().Frames(id)
	if err != nil {
		return fmt.Errorf("recording %s: %w", id, err)
	}

	backend := pointer.NewRecorder(c.cfg.Backend.ScreenWidth, c.cfg.Backend.ScreenHeight)
	cfg := gesture.DefaultConfig().ForFrameRate(rec.TargetFPS)
	result := app.Replay(frames, cfg, backend, c.logger)

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "Recording %s (%s): %d frames at %.0f fps\n", rec.ID, rec.Name, result.Frames, rec.TargetFPS)
	kinds := make([]string, 0, len(result.Summary))
	for kind := range result.Summary {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(out, "  %-10s %d\n", kind, result.Summary[pointer.ActionKind(kind)])
	}
	fmt.Fprintf(out, "Left clicks: %d, right clicks: %d, scrolls: %v\n",
		backend.Clicks(pointer.ButtonLeft), backend.Clicks(pointer.ButtonRight), backend.Scrolls())
	return nil
}
