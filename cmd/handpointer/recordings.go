package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRecordingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recordings",
		Short: "List recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.listRecordings(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <recording-id>",
		Short: "Delete a recording and its frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.deleteRecording(cmd.OutOrStdout(), args[0])
		},
	})

	return cmd
}

func (c *cli) listRecordings(out io.Writer) error {
	st, err := c.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	recordings, err := st.Recordings().List()
	if err != nil {
		return fmt.Errorf("list recordings: %w", err)
	}
	if len(recordings) == 0 {
		fmt.Fprintln(out, "No recordings.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFRAMES\tSIZE\tFPS\tCREATED")
	for _, rec := range recordings {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%dx%d\t%.0f\t%s\n",
			rec.ID, rec.Name, rec.Frames, rec.FrameWidth, rec.FrameHeight, rec.TargetFPS,
			rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func (c *cli) deleteRecording(out io.Writer, id string) error {
	st, err := c.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Recordings().Delete(id); err != nil {
		return fmt.Errorf("delete recording %s: %w", id, err)
	}
	c.logger.Info("Recording deleted", zap.String("recording", id))
	fmt.Fprintf(out, "Deleted %s\n", id)
	return nil
}
