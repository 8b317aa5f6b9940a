package commands

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ib-77/skillpipe/pkg/infer"
)

func newCheckpointCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect stored skill checkpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored state of every skill in the configured pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showCheckpoint(cmd, root)
		},
	})
	return cmd
}

func showCheckpoint(cmd *cobra.Command, root *rootOptions) error {
	s, err := root.open(cmd)
	if err != nil {
		return err
	}
	store, err := s.store()
	if err != nil {
		return s.fail(cmd, err)
	}
	defer store.Close()

	cp, err := store.Load(contextOf(cmd), s.cfg.Pipeline)
	if err != nil {
		return s.fail(cmd, err)
	}

	s.printer.Info("pipeline %s, saved %s", cp.Pipeline,
		time.UnixMilli(cp.CreatedAtMs).UTC().Format(time.RFC3339))

	names := make([]string, 0, len(cp.Skills))
	for name := range cp.Skills {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var st infer.State
		if err := json.Unmarshal(cp.Skills[name], &st); err != nil {
			s.printer.Failure("%s: %v", name, err)
			continue
		}
		s.printer.Info("%s", name)
		s.printer.Field("ready", strconv.FormatBool(st.Ready))
		s.printer.Field("extra", string(st.Extra))
	}
	return nil
}
