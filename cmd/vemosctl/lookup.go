package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vemos"
	"github.com/hupe1980/vemos/manifest"
	"github.com/hupe1980/vemos/record"
)

func newLookupCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup STORE METRIC A B",
		Short: "Print the score and ground truth of a record pair",
		Long: `Lookup restores the current snapshot of STORE and prints the score of
the pair {A, B}. Pairs without a label in the score file take their ground
truth from the matches labeled by other score files, then from the match
lists of the records.`,
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			bs, err := openStore(cmd.Context(), args[0], g)
			if err != nil {
				return err
			}
			opts, err := g.datasetOptions(cmd)
			if err != nil {
				return err
			}
			d, err := vemos.Restore(cmd.Context(), manifest.NewStore(bs, nil), opts...)
			if err != nil {
				return err
			}
			s, ok := d.Metric(args[1])
			if !ok {
				return fmt.Errorf("%w: %s", vemos.ErrUnknownMetric, args[1])
			}
			var h [2]record.Handle
			for i, id := range args[2:] {
				if h[i], ok = d.Records().Resolve(id); !ok {
					return fmt.Errorf("%w: %s", vemos.ErrUnknownRecord, id)
				}
			}

			value := "-"
			if v, ok := s.Lookup(h[0], h[1]); ok {
				value = fmt.Sprint(v)
			}
			truth := s.TruthOr(d.Truth())(h[0], h[1])
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n", args[1], args[2], args[3], value, truth)
			return nil
		},
	}
}
