package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vemos/format"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect FILE...",
		Short: "Print the layout of local score files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err == nil {
					var kind format.Kind
					if kind, err = format.Detect(data); err == nil {
						fmt.Fprintf(out, "%s\t%s\n", path, kind)
						continue
					}
				}
				failed++
				fmt.Fprintf(out, "%s\terror: %v\n", path, err)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files not recognized", failed, len(args))
			}
			return nil
		},
	}
}
