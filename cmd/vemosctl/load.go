package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vemos"
	"github.com/hupe1980/vemos/config"
	"github.com/hupe1980/vemos/manifest"
)

func newLoadCmd(g *globalOptions) *cobra.Command {
	var (
		source       string
		snapshot     string
		allowPartial bool
	)
	cmd := &cobra.Command{
		Use:   "load CONFIG",
		Short: "Load the files of a dataset config and optionally snapshot them",
		Long: `Load reads a YAML dataset config, loads its description file and
matrices from the source store and prints one line per file. Paths in the
config are relative to the source store, which defaults to the directory of
the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if source == "" {
				source = filepath.Dir(args[0])
			}
			src, err := openStore(ctx, source, g)
			if err != nil {
				return err
			}
			opts, err := g.datasetOptions(cmd)
			if err != nil {
				return err
			}

			d := vemos.New(cfg.Name, append(vemos.OptionsFromConfig(cfg), opts...)...)
			rep, err := d.LoadConfig(ctx, src, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, res := range rep.Results {
				if res == nil {
					fmt.Fprintf(out, "FAIL\t%s\t%v\n", cfg.Matrices[i].Path, rep.Errors[i])
					continue
				}
				fmt.Fprintf(out, "OK\t%s\t%s\t%s\t%d pairs\n", res.Source, res.Format, strings.Join(res.Metrics, ","), res.Pairs)
			}
			fmt.Fprintf(out, "%d records, %d metrics\n", d.Records().Len(), len(d.Metrics()))

			if rep.Failed() > 0 && !allowPartial {
				return fmt.Errorf("%d of %d files failed", rep.Failed(), len(rep.Results))
			}
			if snapshot == "" {
				return nil
			}

			dst, err := openStore(ctx, snapshot, g)
			if err != nil {
				return err
			}
			m, err := d.Save(ctx, manifest.NewStore(dst, cfg.CodecValue()))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "saved snapshot %d\n", m.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Store holding the files named in the config")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Store to save a snapshot to")
	cmd.Flags().BoolVar(&allowPartial, "allow-partial", false, "Succeed and snapshot even if some files fail")
	return cmd
}
